package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/WPMirror/pkg/wordpress"
	"github.com/gorilla/mux"
)

// ContentClient is the read API of *wordpress.Client.
type ContentClient interface {
	FetchCollection(ctx context.Context, coll wordpress.Collection, opts wordpress.Options) (*wordpress.Response, error)
	FetchItem(ctx context.Context, id int, coll wordpress.Collection) (*wordpress.Item, error)
	CountItems(ctx context.Context, coll wordpress.Collection, opts wordpress.Options) (int, error)
}

// SiteClients maps a configured site name to its client.
type SiteClients map[string]ContentClient

type itemDTO struct {
	ID         int    `json:"id"`
	CreatedAt  string `json:"created_at"`
	ModifiedAt string `json:"modified_at"`
	Link       string `json:"link"`
	Title      string `json:"title"`
	Excerpt    string `json:"excerpt"`
	Content    string `json:"content,omitempty"`
}

type listDTO struct {
	Total      int       `json:"total"`
	TotalPages int       `json:"total_pages"`
	PageSize   int       `json:"page_size"`
	Items      []itemDTO `json:"items"`
}

func toItemDTO(it *wordpress.Item, withContent bool) itemDTO {
	dto := itemDTO{
		ID:         it.ID,
		CreatedAt:  it.CreatedAt,
		ModifiedAt: it.ModifiedAt,
		Link:       it.Link,
		Title:      it.Title(),
		Excerpt:    it.Excerpt(),
	}
	if withContent {
		dto.Content = it.Content()
	}
	return dto
}

type contentHandler struct {
	sites SiteClients
}

func (h *contentHandler) client(w http.ResponseWriter, r *http.Request) (ContentClient, wordpress.Collection, bool) {
	vars := mux.Vars(r)
	c, ok := h.sites[vars["site"]]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown site")
		return nil, "", false
	}
	return c, wordpress.Collection(vars["collection"]), true
}

// listItems serves one page. page_size and offset map to the pagination
// options; every other query parameter is passed through to WordPress.
func (h *contentHandler) listItems(w http.ResponseWriter, r *http.Request) {
	c, coll, ok := h.client(w, r)
	if !ok {
		return
	}
	opts, err := optionsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := c.FetchCollection(r.Context(), coll, opts)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	out := listDTO{
		Total:      resp.Total,
		TotalPages: resp.TotalPages,
		PageSize:   resp.PageSize,
		Items:      make([]itemDTO, 0, len(resp.Items)),
	}
	for _, it := range resp.Items {
		out.Items = append(out.Items, toItemDTO(it, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *contentHandler) getItem(w http.ResponseWriter, r *http.Request) {
	c, coll, ok := h.client(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	item, err := c.FetchItem(r.Context(), id, coll)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(item, true))
}

func (h *contentHandler) countItems(w http.ResponseWriter, r *http.Request) {
	c, coll, ok := h.client(w, r)
	if !ok {
		return
	}
	opts, err := optionsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	total, err := c.CountItems(r.Context(), coll, opts)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"total": total})
}

func optionsFromQuery(r *http.Request) (wordpress.Options, error) {
	var opts wordpress.Options
	q := r.URL.Query()
	for key, values := range q {
		if (key == "page_size" || key == "offset") && len(values) > 1 {
			return opts, fmt.Errorf("%s given more than once", key)
		}
		switch key {
		case "page_size":
			n, err := strconv.Atoi(values[0])
			if err != nil || n <= 0 {
				return opts, errors.New("page_size must be a positive integer")
			}
			opts.PageSize = n
		case "offset":
			n, err := strconv.Atoi(values[0])
			if err != nil || n < 0 {
				return opts, errors.New("offset must be a non-negative integer")
			}
			opts.Offset = n
		default:
			if opts.Params == nil {
				opts.Params = make(map[string]any)
			}
			// WordPress reads list arguments such as categories as CSV.
			opts.Params[key] = strings.Join(values, ",")
		}
	}
	return opts, nil
}

func writeUpstreamError(w http.ResponseWriter, err error) {
	var statusErr *wordpress.StatusError
	if errors.As(err, &statusErr) {
		writeError(w, statusErr.StatusCode, statusErr.Error())
		return
	}
	slog.Error("WordPress request failed", "error", err)
	writeError(w, http.StatusBadGateway, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}
