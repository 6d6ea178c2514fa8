package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/WPMirror/pkg/wordpress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(wordpress.HeaderTotal, "2")
		w.Header().Set(wordpress.HeaderTotalPages, "1")
		switch r.URL.Path {
		case "/wp-json/wp/v2/pages":
			if r.Method == http.MethodHead {
				return
			}
			assert.Equal(t, "menu_order", r.URL.Query().Get("orderby"))
			assert.Equal(t, "5", r.URL.Query().Get("per_page"))
			_, _ = w.Write([]byte(`[
				{"id": 257, "link": "https://x/features/", "title": {"rendered": "Features"}, "excerpt": {"rendered": "<p>All</p>"}},
				{"id": 258, "link": "https://x/about/", "title": {"rendered": "About &amp; Us"}}
			]`))
		case "/wp-json/wp/v2/pages/257":
			_, _ = w.Write([]byte(`{"id": 257, "link": "https://x/features/", "title": {"rendered": "Features"}, "content": {"rendered": "<p>Fast.</p>"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestRouter(t *testing.T, upstreamURL string) http.Handler {
	t.Helper()
	client, err := wordpress.New(upstreamURL)
	require.NoError(t, err)
	return NewRouter(SiteClients{"home": client})
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouter_ListItems(t *testing.T) {
	upstream := newUpstream(t)
	defer upstream.Close()

	rec := httptest.NewRecorder()
	newTestRouter(t, upstream.URL).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/api/sites/home/pages?page_size=5&orderby=menu_order", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out listDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, 5, out.PageSize)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "https://x/features", out.Items[0].Link)
	assert.Equal(t, "All", out.Items[0].Excerpt)
	assert.Equal(t, "About & Us", out.Items[1].Title)
}

func TestRouter_GetItem(t *testing.T) {
	upstream := newUpstream(t)
	defer upstream.Close()

	rec := httptest.NewRecorder()
	newTestRouter(t, upstream.URL).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sites/home/pages/257", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var out itemDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 257, out.ID)
	assert.Equal(t, "Features", out.Title)
	assert.Equal(t, "Fast.", out.Content)
}

func TestRouter_CountItems(t *testing.T) {
	upstream := newUpstream(t)
	defer upstream.Close()

	rec := httptest.NewRecorder()
	newTestRouter(t, upstream.URL).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sites/home/pages/count", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total": 2}`, rec.Body.String())
}

func TestRouter_Errors(t *testing.T) {
	upstream := newUpstream(t)
	defer upstream.Close()
	router := newTestRouter(t, upstream.URL)

	cases := []struct {
		path string
		code int
	}{
		{"/api/sites/missing/posts", http.StatusNotFound},
		{"/api/sites/home/posts/99", http.StatusNotFound}, // upstream 404 passes through
		{"/api/sites/home/pages?page_size=abc", http.StatusBadRequest},
		{"/api/sites/home/pages?offset=-1", http.StatusBadRequest},
		{"/api/sites/home/comments", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, tc.code, rec.Code, tc.path)
	}
}

func TestOptionsFromQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page_size=3&offset=6&order=asc&search=hello", nil)
	opts, err := optionsFromQuery(r)
	require.NoError(t, err)
	assert.Equal(t, 3, opts.PageSize)
	assert.Equal(t, 6, opts.Offset)
	assert.Equal(t, map[string]any{"order": "asc", "search": "hello"}, opts.Params)
}

func TestOptionsFromQuery_RepeatedKeys(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?categories=1&categories=2&tags=9", nil)
	opts, err := optionsFromQuery(r)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"categories": "1,2", "tags": "9"}, opts.Params)

	r = httptest.NewRequest(http.MethodGet, "/?page_size=3&page_size=4", nil)
	_, err = optionsFromQuery(r)
	assert.EqualError(t, err, "page_size given more than once")
}
