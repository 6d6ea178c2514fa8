package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/WPMirror/pkg/wordpress"
	"github.com/gorilla/mux"
)

const totalPosts = 512

type rendered struct {
	Rendered string `json:"rendered"`
}

type post struct {
	ID       int      `json:"id"`
	Date     string   `json:"date"`
	Modified string   `json:"modified"`
	Link     string   `json:"link"`
	Title    rendered `json:"title"`
	Excerpt  rendered `json:"excerpt"`
	Content  rendered `json:"content"`
}

func makePost(id int) post {
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Hour).Format("2006-01-02T15:04:05")
	return post{
		ID:       id,
		Date:     ts,
		Modified: ts,
		Link:     fmt.Sprintf("http://localhost:8081/?p=%d/", id),
		Title:    rendered{fmt.Sprintf("Mock post #%d &amp; friends", id)},
		Excerpt:  rendered{"<p>Excerpt of a mock post.</p>\n"},
		Content:  rendered{fmt.Sprintf("<p>Body of <strong>post %d</strong>.</p>", id)},
	}
}

func listPosts(w http.ResponseWriter, r *http.Request) {
	perPage, err := strconv.Atoi(r.URL.Query().Get("per_page"))
	if err != nil || perPage <= 0 {
		perPage = wordpress.DefaultPageSize
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(wordpress.HeaderTotal, strconv.Itoa(totalPosts))
	w.Header().Set(wordpress.HeaderTotalPages, strconv.Itoa((totalPosts+perPage-1)/perPage))
	if r.Method == http.MethodHead {
		return
	}

	posts := []post{}
	for id := offset + 1; id <= offset+perPage && id <= totalPosts; id++ {
		posts = append(posts, makePost(id))
	}
	if err := json.NewEncoder(w).Encode(posts); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func getPost(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	w.Header().Set("Content-Type", "application/json")
	if id < 1 || id > totalPosts {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"rest_post_invalid_id","message":"Invalid post ID.","data":{"status":404}}`))
		return
	}
	if err := json.NewEncoder(w).Encode(makePost(id)); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func main() {
	r := mux.NewRouter()
	api := r.PathPrefix("/wp-json/wp/v2").Subrouter()
	api.HandleFunc("/{collection:posts|pages}", listPosts).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/{collection:posts|pages}/{id:[0-9]+}", getPost).Methods(http.MethodGet)

	slog.Info("Mock WordPress server running on :8081")
	if err := http.ListenAndServe(":8081", r); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
