package domain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WPMirror/pkg/wordpress"
)

func TestNewEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       11,
			"date":     "2003-05-27T08:00:00",
			"modified": "2003-05-27T08:00:00",
			"link":     "https://wordpress.org/news/2003/05/wordpress-now-available/",
			"title":    map[string]any{"rendered": "WordPress Now Available"},
			"excerpt":  map[string]any{"rendered": "<p>Short</p>"},
			"content":  map[string]any{"rendered": "<p>Long &amp; detailed</p>"},
		})
	}))
	defer srv.Close()

	client, err := wordpress.New(srv.URL)
	require.NoError(t, err)
	item, err := client.FetchPost(context.Background(), 11)
	require.NoError(t, err)

	fetched := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewEntry("news", wordpress.Posts, item, fetched)

	assert.Equal(t, "news_posts_11", e.ID)
	assert.Equal(t, 11, e.ExternalID)
	assert.Equal(t, "posts", e.Collection)
	assert.Equal(t, "WordPress Now Available", e.Title)
	assert.Equal(t, "Long & detailed", e.Content)
	assert.Equal(t, "https://wordpress.org/news/2003/05/wordpress-now-available", e.Link)
	assert.Equal(t, fetched, e.FetchedAt)

	published, ok := e.PublishedTime()
	require.True(t, ok)
	assert.Equal(t, 2003, published.Year())
}

func TestEntry_ComputeHash(t *testing.T) {
	a := Entry{Site: "s", Collection: "posts", Title: "t", Content: "c", FetchedAt: time.Now()}
	b := a
	b.FetchedAt = a.FetchedAt.Add(time.Hour)
	b.ModifiedAt = "2020-01-01T00:00:00"
	assert.Equal(t, a.ComputeHash(), b.ComputeHash())

	b.Content = "changed"
	assert.NotEqual(t, a.ComputeHash(), b.ComputeHash())

	// Field boundaries matter.
	x := Entry{Title: "ab", Content: "c"}
	y := Entry{Title: "a", Content: "bc"}
	assert.NotEqual(t, x.ComputeHash(), y.ComputeHash())
}

func TestEntry_PublishedTimeInvalid(t *testing.T) {
	e := Entry{CreatedAt: "yesterday"}
	_, ok := e.PublishedTime()
	assert.False(t, ok)
}
