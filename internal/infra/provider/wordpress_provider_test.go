package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/WPMirror/internal/domain"
	"github.com/WPMirror/internal/domain/mocks"
	"github.com/WPMirror/pkg/wordpress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newSiteServer serves total posts with the pagination headers WordPress sends.
func newSiteServer(t *testing.T, total int, getCalls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		if perPage <= 0 {
			perPage = 10
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		w.Header().Set(wordpress.HeaderTotal, strconv.Itoa(total))
		w.Header().Set(wordpress.HeaderTotalPages, strconv.Itoa((total+perPage-1)/perPage))
		if r.Method == http.MethodHead {
			return
		}
		if getCalls != nil {
			atomic.AddInt32(getCalls, 1)
		}

		var out []map[string]any
		for id := offset + 1; id <= offset+perPage && id <= total; id++ {
			out = append(out, map[string]any{
				"id":      id,
				"link":    fmt.Sprintf("https://example.org/?p=%d/", id),
				"title":   map[string]any{"rendered": fmt.Sprintf("Post #%d", id)},
				"content": map[string]any{"rendered": "<p>body</p>"},
			})
		}
		if out == nil {
			out = []map[string]any{}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
}

func TestWordPressProvider_Crawl_AllPages(t *testing.T) {
	var gets int32
	server := newSiteServer(t, 23, &gets)
	defer server.Close()

	client, err := wordpress.New(server.URL)
	require.NoError(t, err)

	p := NewWordPressProvider("news", wordpress.Posts, client, Settings{PageSize: 10})
	assert.Equal(t, "news/posts", p.GetName())

	var ids []int
	err = p.Crawl(context.Background(), func(entries []domain.Entry) error {
		for _, e := range entries {
			ids = append(ids, e.ExternalID)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, ids, 23)
	assert.Equal(t, 1, ids[0])
	assert.Equal(t, 23, ids[22])
	assert.Equal(t, int32(3), atomic.LoadInt32(&gets), "stops after the last page")
}

func TestWordPressProvider_Crawl_Resilience(t *testing.T) {
	server := newSiteServer(t, 3, nil)
	defer server.Close()

	client, err := wordpress.New(server.URL)
	require.NoError(t, err)

	p := NewWordPressProvider("news", wordpress.Posts, client, Settings{PageSize: 1})

	// Handler fails for the 2nd page, but crawl should continue
	var processed []string
	err = p.Crawl(context.Background(), func(entries []domain.Entry) error {
		if entries[0].ExternalID == 2 {
			return errors.New("simulated database error")
		}
		processed = append(processed, entries[0].ID)
		return nil
	})

	assert.NoError(t, err, "Crawl should not return error for a single batch failure")
	assert.Equal(t, []string{"news_posts_1", "news_posts_3"}, processed)
}

func TestWordPressProvider_Crawl_HandlerAbort(t *testing.T) {
	server := newSiteServer(t, 10, nil)
	defer server.Close()

	client, err := wordpress.New(server.URL)
	require.NoError(t, err)

	p := NewWordPressProvider("news", wordpress.Pages, client, Settings{PageSize: 1})

	consecutiveFailures := 0
	err = p.Crawl(context.Background(), func(entries []domain.Entry) error {
		consecutiveFailures++
		return errors.New("persistent error")
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "too many consecutive handler errors")
	assert.Equal(t, 5, consecutiveFailures, "Should stop after 5 failures")
}

func TestWordPressProvider_Crawl_MaxPages(t *testing.T) {
	var gets int32
	server := newSiteServer(t, 100, &gets)
	defer server.Close()

	client, err := wordpress.New(server.URL)
	require.NoError(t, err)

	p := NewWordPressProvider("news", wordpress.Posts, client, Settings{PageSize: 5, MaxPages: 2})
	err = p.Crawl(context.Background(), func([]domain.Entry) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&gets))
}

func TestWordPressProvider_Crawl_FetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := wordpress.New(server.URL)
	require.NoError(t, err)

	p := NewWordPressProvider("down", wordpress.Posts, client, Settings{})

	called := false
	err = p.Crawl(context.Background(), func([]domain.Entry) error {
		called = true
		return nil
	})

	var statusErr *wordpress.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.False(t, called)
}

func TestIsLastPage(t *testing.T) {
	full := &wordpress.Response{Total: wordpress.Unknown, TotalPages: wordpress.Unknown, Items: make([]*wordpress.Item, 10)}
	opts := wordpress.Options{PageSize: 10}

	assert.False(t, isLastPage(full, opts, 0), "unknown totals keep going on full pages")

	short := &wordpress.Response{Total: wordpress.Unknown, TotalPages: wordpress.Unknown, Items: make([]*wordpress.Item, 3)}
	assert.True(t, isLastPage(short, opts, 0))

	byPages := &wordpress.Response{Total: wordpress.Unknown, TotalPages: 2, Items: make([]*wordpress.Item, 10)}
	assert.True(t, isLastPage(byPages, opts, 1))

	byTotal := &wordpress.Response{Total: 20, TotalPages: wordpress.Unknown, Items: make([]*wordpress.Item, 10)}
	assert.True(t, isLastPage(byTotal, wordpress.Options{PageSize: 10, Offset: 10}, 1))
}

type queryLog struct {
	mu    sync.Mutex
	gets  []url.Values
	heads []url.Values
}

func (l *queryLog) server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l.mu.Lock()
		if r.Method == http.MethodHead {
			l.heads = append(l.heads, r.URL.Query())
		} else {
			l.gets = append(l.gets, r.URL.Query())
		}
		l.mu.Unlock()

		w.Header().Set(wordpress.HeaderTotal, "1")
		w.Header().Set(wordpress.HeaderTotalPages, "1")
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write([]byte(`[{"id":7,"modified":"2024-03-09T08:00:00","title":{"rendered":"Edited"}}]`))
	}))
}

func TestWordPressProvider_Crawl_Incremental(t *testing.T) {
	var log queryLog
	server := log.server(t)
	defer server.Close()

	client, err := wordpress.New(server.URL)
	require.NoError(t, err)

	repo := new(mocks.MockRepository)
	repo.On("GetLatestModified", mock.Anything, "news", "posts").
		Return(&domain.Entry{ID: "news_posts_3", ModifiedAt: "2024-03-08T17:30:00"}, nil)

	settings := Settings{Params: map[string]any{"order": "desc"}}
	p := NewWordPressProvider("news", wordpress.Posts, client, settings).WithCheckpoint(repo)

	var got []domain.Entry
	err = p.Crawl(context.Background(), func(entries []domain.Entry) error {
		got = append(got, entries...)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-03-09T08:00:00", got[0].ModifiedAt)

	require.Len(t, log.gets, 1)
	assert.Equal(t, "2024-03-08T17:30:00", log.gets[0].Get("modified_after"))
	assert.Equal(t, "desc", log.gets[0].Get("order"))

	require.Len(t, log.heads, 1)
	assert.False(t, log.heads[0].Has("modified_after"), "the total gauge counts the whole collection")
	assert.NotContains(t, settings.Params, "modified_after", "configured params are not mutated")
	repo.AssertExpectations(t)
}

func TestWordPressProvider_Crawl_CheckpointFallback(t *testing.T) {
	cases := []struct {
		name   string
		entry  *domain.Entry
		err    error
		params map[string]any
		want   string
	}{
		{name: "nothing stored", entry: nil},
		{name: "lookup fails", err: errors.New("mongo down")},
		{name: "configured value wins", params: map[string]any{"modified_after": "2020-01-01T00:00:00"}, want: "2020-01-01T00:00:00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var log queryLog
			server := log.server(t)
			defer server.Close()

			client, err := wordpress.New(server.URL)
			require.NoError(t, err)

			repo := new(mocks.MockRepository)
			repo.On("GetLatestModified", mock.Anything, "news", "pages").Return(tc.entry, tc.err)

			p := NewWordPressProvider("news", wordpress.Pages, client, Settings{Params: tc.params}).WithCheckpoint(repo)
			require.NoError(t, p.Crawl(context.Background(), func([]domain.Entry) error { return nil }))

			require.Len(t, log.gets, 1)
			assert.Equal(t, tc.want, log.gets[0].Get("modified_after"))
			if tc.params != nil {
				repo.AssertNotCalled(t, "GetLatestModified", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
