package wordpress

import (
	"strings"
	"sync"
)

// Item is a post or a page. Text fields are converted from the rendered
// HTML to plaintext on first read and cached. Items are never modified
// after construction and must be handled by pointer.
type Item struct {
	ID         int
	CreatedAt  string
	ModifiedAt string
	Link       string

	title   lazyText
	excerpt lazyText
	content lazyText
}

// Title is the plaintext title.
func (it *Item) Title() string { return it.title.get() }

// Excerpt is the plaintext excerpt.
func (it *Item) Excerpt() string { return it.excerpt.get() }

// Content is the plaintext body.
func (it *Item) Content() string { return it.content.get() }

// Response is one page of a collection listing.
type Response struct {
	Total      int
	TotalPages int
	PageSize   int
	Items      []*Item
}

type lazyText struct {
	once sync.Once
	html string
	text string
}

func (l *lazyText) get() string {
	l.once.Do(func() {
		l.text = PlainText(l.html)
	})
	return l.text
}

type rendered struct {
	Rendered string `json:"rendered"`
}

// record is the subset of the REST API post/page schema the client reads.
type record struct {
	ID       int      `json:"id"`
	Date     string   `json:"date"`
	Modified string   `json:"modified"`
	Link     string   `json:"link"`
	Title    rendered `json:"title"`
	Excerpt  rendered `json:"excerpt"`
	Content  rendered `json:"content"`
}

func newItem(r record) *Item {
	return &Item{
		ID:         r.ID,
		CreatedAt:  r.Date,
		ModifiedAt: r.Modified,
		Link:       normalizeLink(r.Link),
		title:      lazyText{html: r.Title.Rendered},
		excerpt:    lazyText{html: r.Excerpt.Rendered},
		content:    lazyText{html: r.Content.Rendered},
	}
}

func normalizeLink(link string) string {
	return strings.TrimSuffix(link, "/")
}
