package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/WPMirror/pkg/wordpress"
)

// Entry is the stored form of a WordPress post or page.
type Entry struct {
	ID          string    `json:"id" bson:"_id"`
	Site        string    `json:"site" bson:"site"`
	Collection  string    `json:"collection" bson:"collection"` // "posts" or "pages"
	ExternalID  int       `json:"external_id" bson:"external_id"`
	Title       string    `json:"title" bson:"title"`
	Excerpt     string    `json:"excerpt" bson:"excerpt"`
	Content     string    `json:"content" bson:"content"`
	Link        string    `json:"link" bson:"link"`
	CreatedAt   string    `json:"created_at" bson:"created_at"` // as sent by WordPress, site local time
	ModifiedAt  string    `json:"modified_at" bson:"modified_at"`
	FetchedAt   time.Time `json:"fetched_at" bson:"fetched_at"`
	ContentHash string    `json:"content_hash" bson:"content_hash"`
}

// EntryID is the storage key of an item: site, collection and remote id.
func EntryID(site, collection string, externalID int) string {
	return fmt.Sprintf("%s_%s_%d", site, collection, externalID)
}

// NewEntry copies an item into an Entry, forcing the plaintext fields.
func NewEntry(site string, collection wordpress.Collection, item *wordpress.Item, fetchedAt time.Time) Entry {
	return Entry{
		ID:         EntryID(site, string(collection), item.ID),
		Site:       site,
		Collection: string(collection),
		ExternalID: item.ID,
		Title:      item.Title(),
		Excerpt:    item.Excerpt(),
		Content:    item.Content(),
		Link:       item.Link,
		CreatedAt:  item.CreatedAt,
		ModifiedAt: item.ModifiedAt,
		FetchedAt:  fetchedAt,
	}
}

// ComputeHash hashes the fields that define "changed content". FetchedAt and
// ModifiedAt are left out so a re-save without edits is not republished.
func (e *Entry) ComputeHash() string {
	hasher := sha256.New()
	for _, s := range []string{e.Site, e.Collection, e.Link, e.Title, e.Excerpt, e.Content} {
		hasher.Write([]byte(s))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// PublishedTime parses CreatedAt. WordPress sends it without a zone.
func (e *Entry) PublishedTime() (time.Time, bool) {
	t, err := time.Parse("2006-01-02T15:04:05", e.CreatedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// EntryWriter handles entry persistence operations.
type EntryWriter interface {
	BulkUpsert(ctx context.Context, entries []Entry) error
}

// EntryReader finds the crawl checkpoint of a site collection: the stored
// entry with the newest ModifiedAt, or nil when nothing is stored yet.
type EntryReader interface {
	GetLatestModified(ctx context.Context, site, collection string) (*Entry, error)
}

// HashReader handles content hash retrieval for deduplication.
type HashReader interface {
	GetContentHashes(ctx context.Context, ids []string) (map[string]string, error)
}

// Repository is the full store used by the mirror service.
type Repository interface {
	EntryWriter
	EntryReader
	HashReader
}

// Provider crawls one collection of one site, handing each page to handler.
type Provider interface {
	Crawl(ctx context.Context, handler func([]Entry) error) error
	GetName() string
}

// EventProducer publishes entry events to a queue.
type EventProducer interface {
	Publish(ctx context.Context, entry *Entry) error
	PublishBatch(ctx context.Context, entries []Entry) error
	Close() error
}

// IndexGateway pushes changed entries to the downstream search index.
type IndexGateway interface {
	IndexEntry(ctx context.Context, entry *Entry) error
}
