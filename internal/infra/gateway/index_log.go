package gateway

import (
	"context"
	"log/slog"

	"github.com/WPMirror/internal/domain"
)

// LogIndexGateway stands in for a search index and only logs what it receives.
type LogIndexGateway struct {
	logger *slog.Logger
}

func NewLogIndexGateway(logger *slog.Logger) *LogIndexGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogIndexGateway{logger: logger}
}

func (g *LogIndexGateway) IndexEntry(ctx context.Context, entry *domain.Entry) error {
	g.logger.InfoContext(ctx, "Index entry",
		"entry_id", entry.ID,
		"site", entry.Site,
		"collection", entry.Collection,
		"title", entry.Title,
		"link", entry.Link,
		"modified_at", entry.ModifiedAt)
	return nil
}
