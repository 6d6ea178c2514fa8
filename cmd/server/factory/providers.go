package factory

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/WPMirror/internal/app"
	"github.com/WPMirror/internal/domain"
	"github.com/WPMirror/internal/infra/provider"
	transport "github.com/WPMirror/internal/transport/http"
	"github.com/WPMirror/pkg/config"
	"github.com/WPMirror/pkg/wordpress"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Sites holds one WordPress client per configured site, keyed by name.
type Sites map[string]*wordpress.Client

// NewSites builds the clients. Outbound requests are traced and logged.
func NewSites(cfg *config.Config) (Sites, error) {
	if len(cfg.Sites) == 0 {
		return nil, errors.New("no sites configured")
	}

	httpClient := &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	logger := wordpress.NewSlogLogger(slog.Default())

	sites := make(Sites, len(cfg.Sites))
	for _, site := range cfg.Sites {
		if _, dup := sites[site.Name]; dup {
			return nil, fmt.Errorf("duplicate site name: %s", site.Name)
		}
		client, err := wordpress.New(site.URL, wordpress.WithHTTPClient(httpClient), wordpress.WithLogger(logger))
		if err != nil {
			slog.Warn("Skipping site", "site", site.Name, "error", err)
			continue
		}
		sites[site.Name] = client
		slog.Info("Registered site", "site", site.Name, "api", client.BaseURL())
	}

	if len(sites) == 0 {
		return nil, errors.New("no valid sites configured")
	}
	return sites, nil
}

// NewProviders creates one provider per site collection. Crawls resume from
// the newest entry stored in repo.
func NewProviders(cfg *config.Config, sites Sites, repo domain.Repository) ([]domain.Provider, error) {
	var providers []domain.Provider
	for _, site := range cfg.Sites {
		client, ok := sites[site.Name]
		if !ok {
			continue
		}
		for _, name := range site.Collections {
			coll := wordpress.Collection(name)
			if coll != wordpress.Posts && coll != wordpress.Pages {
				slog.Warn("Skipping collection", "site", site.Name, "collection", name)
				continue
			}
			p := provider.NewWordPressProvider(site.Name, coll, client, provider.Settings{
				PageSize: site.PageSize,
				MaxPages: site.MaxPages,
				Params:   site.Params,
			}).WithCheckpoint(repo)
			providers = append(providers, p)
			slog.Info("Registered provider", "provider", p.GetName())
		}
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no valid providers configured")
	}
	return providers, nil
}

// NewSiteClients exposes the clients to the HTTP API.
func NewSiteClients(sites Sites) transport.SiteClients {
	out := make(transport.SiteClients, len(sites))
	for name, c := range sites {
		out[name] = c
	}
	return out
}

// NewSiteProbes exposes the clients to the readiness check.
func NewSiteProbes(sites Sites) []app.SiteProbe {
	probes := make([]app.SiteProbe, 0, len(sites))
	for _, c := range sites {
		probes = append(probes, c)
	}
	return probes
}
