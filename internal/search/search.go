// Package search finds images on the web for a keyword and writes them into a
// directory chosen by the caller.
package search

import (
	"context"
	"fmt"
	"time"
)

// Searcher writes at most limit image files for keyword into dir.
// Files are named "<n>.jpg" whatever their encoding; callers decode by content.
type Searcher interface {
	Search(ctx context.Context, keyword string, limit int, dir string) error
}

// Config selects and configures a search provider
type Config struct {
	Provider     string // "web" or "google"
	UserAgent    string
	Timeout      time.Duration
	WebSearchURL string
	GoogleAPIKey string
	GoogleCX     string
}

// New returns the searcher for cfg.Provider
func New(ctx context.Context, cfg Config) (Searcher, error) {
	downloader := NewDownloader(cfg.Timeout, cfg.UserAgent)

	switch cfg.Provider {
	case "", "web":
		return NewWeb(cfg.WebSearchURL, cfg.UserAgent, cfg.Timeout, downloader), nil
	case "google":
		return NewGoogle(ctx, cfg.GoogleAPIKey, cfg.GoogleCX, downloader)
	default:
		return nil, fmt.Errorf("unknown search provider %q (supported: web, google)", cfg.Provider)
	}
}
