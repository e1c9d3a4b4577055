package search

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// The Custom Search API returns at most ten results per call
const maxGoogleResults = 10

// Google searches images through the Custom Search JSON API
type Google struct {
	service    *customsearch.Service
	cx         string
	downloader *Downloader
}

// NewGoogle creates a Custom Search backed searcher for the engine cx
func NewGoogle(ctx context.Context, apiKey, cx string, downloader *Downloader, opts ...option.ClientOption) (*Google, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google search requires an API key (IMAGEBATCH_GOOGLE_API_KEY)")
	}
	if cx == "" {
		return nil, fmt.Errorf("google search requires a search engine ID (IMAGEBATCH_GOOGLE_CX)")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create custom search client: %w", err)
	}

	return &Google{
		service:    service,
		cx:         cx,
		downloader: downloader,
	}, nil
}

func (g *Google) Search(ctx context.Context, keyword string, limit int, dir string) error {
	num := limit
	if num > maxGoogleResults {
		num = maxGoogleResults
	}
	if num < 1 {
		num = 1
	}

	res, err := g.service.Cse.List().
		Cx(g.cx).
		Q(keyword).
		SearchType("image").
		Num(int64(num)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("custom search failed: %w", err)
	}

	urls := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		if item.Link != "" {
			urls = append(urls, item.Link)
		}
	}
	slog.Debug("Image candidates found", "keyword", keyword, "count", len(urls), "provider", "google")

	_, err = g.downloader.SaveFirst(ctx, urls, limit, dir)
	return err
}
