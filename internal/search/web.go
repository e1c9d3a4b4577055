package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
)

const DefaultWebSearchURL = "https://www.bing.com/images/search"

// Web scrapes an HTML image search results page; no API key needed
type Web struct {
	SearchURL  string
	UserAgent  string
	Timeout    time.Duration
	downloader *Downloader
}

// NewWeb creates a web image searcher
func NewWeb(searchURL, userAgent string, timeout time.Duration, downloader *Downloader) *Web {
	if searchURL == "" {
		searchURL = DefaultWebSearchURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Web{
		SearchURL:  searchURL,
		UserAgent:  userAgent,
		Timeout:    timeout,
		downloader: downloader,
	}
}

func (w *Web) Search(ctx context.Context, keyword string, limit int, dir string) error {
	urls, err := w.imageURLs(ctx, keyword)
	if err != nil {
		return err
	}
	slog.Debug("Image candidates found", "keyword", keyword, "count", len(urls))

	saved, err := w.downloader.SaveFirst(ctx, urls, limit, dir)
	if err != nil {
		return err
	}
	if saved == 0 {
		slog.Debug("No image could be downloaded", "keyword", keyword, "candidates", len(urls))
	}
	return nil
}

func (w *Web) imageURLs(ctx context.Context, keyword string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(colly.UserAgent(w.UserAgent))
	c.SetRequestTimeout(w.Timeout)

	var urls []string
	var parseErr error
	c.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			parseErr = fmt.Errorf("failed to parse search results: %w", err)
			return
		}
		urls = ExtractImageURLs(doc)
	})

	query := url.Values{}
	query.Set("q", keyword)
	query.Set("first", "1")
	if err := c.Visit(w.SearchURL + "?" + query.Encode()); err != nil {
		return nil, fmt.Errorf("failed to query image search: %w", err)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return urls, nil
}

// ExtractImageURLs returns full-size image URLs from a results page, in page
// order. Result tiles carry a JSON "m" attribute whose murl is the original image;
// plain result thumbnails are used when no tile metadata is present.
func ExtractImageURLs(doc *goquery.Document) []string {
	var urls []string
	seen := make(map[string]bool)
	add := func(u string) {
		u = strings.TrimSpace(u)
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return
		}
		if seen[u] {
			return
		}
		seen[u] = true
		urls = append(urls, u)
	}

	doc.Find("a.iusc").Each(func(_ int, s *goquery.Selection) {
		m, ok := s.Attr("m")
		if !ok {
			return
		}
		var meta struct {
			MURL string `json:"murl"`
		}
		if err := json.Unmarshal([]byte(m), &meta); err != nil {
			return
		}
		add(meta.MURL)
	})

	if len(urls) > 0 {
		return urls
	}

	doc.Find("img.mimg").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			add(src)
		}
	})
	return urls
}
