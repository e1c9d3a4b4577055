package search

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"google.golang.org/api/option"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 16))
	for x := 0; x < 32; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 16), B: 99, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func newImageServer(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/good.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(body)
		case "/tiny.png":
			_, _ = w.Write([]byte("x"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func testDownloader() *Downloader {
	d := NewDownloader(5*time.Second, "")
	d.MinBytes = 10
	return d
}

func TestDownload(t *testing.T) {
	body := pngBytes(t)
	server := newImageServer(t, body)
	dir := t.TempDir()
	d := testDownloader()

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "ok", path: "/good.png", wantErr: false},
		{name: "not found", path: "/missing.png", wantErr: true},
		{name: "placeholder", path: "/tiny.png", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(dir, tt.name+".jpg")
			err := d.Download(context.Background(), server.URL+tt.path, out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				if _, statErr := os.Stat(out); statErr == nil {
					t.Errorf("Expected no file for failed download")
				}
				return
			}
			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if !bytes.Equal(data, body) {
				t.Errorf("Downloaded content differs")
			}
		})
	}
}

func TestSaveFirstSkipsBadCandidates(t *testing.T) {
	server := newImageServer(t, pngBytes(t))
	dir := t.TempDir()

	urls := []string{server.URL + "/missing.png", server.URL + "/tiny.png", server.URL + "/good.png", server.URL + "/good.png"}
	saved, err := testDownloader().SaveFirst(context.Background(), urls, 1, dir)
	if err != nil {
		t.Fatalf("SaveFirst failed: %v", err)
	}
	if saved != 1 {
		t.Errorf("Expected 1 saved image, got %d", saved)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "1.jpg" {
		t.Errorf("Expected only 1.jpg in dir, got %v", entries)
	}
}

const resultsPage = `<html><body>
<div class="imgpt"><a class="iusc" m='{"murl":"https://example.com/a.jpg","turl":"https://tse.example.com/a"}'></a></div>
<div class="imgpt"><a class="iusc" m='{"murl":"https://example.com/b.png"}'></a></div>
<div class="imgpt"><a class="iusc" m='{"murl":"https://example.com/a.jpg"}'></a></div>
<div class="imgpt"><a class="iusc" m='not json'></a></div>
<div class="imgpt"><a class="iusc" m='{"murl":"data:image/png;base64,AAAA"}'></a></div>
<img class="mimg" src="https://tse.example.com/thumb.jpg">
</body></html>`

func TestExtractImageURLs(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected []string
	}{
		{
			name:     "tile metadata",
			html:     resultsPage,
			expected: []string{"https://example.com/a.jpg", "https://example.com/b.png"},
		},
		{
			name:     "thumbnail fallback",
			html:     `<img class="mimg" src="https://tse.example.com/t1.jpg"><img class="mimg" src="/relative.jpg">`,
			expected: []string{"https://tse.example.com/t1.jpg"},
		},
		{
			name:     "no results",
			html:     `<html><body><p>nothing</p></body></html>`,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("goquery: %v", err)
			}
			result := ExtractImageURLs(doc)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestWebSearch(t *testing.T) {
	body := pngBytes(t)
	var gotQuery string

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/images/search", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprintf(w, `<html><body><a class="iusc" m='{"murl":"%s/img/fox.png"}'></a></body></html>`, server.URL)
	})
	mux.HandleFunc("/img/fox.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	})

	dir := t.TempDir()
	web := NewWeb(server.URL+"/images/search", "", 5*time.Second, testDownloader())
	if err := web.Search(context.Background(), "red fox", 1, dir); err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotQuery != "red fox" {
		t.Errorf("Expected query %q, got %q", "red fox", gotQuery)
	}
	data, err := os.ReadFile(filepath.Join(dir, "1.jpg"))
	if err != nil {
		t.Fatalf("Expected 1.jpg to be written: %v", err)
	}
	if !bytes.Equal(data, body) {
		t.Errorf("Stored image differs from served image")
	}
}

func TestWebSearchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusTooManyRequests)
	}))
	defer server.Close()

	web := NewWeb(server.URL, "", 5*time.Second, testDownloader())
	if err := web.Search(context.Background(), "cat", 1, t.TempDir()); err == nil {
		t.Errorf("Expected error for non-200 search page")
	}
}

func TestGoogleSearch(t *testing.T) {
	body := pngBytes(t)
	var gotSearchType, gotCX string

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/customsearch/v1", func(w http.ResponseWriter, r *http.Request) {
		gotSearchType = r.URL.Query().Get("searchType")
		gotCX = r.URL.Query().Get("cx")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"items":[{"link":"%s/img/missing.png"},{"link":"%s/img/cat.png"}]}`, server.URL, server.URL)
	})
	mux.HandleFunc("/img/cat.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	})

	g, err := NewGoogle(context.Background(), "test-key", "engine-1", testDownloader(), option.WithEndpoint(server.URL+"/"))
	if err != nil {
		t.Fatalf("NewGoogle failed: %v", err)
	}

	dir := t.TempDir()
	if err := g.Search(context.Background(), "cat", 1, dir); err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotSearchType != "image" {
		t.Errorf("Expected searchType=image, got %q", gotSearchType)
	}
	if gotCX != "engine-1" {
		t.Errorf("Expected cx=engine-1, got %q", gotCX)
	}
	if _, err := os.Stat(filepath.Join(dir, "1.jpg")); err != nil {
		t.Errorf("Expected 1.jpg to be written: %v", err)
	}
}

func TestNewProviderSelection(t *testing.T) {
	if _, err := New(context.Background(), Config{Provider: "web"}); err != nil {
		t.Errorf("Expected web provider, got %v", err)
	}
	if _, err := New(context.Background(), Config{Provider: "google"}); err == nil {
		t.Errorf("Expected error for google provider without credentials")
	}
	if _, err := New(context.Background(), Config{Provider: "altavista"}); err == nil {
		t.Errorf("Expected error for unknown provider")
	}
}
