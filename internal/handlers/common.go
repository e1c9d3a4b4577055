package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/lehigh-university-libraries/imagebatch/internal/models"
	"github.com/lehigh-university-libraries/imagebatch/internal/pipeline"
	"github.com/lehigh-university-libraries/imagebatch/internal/storage"
)

// MaxUploadSize caps uploaded tables
const MaxUploadSize = 10 * 1024 * 1024

type Handler struct {
	sessionStore *storage.SessionStore
	pipeline     *pipeline.Pipeline
	uploadsDir   string

	// ctx bounds background runs; cancelling it stops the active batch
	ctx context.Context

	runMu   sync.Mutex
	running string
	wg      sync.WaitGroup
}

// Option customizes a Handler
type Option func(*Handler)

// WithContext sets the context background runs are derived from
func WithContext(ctx context.Context) Option {
	return func(h *Handler) {
		h.ctx = ctx
	}
}

// WithUploadsDir sets where uploaded tables are kept
func WithUploadsDir(dir string) Option {
	return func(h *Handler) {
		h.uploadsDir = dir
	}
}

func New(p *pipeline.Pipeline, opts ...Option) *Handler {
	h := &Handler{
		sessionStore: storage.New(),
		pipeline:     p,
		ctx:          context.Background(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.uploadsDir == "" {
		root := p.Config().ScratchDir
		if root == "" {
			root = os.TempDir()
		}
		h.uploadsDir = filepath.Join(root, "uploads")
	}
	return h
}

// Routes registers every endpoint on a new ServeMux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", h.HandleSessions)
	mux.HandleFunc("/api/sessions/", h.HandleSessionDetail)
	mux.HandleFunc("/api/upload", h.HandleUpload)
	mux.HandleFunc("/", h.HandleStatic)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}

// Wait blocks until a background run, if any, has returned
func (h *Handler) Wait() {
	h.wg.Wait()
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, data, http.StatusOK)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message, "status", code)
	http.Error(w, message, code)
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*models.Session, bool) {
	session, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

// File operation helpers
func (h *Handler) ensureUploadsDir() error {
	return os.MkdirAll(h.uploadsDir, 0755)
}
