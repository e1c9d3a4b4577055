package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/imagebatch/internal/archive"
	"github.com/lehigh-university-libraries/imagebatch/internal/models"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.writeJSON(w, h.sessionStore.GetAll())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSessionDetail serves /api/sessions/{id} and its start and download actions
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	sessionID, action, _ := strings.Cut(path, "/")

	session, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	switch action {
	case "":
		if r.Method != "GET" {
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.writeJSON(w, session)
	case "start":
		if r.Method != "POST" {
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleStart(w, session)
	case "download":
		if r.Method != "GET" {
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleDownload(w, session)
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
	}
}

func (h *Handler) handleStart(w http.ResponseWriter, session *models.Session) {
	if len(session.Records) == 0 {
		h.writeError(w, "Session has no records", http.StatusBadRequest)
		return
	}

	if active, ok := h.startRun(session.ID, session.Records); !ok {
		h.writeError(w, "A run is already in progress for session "+active, http.StatusConflict)
		return
	}

	started, _ := h.sessionStore.Get(session.ID)
	h.writeJSONStatus(w, started, http.StatusAccepted)
}

func (h *Handler) handleDownload(w http.ResponseWriter, session *models.Session) {
	if session.Status != models.StatusCompleted || session.Archive == nil {
		h.writeError(w, "Archive not ready", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", archive.MIMEType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+archive.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(session.Archive)))
	if _, err := w.Write(session.Archive); err != nil {
		h.writeError(w, "Failed to write archive: "+err.Error(), http.StatusInternalServerError)
	}
}
