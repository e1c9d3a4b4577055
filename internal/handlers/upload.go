package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/lehigh-university-libraries/imagebatch/internal/table"
)

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+1024*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		file, header, err = r.FormFile("files")
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	defer file.Close()

	if !table.Supported(header.Filename) {
		h.writeError(w, "Unsupported file type. Upload a CSV, XLSX, Parquet or JSONL file", http.StatusUnsupportedMediaType)
		return
	}

	if err := h.ensureUploadsDir(); err != nil {
		h.writeError(w, "Failed to create uploads directory: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Limit file size to 10MB
	fileData, err := io.ReadAll(io.LimitReader(file, MaxUploadSize))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if len(fileData) >= MaxUploadSize {
		h.writeError(w, "File too large (max 10MB)", http.StatusBadRequest)
		return
	}

	session, err := h.processUpload(fileData, header.Filename)
	switch {
	case errors.Is(err, table.ErrUnsupportedFormat):
		h.writeError(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	case errors.Is(err, table.ErrMissingColumns):
		h.writeError(w, table.ErrMissingColumns.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.writeError(w, "Failed to process file: "+err.Error(), http.StatusBadRequest)
		return
	}

	response := map[string]any{
		"session_id": session.ID,
		"message":    "Successfully uploaded " + header.Filename,
		"records":    len(session.Records),
		"columns":    session.Columns,
		"preview":    session.Preview,
	}

	h.writeJSON(w, response)
}
