package handlers

import (
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/imagebatch/internal/batch"
	"github.com/lehigh-university-libraries/imagebatch/internal/models"
	"github.com/lehigh-university-libraries/imagebatch/internal/table"
)

// startRun launches a background run for sessionID unless another run is
// active, in which case it returns that session's ID and false.
func (h *Handler) startRun(sessionID string, records []table.Record) (string, bool) {
	h.runMu.Lock()
	if h.running != "" {
		active := h.running
		h.runMu.Unlock()
		return active, false
	}
	h.running = sessionID
	h.runMu.Unlock()

	now := time.Now()
	h.sessionStore.Update(sessionID, func(s *models.Session) {
		s.Status = models.StatusProcessing
		s.Progress = models.Progress{Total: len(records)}
		s.Warnings = nil
		s.Errors = nil
		s.Result = nil
		s.Error = ""
		s.Archive = nil
		s.StartedAt = &now
		s.FinishedAt = nil
	})

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			h.runMu.Lock()
			h.running = ""
			h.runMu.Unlock()
		}()
		h.run(sessionID, records)
	}()
	return "", true
}

func (h *Handler) run(sessionID string, records []table.Record) {
	slog.Info("Run started", "session_id", sessionID, "records", len(records))

	hooks := batch.Hooks{
		Warn: func(msg string) {
			h.sessionStore.Update(sessionID, func(s *models.Session) {
				s.Warnings = append(s.Warnings, msg)
			})
		},
		Error: func(rec table.Record, err error) {
			h.sessionStore.Update(sessionID, func(s *models.Session) {
				s.Errors = append(s.Errors, batch.RecordError{
					Row:   rec.Row,
					ID:    rec.ID.String(),
					Name:  rec.Name.String(),
					Error: err.Error(),
				})
			})
		},
		Progress: func(processed, total int) {
			h.sessionStore.Update(sessionID, func(s *models.Session) {
				s.Progress = models.Progress{Processed: processed, Total: total}
			})
		},
		Pause: func(processed int, delay time.Duration) {
			notice := batch.PauseNotice(processed, delay)
			slog.Info(notice, "session_id", sessionID)
			h.sessionStore.Update(sessionID, func(s *models.Session) {
				s.Warnings = append(s.Warnings, notice)
			})
		},
	}

	result, err := h.pipeline.Run(h.ctx, records, hooks)

	finished := time.Now()
	h.sessionStore.Update(sessionID, func(s *models.Session) {
		s.FinishedAt = &finished
		s.Result = result
		if err != nil {
			s.Status = models.StatusFailed
			s.Error = err.Error()
			return
		}
		s.Status = models.StatusCompleted
		s.Archive = result.Archive
	})

	if err != nil {
		slog.Error("Run failed", "session_id", sessionID, "err", err)
		return
	}
	slog.Info("Run finished", "session_id", sessionID, "stored", result.Stored, "missed", result.Missed, "failed", result.Failed)
}
