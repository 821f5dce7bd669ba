package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"design-drop/internal/archive"
	"design-drop/internal/logging"
	"design-drop/internal/model"
)

// State is a step of the upload pipeline. A request moves through the
// states in order; any failure after Received ends it in Failed.
type State string

const (
	StateStarted   State = "started"
	StateReceived  State = "received"
	StateArchived  State = "archived"
	StateLogged    State = "logged"
	StateNotified  State = "notified"
	StateResponded State = "responded"
	StateFailed    State = "failed"
)

// Notifier sends the emails for an accepted submission.
type Notifier interface {
	Notify(ctx context.Context, sub model.Submission, zip []byte, preview *model.UploadedFile) error
}

type uploadResp struct {
	Message string `json:"message"`
}

// handleUpload serves POST /upload: receive, archive, log, notify, respond.
// No step is retried and nothing is rolled back; a record that was logged
// stays logged even when the emails fail.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lg := logging.Default().With(map[string]any{"request_id": RequestIDFromContext(r.Context())})

	sub, err := s.process(w, r, lg)
	if err != nil {
		state, kind := StateFailed, ErrorKind("")
		var pe *PipelineError
		if errors.As(err, &pe) {
			state, kind = pe.State, pe.Kind
		}
		if kind.Status() >= http.StatusInternalServerError {
			lg.Error("upload failed", map[string]any{"state": string(state), "kind": string(kind)}, err)
		} else {
			lg.Warn("upload rejected", map[string]any{"state": string(state), "kind": string(kind), "error": err.Error()})
		}
		submissionsTotal.WithLabelValues("failed", string(state)).Inc()
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResp{Message: "Emails sent!"})
	submissionsTotal.WithLabelValues("ok", string(StateResponded)).Inc()
	uploadDuration.Observe(time.Since(start).Seconds())
	lg.Info("upload responded", map[string]any{
		"state":       string(StateResponded),
		"file_count":  sub.FileCount,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func (s *Server) process(w http.ResponseWriter, r *http.Request, lg *logging.Logger) (model.Submission, error) {
	up, err := receiveUpload(w, r, s.cfg.Upload)
	if err != nil {
		return model.Submission{}, err
	}

	now := s.clock.Now()
	sub := model.Submission{
		Name:      up.Name,
		Email:     up.Email,
		IP:        getClientIP(r),
		Timestamp: model.FormatTimestamp(now),
		FileCount: len(up.Files),
	}
	uploadBytes.Observe(float64(model.TotalSize(up.Files)))
	lg.Info("upload received", map[string]any{
		"state":      string(StateReceived),
		"file_count": sub.FileCount,
		"bytes":      model.TotalSize(up.Files),
		"ip":         sub.IP,
	})

	zip, err := archive.Build(up.Files, now)
	if err != nil {
		return sub, pipelineErr(ArchiveBuildFailure, StateReceived, err)
	}
	archiveBytes.Observe(float64(len(zip)))
	lg.Info("archive built", map[string]any{"state": string(StateArchived), "name": archive.Name(sub.Timestamp), "bytes": len(zip)})

	// Once the files are in hand the request runs to completion even if the
	// client goes away.
	ctx := context.WithoutCancel(r.Context())

	if err := s.store.Append(ctx, sub.Record()); err != nil {
		return sub, pipelineErr(LogStoreFailure, StateArchived, err)
	}
	lg.Info("submission logged", map[string]any{"state": string(StateLogged), "timestamp": sub.Timestamp})

	var preview *model.UploadedFile
	if img, ok := model.FirstImage(up.Files); ok {
		preview = &img
	}
	if err := s.notifier.Notify(ctx, sub, zip, preview); err != nil {
		return sub, pipelineErr(NotificationDispatchFailure, StateLogged, err)
	}
	lg.Info("emails sent", map[string]any{"state": string(StateNotified), "preview": preview != nil})

	return sub, nil
}
