package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bunpeg/bunpeg-editor/internal/bunpeg"
	"github.com/bunpeg/bunpeg-editor/internal/session"
	"github.com/bunpeg/bunpeg-editor/internal/store"
	"github.com/bunpeg/bunpeg-editor/internal/submit"
	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(LoopbackGuard())
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/files", listFilesHandler(cfg))
		r.Delete("/files/{id}", deleteFileHandler(cfg))

		r.Post("/sessions", openSessionHandler(cfg))
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", getSessionHandler(cfg))
			r.Delete("/", closeSessionHandler(cfg))
			r.Post("/pointer", pointerHandler(cfg))
			r.Post("/keys", keyHandler(cfg))
			r.Post("/segments", createSegmentHandler(cfg))
			r.Patch("/segments/{segID}", updateSegmentHandler(cfg))
			r.Delete("/segments/{segID}", deleteSegmentHandler(cfg))
			r.Post("/submit", submitHandler(cfg))
			r.Get("/submissions", listSubmissionsHandler(cfg))
			r.Post("/export", exportHandler(cfg))
			r.Get("/media", mediaHandler(cfg))
		})

		r.Get("/submissions/{id}", getSubmissionHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		sessions := 0
		if cfg.Sessions != nil {
			sessions = len(cfg.Sessions.List())
		}
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			Offline:  cfg.Offline,
			Sessions: sessions,
		})
	}
}

func listFilesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tool := r.URL.Query().Get("tool")
		if tool != "" && !store.ValidTool(tool) {
			WriteError(w, http.StatusBadRequest, "unknown tool", "BAD_REQUEST")
			return
		}

		files, err := cfg.Repository.ListFiles(r.Context(), tool)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list files", "INTERNAL_ERROR")
			return
		}

		resp := FilesResponse{Files: make([]FileResponse, len(files))}
		for i, f := range files {
			resp.Files[i] = FileToResponse(f)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// deleteFileHandler removes the file from the media service and from every
// local list (or just ?tool= when given). A file the service no longer knows
// is still removed locally.
func deleteFileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		tool := r.URL.Query().Get("tool")

		if err := cfg.Client.Delete(r.Context(), id); err != nil && !bunpeg.IsNotFound(err) {
			cfg.Logger.Error("remote delete failed", "file_id", id, "error", err)
			WriteError(w, http.StatusBadGateway, err.Error(), "UPSTREAM_ERROR")
			return
		}

		if err := cfg.Repository.RemoveFile(r.Context(), tool, id); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if cfg.Media != nil {
			if err := cfg.Media.Evict(id); err != nil {
				cfg.Logger.Warn("failed to evict cached media", "file_id", id, "error", err)
			}
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func getSubmissionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		sub, err := cfg.Repository.GetSubmission(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if sub == nil {
			WriteError(w, http.StatusNotFound, "submission not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, SubmissionToResponse(sub, cfg.Client.OutputURL))
	}
}

// writeDomainError maps editor, session and remote errors onto statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var apiErr *bunpeg.APIError
	switch {
	case errors.Is(err, session.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, timeline.ErrSegmentNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "SEGMENT_NOT_FOUND")
	case errors.Is(err, session.ErrUnknownTool):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, session.ErrSubmissionInFlight):
		WriteError(w, http.StatusConflict, err.Error(), "SUBMISSION_IN_FLIGHT")
	case errors.Is(err, timeline.ErrTooShort),
		errors.Is(err, timeline.ErrOverlap),
		errors.Is(err, timeline.ErrNoDuration),
		errors.Is(err, timeline.ErrNothingToDelete),
		errors.Is(err, timeline.ErrCoversWholeFile):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "VALIDATION_FAILED")
	case bunpeg.IsNotFound(err):
		WriteError(w, http.StatusNotFound, session.ErrorMessage(err), "FILE_NOT_FOUND")
	case errors.As(err, &apiErr), errors.Is(err, submit.ErrNoOutput):
		WriteError(w, http.StatusBadGateway, session.ErrorMessage(err), "UPSTREAM_ERROR")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
