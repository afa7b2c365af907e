package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bunpeg/bunpeg-editor/internal/export"
	"github.com/bunpeg/bunpeg-editor/internal/submit"
)

// exportHandler writes an EDL of what the session would keep if submitted
// now. Nothing is sent to the media service.
func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFrom(cfg, w, r)
		if !ok {
			return
		}

		var req export.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		snap := s.Snapshot()
		keep, err := submit.Plan(snap.Segments, snap.Duration)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if req.ProjectName == "" {
			req.ProjectName = snap.FileName
		}
		clips := export.ClipsFromKeep(keep, snap.FileName, cfg.Client.OutputURL(snap.FileID))

		resp, err := export.Write(req, clips)
		switch {
		case errors.Is(err, export.ErrOutputDirRequired),
			errors.Is(err, export.ErrOutputDirUnclean),
			errors.Is(err, export.ErrOutputDirMissing),
			errors.Is(err, export.ErrOutputDirNotDir),
			errors.Is(err, export.ErrUnsupportedFormat):
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		case err != nil:
			cfg.Logger.Error("export failed", "session_id", s.ID, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}
