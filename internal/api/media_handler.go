package api

import (
	"net/http"
)

// mediaHandler streams the session's source file from the local cache,
// downloading it on first use. Range requests let a player seek.
func mediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Media == nil {
			WriteError(w, http.StatusNotImplemented, "media cache is not configured", "NOT_IMPLEMENTED")
			return
		}
		s, ok := sessionFrom(cfg, w, r)
		if !ok {
			return
		}

		path, err := cfg.Media.Fetch(r.Context(), s.FileID, s.FileName)
		if err != nil {
			cfg.Logger.Error("failed to fetch media", "file_id", s.FileID, "error", err)
			writeDomainError(w, err)
			return
		}

		if err := cfg.Media.Serve(w, r, path); err != nil {
			cfg.Logger.Error("failed to serve media", "file_id", s.FileID, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to serve media", "INTERNAL_ERROR")
		}
	}
}
