package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bunpeg/bunpeg-editor/internal/editor"
	"github.com/bunpeg/bunpeg-editor/internal/session"
	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

func openSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OpenSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.FileID == "" {
			WriteError(w, http.StatusBadRequest, "file_id is required", "BAD_REQUEST")
			return
		}

		track := timeline.Bounds{Left: req.TrackLeft, Width: req.TrackWidth}
		s, err := cfg.Sessions.Open(r.Context(), req.FileID, req.Tool, track)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		WriteJSON(w, http.StatusCreated, s.Snapshot())
	}
}

func sessionFrom(cfg ServerConfig, w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := cfg.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return s, true
}

func getSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFrom(cfg, w, r)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, s.Snapshot())
	}
}

func closeSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Sessions.Close(chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func pointerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFrom(cfg, w, r)
		if !ok {
			return
		}

		var req PointerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var outcome editor.Outcome
		err := s.Do(func(e *editor.Editor) error {
			if req.TrackWidth > 0 {
				e.SetTrack(timeline.Bounds{Left: req.TrackLeft, Width: req.TrackWidth})
			}
			switch req.Type {
			case "down":
				target, err := editor.ParseTarget(req.Target, req.SegmentID)
				if err != nil {
					return err
				}
				outcome = e.PointerDown(req.X, target)
			case "move":
				outcome = e.PointerMove(req.X)
			case "up":
				outcome = e.PointerUp(req.X)
			case "leave":
				outcome = e.PointerLeave()
			case "click":
				outcome = e.Click(req.X)
			case "hover":
				e.Hover(req.SegmentID)
			default:
				return fmt.Errorf("unknown pointer event %q", req.Type)
			}
			return nil
		})
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, EventResponse{Outcome: OutcomeToResponse(outcome), Session: s.Snapshot()})
	}
}

func keyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFrom(cfg, w, r)
		if !ok {
			return
		}

		var req KeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var outcome editor.Outcome
		s.Do(func(e *editor.Editor) error {
			if req.TextFocus != nil {
				e.SetTextFocus(*req.TextFocus)
			}
			if req.Key != "" {
				outcome = e.Key(req.Key)
			}
			return nil
		})

		WriteJSON(w, http.StatusOK, EventResponse{Outcome: OutcomeToResponse(outcome), Session: s.Snapshot()})
	}
}

func createSegmentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFrom(cfg, w, r)
		if !ok {
			return
		}

		var req CreateSegmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var seg timeline.TimeRange
		err := s.Do(func(e *editor.Editor) (err error) {
			seg, err = e.CreateSegment(req.Start, req.End)
			return err
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		WriteJSON(w, http.StatusCreated, seg)
	}
}

func updateSegmentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFrom(cfg, w, r)
		if !ok {
			return
		}

		var req UpdateSegmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Start == nil && req.End == nil {
			WriteError(w, http.StatusBadRequest, "start or end is required", "BAD_REQUEST")
			return
		}

		var seg timeline.TimeRange
		err := s.Do(func(e *editor.Editor) (err error) {
			seg, err = e.ResizeSegment(chi.URLParam(r, "segID"), req.Start, req.End)
			return err
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, seg)
	}
}

func deleteSegmentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFrom(cfg, w, r)
		if !ok {
			return
		}

		var outcome editor.Outcome
		s.Do(func(e *editor.Editor) error {
			outcome = e.RemoveSegment(chi.URLParam(r, "segID"))
			return nil
		})
		if outcome.Kind != editor.OutcomeRemoved {
			writeDomainError(w, timeline.ErrSegmentNotFound)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func submitHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := cfg.Sessions.Submit(chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, SubmissionToResponse(sub, cfg.Client.OutputURL))
	}
}

func listSubmissionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFrom(cfg, w, r)
		if !ok {
			return
		}

		subs, err := cfg.Repository.ListSubmissions(r.Context(), s.FileID, 20)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		resp := make([]SubmissionResponse, len(subs))
		for i, sub := range subs {
			resp[i] = SubmissionToResponse(sub, cfg.Client.OutputURL)
		}
		WriteJSON(w, http.StatusOK, map[string]any{"submissions": resp})
	}
}
