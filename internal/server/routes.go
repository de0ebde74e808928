package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/mindmap/internal/canvas"
	"github.com/ziadkadry99/mindmap/internal/prefs"
	"github.com/ziadkadry99/mindmap/internal/render"
	"github.com/ziadkadry99/mindmap/internal/session"
	"github.com/ziadkadry99/mindmap/internal/tree"
	"github.com/ziadkadry99/mindmap/internal/validate"
)

func registerRoutes(r chi.Router, s *Server) {
	r.Get("/api/tools", toolsHandler())
	r.Get("/api/preferences", getPreferencesHandler(s))
	r.Put("/api/preferences", putPreferencesHandler(s))

	r.Get("/api/maps", listMapsHandler(s))
	r.Post("/api/maps", createMapHandler(s))
	r.Get("/api/maps/{id}", getMapHandler(s))
	r.Put("/api/maps/{id}", saveMapHandler(s))
	r.Delete("/api/maps/{id}", deleteMapHandler(s))
	r.Post("/api/maps/{id}/nodes/{nodeID}/expand", expandNodeHandler(s))
	r.Get("/api/maps/{id}/nodes/{nodeID}", nodeDetailHandler(s))
	r.Get("/api/maps/{id}/export", exportHandler(s))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// apiError is the body of every error response.
type apiError struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}

// lookup resolves the {id} URL parameter, writing a 404 when it is unknown.
func lookup(s *Server, w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "map not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("loading map", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return nil, false
	}
	return sess, true
}

func toolsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, canvas.Palette())
	}
}

type createMapRequest struct {
	Query string `json:"query" validate:"required,max=200"`
}

func createMapHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createMapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, tree.ErrorCode(tree.ErrEmptyQuery), err.Error())
			return
		}

		sess, err := s.sessions.Create(r.Context(), req.Query)
		switch {
		case errors.Is(err, tree.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, tree.ErrorCode(err), err.Error())
			return
		case err != nil:
			// The search screen offers a retry.
			writeJSON(w, http.StatusBadGateway, apiError{
				Error:     tree.ErrorCode(err),
				Retryable: true,
			})
			return
		}
		writeJSON(w, http.StatusCreated, sess.View())
	}
}

func listMapsHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maps, err := s.sessions.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		if maps == nil {
			writeJSON(w, http.StatusOK, []any{})
			return
		}
		writeJSON(w, http.StatusOK, maps)
	}
}

func getMapHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookup(s, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, sess.View())
	}
}

func saveMapHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookup(s, w, r)
		if !ok {
			return
		}
		if err := s.sessions.Save(r.Context(), sess.ID); err != nil {
			s.logger.Error("saving map", zap.String("id", sess.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "save_failed", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": sess.ID, "status": "saved"})
	}
}

func deleteMapHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "map not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// expandResponse tells the client what changed and where to scroll.
type expandResponse struct {
	tree.ExpandResult
	Focus string       `json:"focus"`
	Pan   canvas.Point `json:"pan"`
}

func expandNodeHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookup(s, w, r)
		if !ok {
			return
		}
		res, err := sess.Expand(r.Context(), chi.URLParam(r, "nodeID"))
		switch {
		case errors.Is(err, tree.ErrNodeNotFound):
			writeError(w, http.StatusNotFound, "not_found", "node not found")
			return
		case errors.Is(err, tree.ErrSubtopicGeneration):
			// The node is collapsed again; expanding it retries.
			writeJSON(w, http.StatusBadGateway, apiError{
				Error:     "subtopic_generation_failed",
				Message:   err.Error(),
				Retryable: true,
			})
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, expandResponse{
			ExpandResult: res,
			Focus:        sess.Tree().Focus(),
			Pan:          sess.Canvas(nil).Pan,
		})
	}
}

func nodeDetailHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookup(s, w, r)
		if !ok {
			return
		}
		n, err := sess.Tree().Node(chi.URLParam(r, "nodeID"))
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found", "node not found")
			return
		}
		detail, err := tree.NewDetail(n)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func exportHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := lookup(s, w, r)
		if !ok {
			return
		}
		format, err := render.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_format", err.Error())
			return
		}

		var buf bytes.Buffer
		err = sess.Export(r.Context(), format, &buf)
		switch {
		case errors.Is(err, render.ErrExportBusy):
			writeError(w, http.StatusConflict, "export_busy", err.Error())
			return
		case errors.Is(err, render.ErrExportTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "export_too_large", err.Error())
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "export_failed", err.Error())
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sess.FileName(format)))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}

func getPreferencesHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.preferences == nil {
			writeJSON(w, http.StatusOK, prefs.Defaults())
			return
		}
		p, err := prefs.Load(r.Context(), s.preferences)
		if err != nil {
			s.logger.Warn("stored preferences unusable, serving defaults", zap.Error(err))
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func putPreferencesHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.preferences == nil {
			writeError(w, http.StatusNotImplemented, "unavailable", "preferences are not persisted")
			return
		}
		p := prefs.Defaults()
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
			return
		}
		if err := p.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_preferences", err.Error())
			return
		}
		if err := prefs.Save(r.Context(), s.preferences, p); err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
