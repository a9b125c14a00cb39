package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lazypower/takenote/internal/settings"
)

func (s *Server) handleAllSettings(w http.ResponseWriter, r *http.Request) {
	all, err := s.settings.All(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	v, ok, err := s.settings.Get(r.Context(), key)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		def, known := settings.Defaults[key]
		if !known {
			writeError(w, http.StatusNotFound, "setting not found")
			return
		}
		v = def
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "value": v, "set": ok})
}

func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req struct {
		Value *string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == nil {
		writeError(w, http.StatusBadRequest, "value required")
		return
	}

	if err := s.settings.Set(r.Context(), key, *req.Value); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "value": *req.Value, "set": true})
}
