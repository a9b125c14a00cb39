package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lazypower/takenote/internal/notebook"
	"github.com/lazypower/takenote/internal/query"
)

const (
	maxPatchSize  = 8 << 20
	maxUploadSize = 64 << 20
)

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := query.ParseFilter(q.Get("filter"), q.Get("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	notes, err := s.reader.ListNotes(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	notes = query.PinnedFirst(query.Search(notes, q.Get("q")))
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FolderID string `json:"folderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	n, err := s.notebook.CreateNote(r.Context(), req.FolderID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	n, err := s.reader.GetNote(r.Context(), chi.URLParam(r, "noteID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if n == nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPatchSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body failed")
		return
	}
	patch, err := notebook.DecodePatch(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	n, err := s.notebook.UpdateNote(r.Context(), chi.URLParam(r, "noteID"), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.notebook.DeleteNote(r.Context(), chi.URLParam(r, "noteID")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNoteTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.reader.GetTagsForNote(r.Context(), chi.URLParam(r, "noteID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleAddTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	tag, err := s.notebook.AddTagToNote(r.Context(), chi.URLParam(r, "noteID"), req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (s *Server) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	err := s.notebook.RemoveTagFromNote(r.Context(), chi.URLParam(r, "noteID"), chi.URLParam(r, "tagID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNoteAttachments(w http.ResponseWriter, r *http.Request) {
	atts, err := s.reader.GetAttachmentsForNote(r.Context(), chi.URLParam(r, "noteID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, atts)
}

func (s *Server) handleAddAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload failed")
		return
	}

	a, err := s.notebook.AddAttachment(r.Context(), chi.URLParam(r, "noteID"),
		data, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleGetAttachment(w http.ResponseWriter, r *http.Request) {
	a, err := s.reader.GetAttachment(r.Context(), chi.URLParam(r, "attachmentID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "attachment not found")
		return
	}

	etag := `"` + a.Checksum + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", a.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": a.FileName}))
	w.Write(a.Data)
}

func (s *Server) handleRemoveAttachment(w http.ResponseWriter, r *http.Request) {
	if err := s.notebook.RemoveAttachment(r.Context(), chi.URLParam(r, "attachmentID")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
