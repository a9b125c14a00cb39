package server

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lazypower/takenote/internal/backup"
)

const maxArchiveSize = 1 << 30

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	// Buffer the archive so a failed export is reported as an error rather
	// than a truncated download.
	var buf bytes.Buffer
	if _, err := s.backup.Export(r.Context(), &buf); err != nil {
		s.fail(w, r, err)
		return
	}

	name := backup.FileName(time.Now())
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// handleImport replaces the store with the uploaded archive. The archive is
// either the raw request body or the multipart field "file".
// ?confirm=true is required.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if !confirmed {
		s.fail(w, r, backup.ErrNotConfirmed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxArchiveSize)
	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "multipart field \"file\" required")
			return
		}
		defer file.Close()
		src = file
	}

	archive, err := io.ReadAll(src)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read archive failed")
		return
	}

	stats, err := s.backup.Import(r.Context(), bytes.NewReader(archive), int64(len(archive)), true)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.settings.Reload(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
