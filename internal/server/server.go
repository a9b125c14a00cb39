package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lazypower/takenote/internal/backup"
	"github.com/lazypower/takenote/internal/notebook"
	"github.com/lazypower/takenote/internal/query"
	"github.com/lazypower/takenote/internal/settings"
	"github.com/lazypower/takenote/internal/store"
	"github.com/rs/zerolog"
)

// Options configures a Server beyond its store.
type Options struct {
	Version     string
	UIDir       string   // static editor build; empty disables the UI
	CORSOrigins []string // empty disables CORS headers
	Logger      zerolog.Logger
}

// Server is the takenote HTTP API server.
type Server struct {
	db       *store.DB
	reader   *query.Reader
	notebook *notebook.Service
	settings *settings.Store
	backup   *backup.Codec
	log      zerolog.Logger

	router  chi.Router
	version string
	started time.Time
	opts    Options
}

// New creates a Server over db. prefs must already be loaded.
func New(db *store.DB, prefs *settings.Store, opts Options) *Server {
	log := opts.Logger.With().Str("component", "server").Logger()
	s := &Server{
		db:       db,
		reader:   query.New(db, opts.Logger),
		notebook: notebook.New(db, opts.Logger),
		settings: prefs,
		backup:   backup.New(db, opts.Logger),
		log:      log,
		version:  opts.Version,
		started:  time.Now(),
		opts:     opts,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(corsHandler(s.opts.CORSOrigins))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", s.handleListNotes)
			r.Post("/", s.handleCreateNote)
			r.Route("/{noteID}", func(r chi.Router) {
				r.Get("/", s.handleGetNote)
				r.Patch("/", s.handleUpdateNote)
				r.Delete("/", s.handleDeleteNote)

				r.Get("/tags", s.handleNoteTags)
				r.Post("/tags", s.handleAddTag)
				r.Delete("/tags/{tagID}", s.handleRemoveTag)

				r.Get("/attachments", s.handleNoteAttachments)
				r.Post("/attachments", s.handleAddAttachment)
			})
		})

		r.Get("/attachments/{attachmentID}", s.handleGetAttachment)
		r.Delete("/attachments/{attachmentID}", s.handleRemoveAttachment)

		r.Get("/folders", s.handleListFolders)
		r.Post("/folders", s.handleCreateFolder)
		r.Delete("/folders/{folderID}", s.handleDeleteFolder)

		r.Get("/tags", s.handleListTags)

		r.Get("/settings", s.handleAllSettings)
		r.Get("/settings/{key}", s.handleGetSetting)
		r.Put("/settings/{key}", s.handleSetSetting)

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)

		r.Get("/events", s.handleEvents)
	})

	if s.opts.UIDir != "" {
		r.Handle("/*", spaHandler(s.opts.UIDir))
	}

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.PingContext(r.Context()); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
		"changes": s.db.Version(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps an error from the layers below onto a status code.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, status, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, notebook.ErrInvalid), errors.Is(err, notebook.ErrImmutableField),
		errors.Is(err, settings.ErrEmptyKey):
		return http.StatusBadRequest
	case errors.Is(err, backup.ErrNotConfirmed):
		return http.StatusPreconditionFailed
	case errors.Is(err, backup.ErrFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrConstraintViolation):
		return http.StatusConflict
	case errors.Is(err, store.ErrIO):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
