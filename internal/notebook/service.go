// Package notebook performs every write to the note store. Writes that span
// several tables run in one store transaction, so a failure leaves the store
// exactly as it was.
package notebook

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lazypower/takenote/internal/store"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when a write names a note that does not exist.
	ErrNotFound = store.ErrNotFound

	// ErrInvalid is returned for input no row may hold, such as a blank
	// folder or tag name.
	ErrInvalid = errors.New("invalid input")

	// ErrImmutableField is returned by DecodePatch for fields a note update
	// may not change.
	ErrImmutableField = errors.New("immutable field")
)

// DefaultNoteTitle is the title of a freshly created note.
const DefaultNoteTitle = "Untitled Note"

// Service is the write surface over a store.
type Service struct {
	db    *store.DB
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

// New returns a Service writing to db.
func New(db *store.DB, log zerolog.Logger) *Service {
	return &Service{
		db:    db,
		log:   log.With().Str("component", "notebook").Logger(),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func (s *Service) nowMillis() int64 {
	return s.now().UnixMilli()
}
