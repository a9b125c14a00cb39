package backup

import (
	"errors"
	"time"

	"github.com/lazypower/takenote/internal/store"
)

const (
	// ManifestName is the archive entry holding every row except payloads.
	ManifestName = "export.json"

	// AttachmentDir prefixes the raw payload entry of each attachment.
	AttachmentDir = "attachments/"

	// Extension marks archives as takenote backups. The container is a
	// plain zip.
	Extension = ".qnote"
)

var (
	// ErrFormat is returned for archives that cannot be read: not a zip,
	// no manifest, malformed JSON or an unreadable entry.
	ErrFormat = errors.New("invalid backup archive")

	// ErrNotConfirmed is returned when Import is called without the
	// caller's confirmation.
	ErrNotConfirmed = errors.New("import not confirmed")
)

// manifest is the JSON document stored as export.json.
type manifest struct {
	Notes       []store.Note     `json:"notes"`
	Folders     []store.Folder   `json:"folders"`
	Tags        []store.Tag      `json:"tags"`
	NoteTags    []store.NoteTag  `json:"noteTags"`
	Settings    []store.Setting  `json:"settings"`
	Attachments []attachmentMeta `json:"attachments"`
}

// attachmentMeta is an attachment without its payload. FilePath is always
// written empty.
type attachmentMeta struct {
	ID        string `json:"id"`
	NoteID    string `json:"noteId"`
	FileName  string `json:"fileName"`
	FilePath  string `json:"filePath"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

// Stats counts the rows written to or read from an archive. On import,
// Dropped counts attachments and links that could not be restored and
// Unfiled counts notes whose folder was missing from the archive.
type Stats struct {
	Notes       int `json:"notes"`
	Folders     int `json:"folders"`
	Tags        int `json:"tags"`
	NoteTags    int `json:"noteTags"`
	Settings    int `json:"settings"`
	Attachments int `json:"attachments"`
	Dropped     int `json:"dropped"`
	Unfiled     int `json:"unfiled"`
}

// FileName returns the archive name for a backup taken at t.
func FileName(t time.Time) string {
	return "takenote_backup_" + t.Format("2006-01-02") + Extension
}
