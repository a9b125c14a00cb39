package query

import (
	"strings"

	"github.com/lazypower/takenote/internal/store"
)

// Search keeps the notes whose title or content contains q, ignoring case.
// A blank query returns notes unchanged. Order is preserved.
func Search(notes []store.Note, q string) []store.Note {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return notes
	}
	out := make([]store.Note, 0, len(notes))
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), q) ||
			strings.Contains(strings.ToLower(n.ContentMD), q) {
			out = append(out, n)
		}
	}
	return out
}

// PinnedFirst moves pinned notes ahead of the rest, keeping the relative
// order inside each group.
func PinnedFirst(notes []store.Note) []store.Note {
	out := make([]store.Note, 0, len(notes))
	for _, n := range notes {
		if n.IsPinned {
			out = append(out, n)
		}
	}
	for _, n := range notes {
		if !n.IsPinned {
			out = append(out, n)
		}
	}
	return out
}
