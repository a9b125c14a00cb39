package query

import (
	"fmt"

	"github.com/lazypower/takenote/internal/store"
)

// FilterKind selects which notes ListNotes returns.
type FilterKind string

const (
	KindAll     FilterKind = "all"
	KindFolder  FilterKind = "folder"
	KindTag     FilterKind = "tag"
	KindStarred FilterKind = "starred"
)

// Filter is a note list selection. ID names the folder or tag for the
// folder and tag kinds and is ignored otherwise.
type Filter struct {
	Kind FilterKind `json:"type"`
	ID   string     `json:"id,omitempty"`
}

// All, Starred, InFolder and WithTag build the four filters.
func All() Filter { return Filter{Kind: KindAll} }
func Starred() Filter { return Filter{Kind: KindStarred} }
func InFolder(id string) Filter { return Filter{Kind: KindFolder, ID: id} }
func WithTag(id string) Filter { return Filter{Kind: KindTag, ID: id} }

// ParseFilter builds a filter from its wire form. An empty kind means all.
func ParseFilter(kind, id string) (Filter, error) {
	switch FilterKind(kind) {
	case "", KindAll:
		return All(), nil
	case KindStarred:
		return Starred(), nil
	case KindFolder:
		return InFolder(id), nil
	case KindTag:
		return WithTag(id), nil
	}
	return Filter{}, fmt.Errorf("unknown filter %q", kind)
}

// Tables returns the tables whose changes can alter the filter's result.
func (f Filter) Tables() []store.Table {
	if f.Kind == KindTag {
		return []store.Table{store.TableNotes, store.TableNoteTags}
	}
	return []store.Table{store.TableNotes}
}

func (f Filter) String() string {
	if f.ID == "" {
		return string(f.Kind)
	}
	return string(f.Kind) + ":" + f.ID
}
