package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// DecodePatch parses a JSON note update. The keys follow the note's wire
// form; "id" and "createdAt" fail with ErrImmutableField, "updatedAt" is
// ignored because the service stamps it, and a null "folderId" unfiles the
// note.
func DecodePatch(data []byte) (NotePatch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return NotePatch{}, fmt.Errorf("%w: decode patch: %v", ErrInvalid, err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var p NotePatch
	for _, key := range keys {
		val := raw[key]
		var err error
		switch key {
		case "id", "createdAt":
			return NotePatch{}, fmt.Errorf("%w: %s", ErrImmutableField, key)
		case "updatedAt":
			continue
		case "title":
			p.Title, err = decodeField[string](val)
		case "content_md":
			p.ContentMD, err = decodeField[string](val)
		case "isPinned":
			p.IsPinned, err = decodeField[bool](val)
		case "isStarred":
			p.IsStarred, err = decodeField[bool](val)
		case "folderId":
			if bytes.Equal(bytes.TrimSpace(val), []byte("null")) {
				unfiled := ""
				p.FolderID = &unfiled
				continue
			}
			p.FolderID, err = decodeField[string](val)
		default:
			return NotePatch{}, fmt.Errorf("%w: unknown field %q", ErrInvalid, key)
		}
		if err != nil {
			return NotePatch{}, fmt.Errorf("%w: field %s: %v", ErrInvalid, key, err)
		}
	}
	return p, nil
}

func decodeField[T any](raw json.RawMessage) (*T, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("null not allowed")
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
