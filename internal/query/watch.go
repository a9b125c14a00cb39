package query

import (
	"context"

	"github.com/lazypower/takenote/internal/store"
)

// Watch emits the current result of f and then a freshly queried result
// after every committed change to a table f depends on. Only the latest
// result is kept for a slow receiver. The channel closes when ctx is done.
func (r *Reader) Watch(ctx context.Context, f Filter) <-chan []store.Note {
	out := make(chan []store.Note, 1)
	changes, cancel := r.db.Subscribe(f.Tables()...)

	go func() {
		defer close(out)
		defer cancel()

		emit := func() {
			notes, err := r.ListNotes(ctx, f)
			if err != nil {
				if ctx.Err() == nil {
					r.log.Warn().Err(err).Str("filter", f.String()).Msg("watch re-query failed")
				}
				return
			}
			select {
			case <-out:
			default:
			}
			out <- notes
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				emit()
			}
		}
	}()

	return out
}
