package store

import "sync"

// Change describes one committed transaction.
type Change struct {
	Version uint64  `json:"version"`
	Tables  []Table `json:"tables"`
}

type subscriber struct {
	tables map[Table]bool // empty means every table
	ch     chan Change
}

func (s *subscriber) wants(tables []Table) bool {
	if len(s.tables) == 0 {
		return true
	}
	for _, t := range tables {
		if s.tables[t] {
			return true
		}
	}
	return false
}

// feed fans committed changes out to subscribers and keeps a global and a
// per-table version counter that readers can poll instead of subscribing.
type feed struct {
	mu      sync.Mutex
	version uint64
	tables  map[Table]uint64
	subs    map[*subscriber]struct{}
}

func newFeed() *feed {
	return &feed{
		tables: make(map[Table]uint64),
		subs:   make(map[*subscriber]struct{}),
	}
}

func (f *feed) publish(tables []Table) {
	if len(tables) == 0 {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.version++
	for _, t := range tables {
		f.tables[t] = f.version
	}
	change := Change{Version: f.version, Tables: tables}

	for sub := range f.subs {
		if !sub.wants(tables) {
			continue
		}
		// Subscribers re-query on every change, so a slow reader only
		// needs the latest one.
		select {
		case sub.ch <- change:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- change:
			default:
			}
		}
	}
}

// Subscribe registers interest in commits touching any of tables (every
// table when none are given). The returned cancel func unregisters and
// closes the channel.
func (db *DB) Subscribe(tables ...Table) (<-chan Change, func()) {
	sub := &subscriber{
		tables: make(map[Table]bool, len(tables)),
		ch:     make(chan Change, 1),
	}
	for _, t := range tables {
		sub.tables[t] = true
	}

	db.feed.mu.Lock()
	db.feed.subs[sub] = struct{}{}
	db.feed.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			db.feed.mu.Lock()
			delete(db.feed.subs, sub)
			close(sub.ch)
			db.feed.mu.Unlock()
		})
	}
	return sub.ch, cancel
}

// Version returns the number of committed writing transactions since open.
func (db *DB) Version() uint64 {
	db.feed.mu.Lock()
	defer db.feed.mu.Unlock()
	return db.feed.version
}

// TableVersion returns the global version at which table was last written,
// or 0 if it has not been written since open.
func (db *DB) TableVersion(table Table) uint64 {
	db.feed.mu.Lock()
	defer db.feed.mu.Unlock()
	return db.feed.tables[table]
}
