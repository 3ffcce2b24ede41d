package pathtable

import "sync"

// Table is a concurrency-safe map from path identity to *Record. Table is
// the Go-side analogue of dashmap::DashMap in the original implementation
// and is shaped after the teacher's internal/wireguard.PeerIndex — a
// sync.RWMutex guarding a plain map, with Add/Remove/Lookup-style methods —
// applied here to path records instead of peer public keys.
type Table struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// New returns an empty Table.
func New() *Table {
	return &Table{records: make(map[string]*Record)}
}

// InsertIfAbsent inserts r if no record exists for r.ID. It returns the
// record now stored under that ID (either r, or the pre-existing one) and
// whether the insert happened.
func (t *Table) InsertIfAbsent(r *Record) (stored *Record, inserted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.records[r.ID]; ok {
		return existing, false
	}
	t.records[r.ID] = r
	return r, true
}

// Get returns the record for id, if present.
func (t *Table) Get(id string) (*Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.records[id]
	return r, ok
}

// Remove deletes the record for id, if present, and releases its socket.
// The table lock is held only long enough to remove the map entry; the
// socket close happens afterward, so table iteration never blocks on it.
func (t *Table) Remove(id string) error {
	t.mu.Lock()
	r, ok := t.records[id]
	if ok {
		delete(t.records, id)
	}
	t.mu.Unlock()

	if !ok {
		return nil
	}
	return r.close()
}

// Snapshot returns the set of currently live records. The returned slice is
// a point-in-time copy of the map's values; callers may range over it
// freely while other goroutines concurrently mutate the table.
func (t *Table) Snapshot() []*Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Record, 0, len(t.records))
	for _, r := range t.records {
		out = append(out, r)
	}
	return out
}

// Len returns the number of live records.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Has reports whether id is present in the table.
func (t *Table) Has(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.records[id]
	return ok
}
