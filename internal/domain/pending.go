package domain

import (
	"container/list"
	"time"

	m "github.com/BurtTheCoder/bouncer/internal/model"
)

// PendingChange is the latest unsettled change recorded for a path. It is
// owned exclusively by the PendingChangeStore and overwritten, not merged,
// on repeated notifications.
type PendingChange struct {
	Path     m.Path
	Kind     m.ChangeKind
	LastSeen time.Time

	// Attempts counts failed enqueue attempts after debounce promotion.
	// Managed by the watcher's backpressure retry policy.
	Attempts int
}

// PendingChangeStore is an insertion-ordered map from path to its latest
// change record. Updating a path moves it to the most-recently-updated end,
// so list order is always least-recently-updated first; eviction and
// debounce promotion both consume from that end.
//
// The store is not internally synchronized: the watcher owns it and guards
// every access with a single mutex.
type PendingChangeStore struct {
	capacity int
	order    *list.List // of *PendingChange, oldest first
	index    map[m.Path]*list.Element
	evicted  uint64
}

// NewPendingChangeStore creates a store holding at most capacity entries.
func NewPendingChangeStore(capacity int) *PendingChangeStore {
	return &PendingChangeStore{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[m.Path]*list.Element),
	}
}

// Upsert records a change for path. An existing record is overwritten and
// moved to the most-recently-updated position, resetting its debounce
// clock. Inserting a new path at the capacity ceiling first sheds the
// oldest max(1, capacity/10) records so the store stays available for new
// writes under sustained overload.
func (s *PendingChangeStore) Upsert(path m.Path, kind m.ChangeKind, ts time.Time) {
	if elem, ok := s.index[path]; ok {
		rec := elem.Value.(*PendingChange)
		rec.Kind = kind
		rec.LastSeen = ts
		rec.Attempts = 0
		s.order.MoveToBack(elem)

		return
	}

	s.evictForHeadroom()

	rec := &PendingChange{Path: path, Kind: kind, LastSeen: ts}
	s.index[path] = s.order.PushBack(rec)
}

// Restore puts a previously drained record back, preserving its timestamp
// and attempt count, so a change that could not be enqueued is retried on
// the next poll cycle. If a newer notification arrived for the same path in
// the meantime, the newer record wins and the stale one is discarded.
func (s *PendingChangeStore) Restore(rec *PendingChange) {
	if _, ok := s.index[rec.Path]; ok {
		return
	}

	s.evictForHeadroom()

	// The restored record is the least-recently-updated entry by
	// construction; the front keeps drain order intact.
	s.index[rec.Path] = s.order.PushFront(rec)
}

// DrainReady removes and returns, oldest-first, every record whose last
// notification is at least delay old. Records still inside their debounce
// window stay untouched.
func (s *PendingChangeStore) DrainReady(now time.Time, delay time.Duration) []*PendingChange {
	var ready []*PendingChange

	for elem := s.order.Front(); elem != nil; {
		next := elem.Next()
		rec := elem.Value.(*PendingChange)

		if now.Sub(rec.LastSeen) >= delay {
			s.order.Remove(elem)
			delete(s.index, rec.Path)
			ready = append(ready, rec)
		}

		elem = next
	}

	return ready
}

// Len returns the number of pending records.
func (s *PendingChangeStore) Len() int {
	return s.order.Len()
}

// Evicted returns how many records overflow eviction has shed.
func (s *PendingChangeStore) Evicted() uint64 {
	return s.evicted
}

// evictForHeadroom sheds the oldest records when the next insert would fill
// the store to its ceiling, keeping headroom so writes never stall.
func (s *PendingChangeStore) evictForHeadroom() {
	if s.capacity <= 0 || s.order.Len()+1 < s.capacity {
		return
	}

	count := s.capacity / 10
	if count < 1 {
		count = 1
	}

	for i := 0; i < count && s.order.Len() > 0; i++ {
		oldest := s.order.Front()
		rec := oldest.Value.(*PendingChange)
		s.order.Remove(oldest)
		delete(s.index, rec.Path)
		s.evicted++
	}
}
