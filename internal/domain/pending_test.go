package domain

import (
	"fmt"
	"testing"
	"time"

	m "github.com/BurtTheCoder/bouncer/internal/model"
)

func TestPendingChangeStoreOrder(t *testing.T) {
	t.Run("preserves insertion order", func(t *testing.T) {
		store := NewPendingChangeStore(100)
		base := time.Now()

		store.Upsert("/a", m.Created, base)
		store.Upsert("/b", m.Created, base)
		store.Upsert("/c", m.Created, base)

		ready := store.DrainReady(base.Add(time.Minute), time.Second)
		if len(ready) != 3 {
			t.Fatalf("expected 3 ready records, got %d", len(ready))
		}

		want := []m.Path{"/a", "/b", "/c"}
		for i, rec := range ready {
			if rec.Path != want[i] {
				t.Errorf("ready[%d] = %s, want %s", i, rec.Path, want[i])
			}
		}
	})

	t.Run("update moves path to the end", func(t *testing.T) {
		store := NewPendingChangeStore(100)
		base := time.Now()

		store.Upsert("/a", m.Created, base)
		store.Upsert("/b", m.Created, base)
		store.Upsert("/a", m.Modified, base.Add(time.Millisecond))

		ready := store.DrainReady(base.Add(time.Minute), time.Second)
		if len(ready) != 2 {
			t.Fatalf("expected 2 ready records, got %d", len(ready))
		}

		if ready[0].Path != "/b" || ready[1].Path != "/a" {
			t.Errorf("expected drain order /b, /a; got %s, %s", ready[0].Path, ready[1].Path)
		}
	})

	t.Run("latest notification wins", func(t *testing.T) {
		store := NewPendingChangeStore(100)
		base := time.Now()

		store.Upsert("/a", m.Created, base)
		store.Upsert("/a", m.Deleted, base.Add(time.Millisecond))

		if store.Len() != 1 {
			t.Fatalf("expected 1 record after repeated upserts, got %d", store.Len())
		}

		ready := store.DrainReady(base.Add(time.Minute), time.Second)
		if ready[0].Kind != m.Deleted {
			t.Errorf("expected last observed kind deleted, got %s", ready[0].Kind)
		}
	})
}

func TestPendingChangeStoreDrainTiming(t *testing.T) {
	store := NewPendingChangeStore(100)
	now := time.Now()
	delay := 2 * time.Second

	store.Upsert("/old", m.Modified, now.Add(-3*time.Second))
	store.Upsert("/fresh", m.Modified, now.Add(-time.Second))

	ready := store.DrainReady(now, delay)
	if len(ready) != 1 || ready[0].Path != "/old" {
		t.Fatalf("expected only /old to be ready, got %v", ready)
	}

	// A drained record is removed; draining again returns nothing.
	if again := store.DrainReady(now, delay); len(again) != 0 {
		t.Errorf("expected no records on second drain, got %d", len(again))
	}

	if store.Len() != 1 {
		t.Errorf("fresh record must remain in the store, len = %d", store.Len())
	}
}

func TestPendingChangeStoreEviction(t *testing.T) {
	store := NewPendingChangeStore(10)
	base := time.Now()

	for i := 0; i < 11; i++ {
		store.Upsert(m.Path(fmt.Sprintf("/file%d.py", i)), m.Created, base.Add(time.Duration(i)))
	}

	if store.Len() > 9 {
		t.Fatalf("expected at most 9 entries after overflow, got %d", store.Len())
	}

	if store.Evicted() == 0 {
		t.Errorf("expected eviction counter to advance")
	}

	// Least-recently-updated entries go first.
	ready := store.DrainReady(base.Add(time.Minute), time.Second)
	for _, rec := range ready {
		if rec.Path == "/file0.py" {
			t.Errorf("expected /file0.py to have been evicted")
		}
	}
}

func TestPendingChangeStoreEvictionUsesUpdateOrder(t *testing.T) {
	store := NewPendingChangeStore(10)
	base := time.Now()

	for i := 0; i < 9; i++ {
		store.Upsert(m.Path(fmt.Sprintf("/file%d.py", i)), m.Created, base)
	}

	// Touch the oldest entry so /file1.py becomes least-recently-updated.
	store.Upsert("/file0.py", m.Modified, base.Add(time.Second))

	store.Upsert("/new.py", m.Created, base.Add(2*time.Second))

	ready := store.DrainReady(base.Add(time.Minute), time.Second)

	seen := map[m.Path]bool{}
	for _, rec := range ready {
		seen[rec.Path] = true
	}

	if seen["/file1.py"] {
		t.Errorf("expected least-recently-updated /file1.py to be evicted")
	}

	if !seen["/file0.py"] {
		t.Errorf("recently updated /file0.py must survive eviction")
	}
}

func TestPendingChangeStoreRestore(t *testing.T) {
	store := NewPendingChangeStore(100)
	base := time.Now()

	store.Upsert("/a", m.Modified, base.Add(-3*time.Second))
	ready := store.DrainReady(base, 2*time.Second)
	if len(ready) != 1 {
		t.Fatalf("expected 1 ready record, got %d", len(ready))
	}

	rec := ready[0]
	rec.Attempts++
	store.Restore(rec)

	again := store.DrainReady(base, 2*time.Second)
	if len(again) != 1 || again[0].Attempts != 1 {
		t.Fatalf("restored record must keep its timestamp and attempts, got %v", again)
	}

	// A newer notification beats a stale restore.
	store.Upsert("/a", m.Deleted, base)
	store.Restore(rec)

	if store.Len() != 1 {
		t.Fatalf("expected newer record to win, len = %d", store.Len())
	}

	final := store.DrainReady(base.Add(time.Minute), time.Second)
	if final[0].Kind != m.Deleted {
		t.Errorf("expected the newer record to survive, got kind %s", final[0].Kind)
	}
}
