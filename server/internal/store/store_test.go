package store

import (
	"sync"
	"testing"
	"time"

	"github.com/embermeter/embermeter/pkg/types"
)

func payload(elapsedMs float64) *types.LiveDataPayload {
	return &types.LiveDataPayload{ElapsedMs: types.Number(elapsedMs)}
}

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestPutAndLive(t *testing.T) {
	st := New(5 * time.Minute)

	if _, ok := st.Live(); ok {
		t.Fatal("Live on empty store: expected false")
	}

	st.Put(payload(1000))
	p, ok := st.Live()
	if !ok {
		t.Fatal("Live: expected snapshot, got none")
	}
	if p.ElapsedMs != 1000 {
		t.Errorf("ElapsedMs: got %v, want 1000", p.ElapsedMs)
	}
}

func TestPut_ReplacesWholesale(t *testing.T) {
	st := New(5 * time.Minute)
	st.Put(payload(1000))
	st.Put(payload(2000))

	p, _ := st.Live()
	if p.ElapsedMs != 2000 {
		t.Errorf("ElapsedMs: got %v, want 2000", p.ElapsedMs)
	}
}

func TestEndEncounter(t *testing.T) {
	st := New(5 * time.Minute)

	if _, ok := st.EndEncounter(); ok {
		t.Fatal("EndEncounter with no live snapshot: expected false")
	}

	st.Put(payload(90000))
	enc, ok := st.EndEncounter()
	if !ok {
		t.Fatal("EndEncounter: expected encounter")
	}
	if enc.DurationMs != 90000 {
		t.Errorf("DurationMs: got %v, want 90000", enc.DurationMs)
	}
	if _, ok := st.Live(); ok {
		t.Error("live snapshot should be cleared after EndEncounter")
	}

	got, ok := st.Encounter(enc.ID)
	if !ok || got.Snapshot.ElapsedMs != 90000 {
		t.Errorf("Encounter(%q) = %+v, %v", enc.ID, got, ok)
	}
}

func TestHistory_NewestFirstAndExcludesStale(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute)) // stale
	st.Put(payload(1000))
	st.EndEncounter()

	st.now = fixedClock(base.Add(-time.Minute))
	st.Put(payload(2000))
	st.EndEncounter()

	st.now = fixedClock(base)
	st.Put(payload(3000))
	st.EndEncounter()

	hist := st.History()
	if len(hist) != 2 {
		t.Fatalf("History: got %d entries, want 2 (stale excluded)", len(hist))
	}
	if hist[0].DurationMs != 3000 || hist[1].DurationMs != 2000 {
		t.Errorf("History order = %v,%v, want newest first", hist[0].DurationMs, hist[1].DurationMs)
	}

	// Count includes the stale entry until eviction.
	if st.Count() != 3 {
		t.Errorf("Count: got %d, want 3", st.Count())
	}
}

func TestEncounter_ByIDExcludesStale(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base)
	st.Put(payload(1000))
	enc, _ := st.EndEncounter()

	if _, ok := st.Encounter(enc.ID); !ok {
		t.Fatalf("Encounter(%s): expected fresh encounter", enc.ID)
	}
	if _, ok := st.Encounter("enc-99"); ok {
		t.Error("Encounter with unknown id: expected false")
	}

	// Past the TTL the encounter is gone by id, even though the eviction
	// loop has not removed it yet.
	st.now = fixedClock(base.Add(6 * time.Minute))
	if _, ok := st.Encounter(enc.ID); ok {
		t.Errorf("Encounter(%s): expected stale encounter to be excluded", enc.ID)
	}
	if st.Count() != 1 {
		t.Errorf("Count: got %d, want 1 (stale entry retained until eviction)", st.Count())
	}
}

func TestEvict_RemovesStale(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.Put(payload(1000))
	st.EndEncounter()
	st.Put(payload(2000))
	st.EndEncounter()

	st.now = fixedClock(base)
	st.Put(payload(3000))
	st.EndEncounter()

	removed := st.Evict(base)
	if removed != 2 {
		t.Errorf("Evict: removed %d, want 2", removed)
	}
	if st.Count() != 1 {
		t.Errorf("Count after evict: got %d, want 1", st.Count())
	}
}

func TestHistory_Bounded(t *testing.T) {
	st := New(time.Hour)
	for i := 0; i < maxHistory+10; i++ {
		st.Put(payload(float64(i)))
		st.EndEncounter()
	}
	if st.Count() != maxHistory {
		t.Errorf("Count: got %d, want %d", st.Count(), maxHistory)
	}
}

func TestConcurrentMixedOps(t *testing.T) {
	st := New(5 * time.Minute)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			st.Put(payload(1000))
		}()
		go func() {
			defer wg.Done()
			st.Live()
		}()
		go func() {
			defer wg.Done()
			st.History()
		}()
	}
	wg.Wait()
}
