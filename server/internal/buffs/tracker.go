package buffs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/embermeter/embermeter/pkg/types"
)

// ActiveBuff is one unexpired buff in the active projection.
type ActiveBuff struct {
	BuffUUID       int32 `json:"buffUuid"`
	BaseID         int32 `json:"baseId"`
	Layer          int32 `json:"layer"`
	DurationMs     int32 `json:"durationMs"`
	CreateTimeMs   int64 `json:"createTimeMs"`
	RemainingMs    int64 `json:"remainingMs"`
	SourceConfigID int32 `json:"sourceConfigId"`

	seq uint64 // merge order, used as the unprioritized tie-break
}

// observation is the stored latest state for one base id.
type observation struct {
	state types.BuffUpdateState
	seq   uint64
}

// Tracker owns the latest-observation-per-id map. Merge is the single
// writer entry point; Active and projections are readers. Safe for
// concurrent use.
type Tracker struct {
	mu     sync.RWMutex
	latest map[int32]observation
	seq    uint64
	now    func() time.Time // injectable for deterministic tests
}

// NewTracker returns a ready-to-use Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		latest: make(map[int32]observation),
		now:    time.Now,
	}
}

// Merge folds a batch of observations into the tracker. For each base id
// only the observation with the strictly greatest createTimeMs is
// retained; older or equal timestamps are discarded, which makes the merge
// idempotent and insensitive to batch reordering or redelivery.
func (t *Tracker) Merge(batch []types.BuffUpdateState) {
	if len(batch) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, b := range batch {
		prev, ok := t.latest[b.BaseID]
		if ok && b.CreateTimeMs <= prev.state.CreateTimeMs {
			continue
		}
		t.seq++
		t.latest[b.BaseID] = observation{state: b, seq: t.seq}
	}
}

// Active returns the unexpired projection at nowMs: every retained
// observation with durationMs > 0 and createTimeMs+durationMs > nowMs.
// Expired observations stay in the backing map and simply drop out of the
// projection until a newer observation arrives.
func (t *Tracker) Active(nowMs int64) []ActiveBuff {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ActiveBuff, 0, len(t.latest))
	for _, obs := range t.latest {
		s := obs.state
		if s.DurationMs <= 0 {
			continue
		}
		remaining := s.CreateTimeMs + int64(s.DurationMs) - nowMs
		if remaining <= 0 {
			continue
		}
		out = append(out, ActiveBuff{
			BuffUUID:       s.BuffUUID,
			BaseID:         s.BaseID,
			Layer:          s.Layer,
			DurationMs:     s.DurationMs,
			CreateTimeMs:   s.CreateTimeMs,
			RemainingMs:    remaining,
			SourceConfigID: s.SourceConfigID,
			seq:            obs.seq,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Count returns the number of retained observations, expired included.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.latest)
}

// Reset drops all retained observations, e.g. on encounter reset.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest = make(map[int32]observation)
}

// NowMs returns the tracker clock as Unix milliseconds.
func (t *Tracker) NowMs() int64 {
	return t.now().UnixMilli()
}

// Run invokes fn with the current tick time every tick interval until ctx
// is cancelled. No recomputation happens after cancellation.
func (t *Tracker) Run(ctx context.Context, tick time.Duration, fn func(nowMs int64)) {
	tk := time.NewTicker(tick)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			fn(t.NowMs())
		}
	}
}
