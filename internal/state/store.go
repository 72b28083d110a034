package state

import (
	"fmt"
	"sync"
	"time"

	"kolejka/internal/wsstore"
)

// historyRetention bounds how far back per-matter samples are kept. Charting
// needs at most the last hour.
const historyRetention = time.Hour

// maxHistory caps a matter's history when sample timestamps never parse and
// time-based pruning cannot run.
const maxHistory = 240

// MatterKey identifies one matter's queue across offices.
type MatterKey struct {
	OfficeKey string
	GroupID   int64
}

// Snapshot is the latest data available to consumers.
type Snapshot struct {
	Matters             map[string][]wsstore.Matter // by office key
	History             map[MatterKey][]wsstore.Sample
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline reports whether the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Latest returns the most recent sample for one matter.
func (s Snapshot) Latest(key MatterKey) (wsstore.Sample, bool) {
	history := s.History[key]
	if len(history) == 0 {
		return wsstore.Sample{}, false
	}
	return history[len(history)-1], true
}

// Store coordinates concurrent updates from the poller with readers. The
// zero value is ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records one office's poll cycle. When err is non-nil and no data
// accompanies it, the previous data is kept and only the error is recorded.
// Otherwise the office's matters are replaced and each sample is appended to
// its matter's history, skipping readings the history already ends with
// (re-polls inside the upstream freshness window return the same timestamp).
// Data arriving together with an error is a partial cycle: the data is
// stored and the error stays visible as LastError, but the failure streak
// resets because the upstream answered.
func (s *Store) Update(officeKey string, matters []wsstore.Matter, samples map[int64]wsstore.Sample, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil && matters == nil && len(samples) == 0 {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	if s.snapshot.Matters == nil {
		s.snapshot.Matters = make(map[string][]wsstore.Matter)
	}
	if s.snapshot.History == nil {
		s.snapshot.History = make(map[MatterKey][]wsstore.Sample)
	}

	s.snapshot.Matters[officeKey] = cloneMatters(matters)
	for groupID, sample := range samples {
		key := MatterKey{OfficeKey: officeKey, GroupID: groupID}
		s.snapshot.History[key] = appendSample(s.snapshot.History[key], sample)
	}
	s.snapshot.LastError = err
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot, independent of the
// store's internals.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.Matters != nil {
		snap.Matters = make(map[string][]wsstore.Matter, len(s.snapshot.Matters))
		for key, matters := range s.snapshot.Matters {
			snap.Matters[key] = cloneMatters(matters)
		}
	}
	if s.snapshot.History != nil {
		snap.History = make(map[MatterKey][]wsstore.Sample, len(s.snapshot.History))
		for key, history := range s.snapshot.History {
			dup := make([]wsstore.Sample, len(history))
			copy(dup, history)
			snap.History[key] = dup
		}
	}
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

// appendSample adds sample to history unless it repeats the newest entry's
// timestamp, then prunes entries older than the retention window.
func appendSample(history []wsstore.Sample, sample wsstore.Sample) []wsstore.Sample {
	if n := len(history); n > 0 && history[n-1].Timestamp == sample.Timestamp {
		return history
	}
	history = append(history, sample)

	if at := sample.ParsedTime(); !at.IsZero() {
		cutoff := at.Add(-historyRetention)
		keep := 0
		for keep < len(history)-1 {
			t := history[keep].ParsedTime()
			if !t.IsZero() && t.After(cutoff) {
				break
			}
			keep++
		}
		history = history[keep:]
	}
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	return history
}

func cloneMatters(matters []wsstore.Matter) []wsstore.Matter {
	if len(matters) == 0 {
		return nil
	}
	dup := make([]wsstore.Matter, len(matters))
	copy(dup, matters)
	return dup
}
