package state

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"kolejka/internal/wsstore"
)

func sampleAt(ts string, queueLength int) wsstore.Sample {
	return wsstore.Sample{QueueLength: queueLength, Timestamp: ts}
}

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	three := 3
	matters := []wsstore.Matter{{Name: "Rejestracja", Ordinal: &three, GroupID: 123456}}
	samples := map[int64]wsstore.Sample{123456: sampleAt("2024-05-10 12:35", 12)}

	before := time.Now()
	s.Update("wola", matters, samples, nil)

	snap := s.Snapshot()
	if len(snap.Matters["wola"]) != 1 || snap.Matters["wola"][0].Name != "Rejestracja" {
		t.Fatalf("snapshot matters = %#v, want Rejestracja", snap.Matters["wola"])
	}
	key := MatterKey{OfficeKey: "wola", GroupID: 123456}
	latest, ok := snap.Latest(key)
	if !ok || latest.QueueLength != 12 {
		t.Fatalf("Latest = %#v %v, want queue 12", latest, ok)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Matters["wola"][0].Name = "mutated"
	snap.History[key][0].QueueLength = 999
	snap2 := s.Snapshot()
	if snap2.Matters["wola"][0].Name != "Rejestracja" {
		t.Fatalf("Snapshot should clone matters; got %q", snap2.Matters["wola"][0].Name)
	}
	if snap2.History[key][0].QueueLength != 12 {
		t.Fatalf("Snapshot should clone history; got %d", snap2.History[key][0].QueueLength)
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update("wola", []wsstore.Matter{{Name: "Kasa", GroupID: 7}}, nil, nil)
	prev := s.Snapshot()

	origErr := errors.New("boom")
	s.Update("wola", nil, nil, origErr)

	snap := s.Snapshot()
	if !reflect.DeepEqual(snap.Matters, prev.Matters) {
		t.Fatalf("matters changed on error: got %#v want %#v", snap.Matters, prev.Matters)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_PartialCycleRecordsDataAndError(t *testing.T) {
	var s Store

	s.Update("wola", nil, nil, errors.New("fail 1"))

	matters := []wsstore.Matter{{Name: "Kasa", GroupID: 7}}
	samples := map[int64]wsstore.Sample{7: sampleAt("2024-05-10 12:35", 4)}
	s.Update("wola", matters, samples, errors.New("one group unreachable"))

	snap := s.Snapshot()
	if len(snap.Matters["wola"]) != 1 {
		t.Fatalf("matters = %#v, want the partial cycle's data stored", snap.Matters["wola"])
	}
	if _, ok := snap.Latest(MatterKey{OfficeKey: "wola", GroupID: 7}); !ok {
		t.Fatal("Latest returned no sample, want the partial cycle's reading")
	}
	if snap.LastError == nil || snap.LastError.Error() != "one group unreachable" {
		t.Fatalf("LastError = %v, want the partial cycle's error", snap.LastError)
	}
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("failures = %d offline = %v, want streak reset by arriving data",
			snap.ConsecutiveFailures, snap.IsOffline())
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	if s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}

	s.Update("wola", nil, nil, errors.New("fail 1"))
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after 1 failure: failures = %d offline = %v, want 1/false",
			snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update("wola", nil, nil, errors.New("fail 2"))
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("after 2 failures: failures = %d offline = %v, want 2/true",
			snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update("wola", nil, map[int64]wsstore.Sample{}, nil)
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: failures = %d offline = %v, want 0/false",
			snap.ConsecutiveFailures, snap.IsOffline())
	}
}

func TestStore_HistorySkipsDuplicateTimestamps(t *testing.T) {
	var s Store
	key := MatterKey{OfficeKey: "wola", GroupID: 1}

	// Re-polls inside the upstream freshness window return the same
	// envelope timestamp; only one reading is kept.
	for i := 0; i < 3; i++ {
		s.Update("wola", nil, map[int64]wsstore.Sample{1: sampleAt("2024-05-10 12:35", 12)}, nil)
	}
	s.Update("wola", nil, map[int64]wsstore.Sample{1: sampleAt("2024-05-10 12:36", 11)}, nil)

	history := s.Snapshot().History[key]
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	if history[0].QueueLength != 12 || history[1].QueueLength != 11 {
		t.Fatalf("history = %#v, want readings 12 then 11", history)
	}
}

func TestStore_HistoryPrunesOldSamples(t *testing.T) {
	var s Store
	key := MatterKey{OfficeKey: "wola", GroupID: 1}

	base := time.Date(2024, 5, 10, 10, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(i) * 20 * time.Minute).Format("2006-01-02 15:04")
		s.Update("wola", nil, map[int64]wsstore.Sample{1: sampleAt(ts, i)}, nil)
	}

	// Newest reading is at 11:20; everything at or before 10:20 is outside
	// the one-hour window.
	history := s.Snapshot().History[key]
	if len(history) != 3 {
		t.Fatalf("len(history) = %d, want 3 readings within the hour", len(history))
	}
	if got := history[0].Timestamp; got != "2024-05-10 10:40" {
		t.Fatalf("oldest kept reading = %q, want 2024-05-10 10:40", got)
	}
}

func TestStore_HistoryCapWithoutParseableTimes(t *testing.T) {
	var s Store
	key := MatterKey{OfficeKey: "wola", GroupID: 1}

	// The grammar permits dates that never parse; the cap still bounds
	// growth.
	for i := 0; i < maxHistory+10; i++ {
		ts := fmt.Sprintf("2024-02-31 %02d:%02d", i/60%24, i%60)
		s.Update("wola", nil, map[int64]wsstore.Sample{1: sampleAt(ts, i)}, nil)
	}
	if got := len(s.Snapshot().History[key]); got != maxHistory {
		t.Fatalf("len(history) = %d, want capped at %d", got, maxHistory)
	}
}
