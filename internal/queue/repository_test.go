package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"kolejka/internal/wsstore"
)

const successBody = `{"result": {"date": "2024-05-10", "time": "12:35", "grupy": [
	{"status": "1", "lp": "3", "idGrupy": "123456", "liczbaCzynnychStan": 5,
	 "nazwaGrupy": "Rejestracja", "literaGrupy": "A", "liczbaKlwKolejce": 12,
	 "aktualnyNumer": "A007", "czasObslugi": "15"}
]}}`

type fakeFetcher struct {
	mu          sync.Mutex
	offices     []byte
	officesErr  error
	groups      []byte
	groupsErr   error
	officeCalls int
	groupCalls  int
}

func (f *fakeFetcher) FetchOffices(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.officeCalls++
	return f.offices, f.officesErr
}

func (f *fakeFetcher) FetchGroups(_ context.Context, officeKey string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groupCalls++
	if officeKey == "" {
		return nil, fmt.Errorf("empty office key")
	}
	return f.groups, f.groupsErr
}

func (f *fakeFetcher) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.officeCalls, f.groupCalls
}

func TestRepository_EndToEnd(t *testing.T) {
	fetcher := &fakeFetcher{groups: []byte(successBody)}
	repo := NewRepository(fetcher, 0)
	ctx := context.Background()

	matters, err := repo.ListMatters(ctx, "wola")
	if err != nil {
		t.Fatalf("ListMatters returned error: %v", err)
	}
	if len(matters) != 1 {
		t.Fatalf("len(matters) = %d, want 1", len(matters))
	}
	m := matters[0]
	if m.Name != "Rejestracja" {
		t.Fatalf("Name = %q, want Rejestracja", m.Name)
	}
	if m.Ordinal == nil || *m.Ordinal != 3 {
		t.Fatalf("Ordinal = %v, want 3", m.Ordinal)
	}
	if m.GroupID != 123456 {
		t.Fatalf("GroupID = %d, want 123456", m.GroupID)
	}

	samples, err := repo.ListSamples(ctx, "wola", 123456)
	if err != nil {
		t.Fatalf("ListSamples returned error: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("len(samples) = %d, want 1", len(samples))
	}
	s := samples[0]
	if s.QueueLength != 12 || s.OpenCounters != 5 {
		t.Fatalf("sample = %#v, want queue 12, counters 5", s)
	}
	if s.CurrentNumber.String() != "A007" {
		t.Fatalf("CurrentNumber = %q, want A007", s.CurrentNumber)
	}
	if s.Timestamp != "2024-05-10 12:35" {
		t.Fatalf("Timestamp = %q, want 2024-05-10 12:35", s.Timestamp)
	}
}

func TestRepository_CachesPerLogicalQuery(t *testing.T) {
	fetcher := &fakeFetcher{groups: []byte(successBody)}
	repo := NewRepository(fetcher, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := repo.ListMatters(ctx, "wola"); err != nil {
			t.Fatalf("ListMatters returned error: %v", err)
		}
	}
	if _, groups := fetcher.counts(); groups != 1 {
		t.Fatalf("fetch called %d times for repeated ListMatters, want 1", groups)
	}

	// Samples are a distinct logical query with their own cache key, even
	// though the same endpoint serves them.
	if _, err := repo.ListSamples(ctx, "wola", 123456); err != nil {
		t.Fatalf("ListSamples returned error: %v", err)
	}
	if _, err := repo.ListSamples(ctx, "wola", 123456); err != nil {
		t.Fatalf("ListSamples returned error: %v", err)
	}
	if _, groups := fetcher.counts(); groups != 2 {
		t.Fatalf("fetch called %d times, want 2 (one per logical query)", groups)
	}
}

func TestRepository_RemoteErrorSurfacedAndCached(t *testing.T) {
	fetcher := &fakeFetcher{groups: []byte(`{"result": "false", "error": "Urząd niedostępny"}`)}
	repo := NewRepository(fetcher, 0)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := repo.ListMatters(ctx, "wola")
		var remote *RemoteError
		if !errors.As(err, &remote) {
			t.Fatalf("ListMatters error = %v, want *RemoteError", err)
		}
		if remote.Message != "Urząd niedostępny" {
			t.Fatalf("Message = %q, want verbatim upstream message", remote.Message)
		}
	}
	// The failure envelope is a valid reply; inside the window it is not
	// re-fetched.
	if _, groups := fetcher.counts(); groups != 1 {
		t.Fatalf("fetch called %d times, want 1", groups)
	}
}

func TestRepository_MalformedResponseNotCached(t *testing.T) {
	fetcher := &fakeFetcher{groups: []byte(`{"result": {"date": "2024-05-10", "time": "12:35", "grupy": [
		{"status": "2", "lp": "3", "idGrupy": "123456", "liczbaCzynnychStan": 5,
		 "nazwaGrupy": "Rejestracja", "literaGrupy": "A", "liczbaKlwKolejce": 12,
		 "aktualnyNumer": "A007", "czasObslugi": "15"}]}}`)}
	repo := NewRepository(fetcher, 0)
	ctx := context.Background()

	_, err := repo.ListMatters(ctx, "wola")
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("ListMatters error = %v, want *MalformedResponseError", err)
	}
	if malformed.Detail.Field != "status" {
		t.Fatalf("Detail.Field = %q, want status", malformed.Detail.Field)
	}

	// A transient bad reply must not poison the window: the fixed payload
	// is fetched again and succeeds.
	fetcher.mu.Lock()
	fetcher.groups = []byte(successBody)
	fetcher.mu.Unlock()

	if _, err := repo.ListMatters(ctx, "wola"); err != nil {
		t.Fatalf("ListMatters after recovery returned error: %v", err)
	}
	if _, groups := fetcher.counts(); groups != 2 {
		t.Fatalf("fetch called %d times, want 2", groups)
	}
}

func TestRepository_NetworkErrorNotCached(t *testing.T) {
	cause := errors.New("connection refused")
	fetcher := &fakeFetcher{groupsErr: cause}
	repo := NewRepository(fetcher, 0)
	ctx := context.Background()

	_, err := repo.ListMatters(ctx, "wola")
	var network *NetworkError
	if !errors.As(err, &network) {
		t.Fatalf("ListMatters error = %v, want *NetworkError", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("error chain should include the transport error, got %v", err)
	}

	fetcher.mu.Lock()
	fetcher.groupsErr = nil
	fetcher.groups = []byte(successBody)
	fetcher.mu.Unlock()

	if _, err := repo.ListMatters(ctx, "wola"); err != nil {
		t.Fatalf("ListMatters after recovery returned error: %v", err)
	}
	if _, groups := fetcher.counts(); groups != 2 {
		t.Fatalf("fetch called %d times, want 2", groups)
	}
}

func TestRepository_EmptyDataIsNotAnError(t *testing.T) {
	fetcher := &fakeFetcher{groups: []byte(`{"result": {"date": "2024-05-10", "time": "12:35", "grupy": []}}`)}
	repo := NewRepository(fetcher, 0)
	ctx := context.Background()

	matters, err := repo.ListMatters(ctx, "wola")
	if err != nil {
		t.Fatalf("ListMatters returned error: %v", err)
	}
	if len(matters) != 0 {
		t.Fatalf("matters = %#v, want empty", matters)
	}

	samples, err := repo.ListSamples(ctx, "wola", 999)
	if err != nil {
		t.Fatalf("ListSamples returned error: %v", err)
	}
	if len(samples) != 0 {
		t.Fatalf("samples = %#v, want empty for unknown group", samples)
	}
}

func TestRepository_ListOffices(t *testing.T) {
	fetcher := &fakeFetcher{offices: []byte(`[{"name": "Urząd Dzielnicy Wola", "key": "abc"}]`)}
	repo := NewRepository(fetcher, 0)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		offices, err := repo.ListOffices(ctx)
		if err != nil {
			t.Fatalf("ListOffices returned error: %v", err)
		}
		if len(offices) != 1 || offices[0].Key != "abc" {
			t.Fatalf("offices = %#v, want one entry with key abc", offices)
		}
	}
	if officeCalls, _ := fetcher.counts(); officeCalls != 1 {
		t.Fatalf("directory fetched %d times, want 1", officeCalls)
	}
}

func TestRepository_ListOfficesMalformed(t *testing.T) {
	fetcher := &fakeFetcher{offices: []byte(`{"name": "not an array"}`)}
	repo := NewRepository(fetcher, 0)

	_, err := repo.ListOffices(context.Background())
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("ListOffices error = %v, want *MalformedResponseError", err)
	}
	var derr *wsstore.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("error chain should include the decode detail, got %v", err)
	}
}
