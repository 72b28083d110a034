package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"kolejka/internal/cache"
	"kolejka/internal/wsstore"
)

// Fetcher retrieves raw bytes from the upstream API. Implemented by
// *wsstore.Client; tests substitute fakes.
type Fetcher interface {
	FetchOffices(ctx context.Context) ([]byte, error)
	FetchGroups(ctx context.Context, officeKey string) ([]byte, error)
}

// Ensure the HTTP client satisfies Fetcher at compile time.
var _ Fetcher = (*wsstore.Client)(nil)

const officesKey = "offices"

// Repository is the typed read surface over the queue API. Every operation
// goes through a request cache, so concurrent monitors of the same office
// never fetch the same query twice inside one freshness window. It never
// retries; retry policy belongs to the poller.
type Repository struct {
	fetcher   Fetcher
	offices   *cache.Cache[[]wsstore.Office]
	envelopes *cache.Cache[wsstore.Envelope]
}

// NewRepository builds a Repository with its own cache instances. A
// non-positive ttl selects cache.DefaultTTL.
func NewRepository(f Fetcher, ttl time.Duration) *Repository {
	return &Repository{
		fetcher:   f,
		offices:   cache.New[[]wsstore.Office](ttl),
		envelopes: cache.New[wsstore.Envelope](ttl),
	}
}

// Instrument registers cache counters on reg.
func (r *Repository) Instrument(reg prometheus.Registerer) {
	r.offices.Instrument(cache.NewMetrics(reg, "offices"))
	r.envelopes.Instrument(cache.NewMetrics(reg, "envelopes"))
}

// ListOffices returns the office directory, cached under a single fixed key.
func (r *Repository) ListOffices(ctx context.Context) ([]wsstore.Office, error) {
	return r.offices.Get(ctx, officesKey, func(ctx context.Context) ([]wsstore.Office, error) {
		body, err := r.fetcher.FetchOffices(ctx)
		if err != nil {
			return nil, &NetworkError{Err: err}
		}
		offices, err := wsstore.DecodeOffices(body)
		if err != nil {
			return nil, malformed(err)
		}
		return offices, nil
	})
}

// ListMatters returns the matters currently handled by one office, sorted by
// name. An office with no groups yields an empty slice, not an error.
func (r *Repository) ListMatters(ctx context.Context, officeKey string) ([]wsstore.Matter, error) {
	env, err := r.envelope(ctx, mattersKey(officeKey), officeKey)
	if err != nil {
		return nil, err
	}
	return env.Matters(), nil
}

// ListSamples returns the most recent queue reading for one matter. An
// unknown groupID yields an empty slice, not an error.
func (r *Repository) ListSamples(ctx context.Context, officeKey string, groupID int64) ([]wsstore.Sample, error) {
	env, err := r.envelope(ctx, samplesKey(officeKey, groupID), officeKey)
	if err != nil {
		return nil, err
	}
	return env.Samples(groupID), nil
}

// envelope fetches, decodes, and caches one office reply under the given
// key. Failure envelopes are valid decode results and are cached like any
// other, so a remote-reported outage is not re-fetched inside the window,
// but they surface as *RemoteError on every read.
func (r *Repository) envelope(ctx context.Context, key, officeKey string) (wsstore.Success, error) {
	env, err := r.envelopes.Get(ctx, key, func(ctx context.Context) (wsstore.Envelope, error) {
		body, err := r.fetcher.FetchGroups(ctx, officeKey)
		if err != nil {
			return nil, &NetworkError{Err: err}
		}
		env, err := wsstore.Decode(body)
		if err != nil {
			return nil, malformed(err)
		}
		return env, nil
	})
	if err != nil {
		return wsstore.Success{}, err
	}
	switch env := env.(type) {
	case wsstore.Failure:
		return wsstore.Success{}, &RemoteError{Message: env.Message}
	case wsstore.Success:
		return env, nil
	default:
		return wsstore.Success{}, fmt.Errorf("unexpected envelope type %T", env)
	}
}

func mattersKey(officeKey string) string {
	return "matters/" + officeKey
}

func samplesKey(officeKey string, groupID int64) string {
	return fmt.Sprintf("sample/%s/%d", officeKey, groupID)
}

func malformed(err error) error {
	if derr, ok := err.(*wsstore.DecodeError); ok {
		return &MalformedResponseError{Detail: derr}
	}
	return &MalformedResponseError{Detail: &wsstore.DecodeError{Index: -1, Reason: err.Error()}}
}
