package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"kolejka/internal/queue"
	"kolejka/internal/state"
	"kolejka/internal/wsstore"
)

const (
	defaultPollInterval = 60 * time.Second
	maxBackoff          = 15 * time.Minute
)

// StartPoller launches a background goroutine that refreshes the store at a
// fixed cadence, backing off exponentially while the API keeps failing. It
// returns immediately.
func StartPoller(ctx context.Context, store *state.Store, repo *queue.Repository, offices []string, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		for {
			refresh(ctx, store, repo, offices)

			wait := interval
			if failures := store.Snapshot().ConsecutiveFailures; failures > 0 {
				wait = calculateBackoff(failures, interval)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}()
}

// refresh polls every office once: the matter list first, then the latest
// sample for each matter. Failures are logged and recorded but never abort
// the cycle for the remaining offices. A cycle where only some sample
// fetches fail stores the partial data together with the first error, so
// readers see both.
func refresh(ctx context.Context, store *state.Store, repo *queue.Repository, offices []string) {
	for _, officeKey := range offices {
		if ctx.Err() != nil {
			return
		}
		matters, err := repo.ListMatters(ctx, officeKey)
		if err != nil {
			store.Update(officeKey, nil, nil, err)
			log.Printf("office %s: matters poll failed: %s", officeKey, describeError(err))
			continue
		}

		samples := make(map[int64]wsstore.Sample, len(matters))
		var firstErr error
		for _, matter := range matters {
			got, err := repo.ListSamples(ctx, officeKey, matter.GroupID)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				log.Printf("office %s: sample poll failed for group %d: %s", officeKey, matter.GroupID, describeError(err))
				continue
			}
			if len(got) > 0 {
				samples[matter.GroupID] = got[len(got)-1]
			}
		}
		if firstErr != nil && len(samples) == 0 && len(matters) > 0 {
			store.Update(officeKey, nil, nil, firstErr)
			continue
		}
		store.Update(officeKey, matters, samples, firstErr)
	}
}

// calculateBackoff doubles the interval per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

// describeError words the three poll failure conditions distinctly so the
// logs separate outages from upstream-reported errors from replies we
// cannot parse.
func describeError(err error) string {
	var remote *queue.RemoteError
	var malformed *queue.MalformedResponseError
	var network *queue.NetworkError
	switch {
	case errors.As(err, &remote):
		return fmt.Sprintf("office reports: %s", remote.Message)
	case errors.As(err, &malformed):
		return fmt.Sprintf("unexpected response shape: %v", malformed.Detail)
	case errors.As(err, &network):
		return fmt.Sprintf("office unreachable: %v", network.Err)
	default:
		return err.Error()
	}
}
