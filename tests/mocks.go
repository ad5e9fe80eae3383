package tests

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/agromarket/search-alerts/internal/entities"
)

type emitter interface {
	Emit(ctx context.Context, search entities.SavedSearch, listing entities.Listing) error
}

// flakySink wraps a real sink and fails scripted listings a given number
// of times before letting the emission through.
type flakySink struct {
	inner    emitter
	mu       sync.Mutex
	failures map[string]int // listingID -> remaining failures
	emitted  []string
}

func newFlakySink(inner emitter, failures map[string]int) *flakySink {
	if failures == nil {
		failures = map[string]int{}
	}
	return &flakySink{inner: inner, failures: failures}
}

func (s *flakySink) Emit(ctx context.Context, search entities.SavedSearch, listing entities.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if remaining := s.failures[listing.ID]; remaining > 0 {
		s.failures[listing.ID] = remaining - 1
		return errors.New("notification sink unavailable")
	}

	if s.inner != nil {
		if err := s.inner.Emit(ctx, search, listing); err != nil {
			return err
		}
	}
	s.emitted = append(s.emitted, listing.ID)
	return nil
}

func (s *flakySink) emittedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.emitted...)
}
