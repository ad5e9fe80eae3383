package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"github.com/agromarket/search-alerts/internal/config"
	"github.com/agromarket/search-alerts/internal/entities"
	"github.com/agromarket/search-alerts/internal/events"
	"github.com/agromarket/search-alerts/internal/logger"
	"github.com/agromarket/search-alerts/internal/match"
	"github.com/agromarket/search-alerts/internal/metrics"
)

type searchRepository interface {
	GetAlertEnabled(ctx context.Context, limit int, offset int) ([]entities.SavedSearch, error)
	AdvanceWatermark(ctx context.Context, id string, expectedOld, advanceTo time.Time) (bool, error)
}

type listingSource interface {
	FetchSince(ctx context.Context, after time.Time, limit int) ([]entities.Listing, error)
}

type alertLedger interface {
	HasAlerted(ctx context.Context, searchID, listingID string) (bool, error)
	RecordAlerted(ctx context.Context, searchID, listingID string) (bool, error)
	ResolveEmitFailure(ctx context.Context, searchID, listingID string) error
}

type notificationSink interface {
	Emit(ctx context.Context, search entities.SavedSearch, listing entities.Listing) error
}

// Scanner runs one matching pass over all alert-enabled saved searches.
// It owns no schedule of its own: RunOnce is invoked by the cron adapter,
// the HTTP trigger, or a test. Overlapping invocations are tolerated
// because the ledger insert is atomic and the watermark advances by
// compare-and-swap.
type Scanner struct {
	bus             EventBus.Bus
	searches        searchRepository
	listings        listingSource
	ledger          alertLedger
	sink            notificationSink
	failureRecorder emitFailureRecorder
	cache           *gocache.Cache
	pageSize        int
	initialLookback time.Duration
	searchTimeout   time.Duration
	searchContexts  sync.Map
	scanComplete    func()
}

func NewScanner(bus EventBus.Bus, searches searchRepository, listings listingSource,
	ledger alertLedger, sink notificationSink, failureRecorder emitFailureRecorder,
	cfg config.ScannerConfig) (*Scanner, error) {

	s := &Scanner{
		bus:             bus,
		searches:        searches,
		listings:        listings,
		ledger:          ledger,
		sink:            sink,
		failureRecorder: failureRecorder,
		cache:           gocache.New(10*time.Minute, 20*time.Minute),
		pageSize:        cfg.PageSize,
		initialLookback: cfg.InitialLookback,
		searchTimeout:   cfg.SearchTimeout,
	}
	err := bus.Subscribe(events.SearchDeletedTopic, s.onSearchDeletedEvent)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// WithScanCompleteCallback registers a hook fired after each RunOnce;
// used by tests to synchronize on scan completion.
func (s *Scanner) WithScanCompleteCallback(callback func()) {
	s.scanComplete = callback
}

func (s *Scanner) RunOnce(ctx context.Context) {

	startTime := time.Now()
	log.Infof("running scan at %v", startTime)

	failures := make(chan emitFailure)
	failureHandler := newEmitFailureHandler(s.failureRecorder)
	go failureHandler.Run(failures)

	var searchesPageSize, scannedTotal = 20, 0

	for offset := 0; ; offset += searchesPageSize {

		searches, err := s.searches.GetAlertEnabled(ctx, searchesPageSize, offset)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to get saved searches: %v", err)
			break
		}
		if len(searches) == 0 {
			break
		}

		var wg sync.WaitGroup
		for _, search := range searches {
			s.runScanForSearch(ctx, &wg, search, failures)
		}

		wg.Wait()
		scannedTotal += len(searches)
	}

	close(failures)
	<-failureHandler.Done

	executionTime := time.Since(startTime)
	metrics.ScanDuration.Observe(executionTime.Seconds())
	log.Infof("scanned %v saved searches in %v", scannedTotal, executionTime)

	if s.scanComplete != nil {
		s.scanComplete()
	}
}

func (s *Scanner) runScanForSearch(ctx context.Context, wg *sync.WaitGroup,
	search entities.SavedSearch, failures chan<- emitFailure) {

	searchCtx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	s.searchContexts.Store(search.ID, cancel)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer s.searchContexts.Delete(search.ID)
		defer cancel()
		s.scanSearch(searchCtx, search, failures)
	}()
}

// scanSearch processes one saved search's candidate window sequentially in
// creation order. The watermark advances only over the contiguous prefix of
// fully resolved listings: a failed emission blocks advancement past itself
// so the next run retries it, while later listings are still attempted.
func (s *Scanner) scanSearch(ctx context.Context, search entities.SavedSearch, failures chan<- emitFailure) {

	since := search.LastMatchedAt
	if since.IsZero() {
		since = time.Now().Add(-s.initialLookback)
	}

	start := time.Now()
	listings, err := s.listings.FetchSince(ctx, since, s.pageSize)
	metrics.ScanStepDuration.WithLabelValues("fetch").Observe(time.Since(start).Seconds())

	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeSource).
			Errorf("failed to fetch listings for search %v: %v", search.ID, err)
		return
	}

	var advanceTo time.Time
	blocked := false

	for _, listing := range listings {

		if ctx.Err() != nil {
			// a timeout mid-page is handled like an emission failure:
			// keep the resolved prefix, retry the rest next tick
			log.Infof("scan canceled for search %v", search.ID)
			break
		}

		resolved, err := s.processCandidate(ctx, search, listing, failures)
		if err != nil {
			// ledger unavailable is fatal for this search's pass: abort
			// without touching the watermark, the whole window is retried
			// safely next tick
			return
		}
		if resolved {
			if !blocked {
				advanceTo = listing.CreatedAt
			}
		} else {
			blocked = true
		}
	}

	if !advanceTo.IsZero() {
		advanced, err := s.searches.AdvanceWatermark(context.Background(), search.ID, search.LastMatchedAt, advanceTo)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("failed to advance watermark for search %v: %v", search.ID, err)
		} else if !advanced {
			log.Debugf("watermark for search %v already advanced by a concurrent run", search.ID)
		}
	}
}

// processCandidate takes one listing through evaluate, dedup-check, emit
// and ledger-write. It reports whether the listing is fully resolved:
// non-matching, already ledgered, or emitted-and-ledgered. A non-nil
// error means the ledger could not be consulted and the pass must stop.
func (s *Scanner) processCandidate(ctx context.Context, search entities.SavedSearch,
	listing entities.Listing, failures chan<- emitFailure) (bool, error) {

	start := time.Now()
	matched := match.Matches(search, listing)
	metrics.ScanStepDuration.WithLabelValues("evaluate").Observe(time.Since(start).Seconds())

	if !matched {
		return true, nil
	}
	metrics.MatchedListingsCounter.Inc()

	pairKey := search.ID + ":" + listing.ID
	if _, found := s.cache.Get(pairKey); found {
		metrics.DedupSkippedCounter.Inc()
		return true, nil
	}

	start = time.Now()
	alerted, err := s.ledger.HasAlerted(ctx, search.ID, listing.ID)
	metrics.ScanStepDuration.WithLabelValues("dedup_check").Observe(time.Since(start).Seconds())

	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeLedger).
			Errorf("failed to consult ledger for search %v listing %v: %v", search.ID, listing.ID, err)
		return false, err
	}
	if alerted {
		s.cachePair(pairKey)
		metrics.DedupSkippedCounter.Inc()
		return true, nil
	}

	if err = s.sink.Emit(ctx, search, listing); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeSink).
				Errorf("failed to emit notification for search %v listing %v: %v", search.ID, listing.ID, err)
		}
		failures <- emitFailure{searchID: search.ID, listingID: listing.ID, err: err}
		return false, nil
	}

	inserted, err := s.ledger.RecordAlerted(ctx, search.ID, listing.ID)
	if err != nil {
		// the one narrow case where a duplicate is possible: delivered
		// but not recorded, so the next run will emit the pair again
		metrics.LedgerWriteFailuresCounter.Inc()
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeLedger).
			Errorf("notification emitted but ledger write failed for search %v listing %v, "+
				"duplicate possible on retry: %v", search.ID, listing.ID, err)
		failures <- emitFailure{searchID: search.ID, listingID: listing.ID, err: err}
		return false, nil
	}
	if !inserted {
		log.Debugf("pair (%v, %v) was ledgered by a concurrent run", search.ID, listing.ID)
	}

	if err = s.ledger.ResolveEmitFailure(ctx, search.ID, listing.ID); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to resolve emit failure for search %v listing %v: %v", search.ID, listing.ID, err)
	}

	s.cachePair(pairKey)
	metrics.EmittedNotificationsCounter.Inc()
	log.Infof("alerted user %v about listing %v for search %v", search.OwnerID, listing.ID, search.ID)
	return true, nil
}

func (s *Scanner) cachePair(pairKey string) {
	if err := s.cache.Add(pairKey, "", gocache.DefaultExpiration); err != nil {
		log.Errorf("failed to cache alerted pair: %v", err)
	}
}

func (s *Scanner) onSearchDeletedEvent(event events.SearchDeleted) {
	if cancel, ok := s.searchContexts.Load(event.SearchID); ok {
		cancel.(context.CancelFunc)()
		s.searchContexts.Delete(event.SearchID)
	}
}
