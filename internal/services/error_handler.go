package services

import (
	"context"

	log "github.com/sirupsen/logrus"
)

type emitFailureRecorder interface {
	RecordEmitFailure(ctx context.Context, searchID, listingID, errMsg string) error
}

type emitFailure struct {
	searchID  string
	listingID string
	err       error
}

// emitFailureHandler drains the scan's failure channel into the audit
// table so unprocessed matches stay observable between runs.
type emitFailureHandler struct {
	Done   chan struct{}
	ledger emitFailureRecorder
}

func newEmitFailureHandler(ledger emitFailureRecorder) *emitFailureHandler {
	return &emitFailureHandler{make(chan struct{}), ledger}
}

func (e *emitFailureHandler) Run(failures <-chan emitFailure) {
	total := 0
	for failure := range failures {
		total++
		dbErr := e.ledger.RecordEmitFailure(context.Background(),
			failure.searchID, failure.listingID, failure.err.Error())
		if dbErr != nil {
			log.Errorf("couldn't record emit failure: %v", dbErr)
		}
		log.Infof("match recorded as failed to emit, searchID: %v listingID: %v, error: %v",
			failure.searchID, failure.listingID, failure.err)
	}
	if total > 0 {
		log.Infof("recorded %v matches as failed to emit", total)
	}
	e.Done <- struct{}{}
}
