package services

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type scanRunner interface {
	RunOnce(ctx context.Context)
}

// ScanScheduler is the cron adapter: it only decides when RunOnce fires.
// Overlapping ticks are safe, the scanner is idempotent.
type ScanScheduler struct {
	runner scanRunner
	cron   *cron.Cron
}

func NewScanScheduler(runner scanRunner, cronSpec string) (*ScanScheduler, error) {

	s := &ScanScheduler{
		runner: runner,
		cron:   cron.New(),
	}

	_, err := s.cron.AddFunc(cronSpec, func() {
		s.runner.RunOnce(context.Background())
	})
	if err != nil {
		return nil, err
	}

	s.cron.Start()
	log.Infof("scan scheduler started, cron spec: %s", cronSpec)
	return s, nil
}

func (s *ScanScheduler) Stop() {
	s.cron.Stop()
}
