package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type ledgerCleanupRepository interface {
	RemoveOldRecords(ctx context.Context, olderThan time.Time) (int64, error)
}

type notificationCleanupRepository interface {
	RemoveOldRead(ctx context.Context, olderThan time.Time) (int64, error)
}

// Cleaner applies the retention policy to ledger records and read
// notifications. It runs on its own cadence and is deliberately separate
// from the scanner, which never deletes anything.
type Cleaner struct {
	ledger          ledgerCleanupRepository
	notifications   notificationCleanupRepository
	cron            *cron.Cron
	retentionInDays int
}

func NewCleaner(ledger ledgerCleanupRepository, notifications notificationCleanupRepository,
	retentionInDays int) (*Cleaner, error) {

	if retentionInDays <= 0 {
		return nil, errors.New("retention in days must be greater than zero")
	}

	c := &Cleaner{
		ledger:          ledger,
		notifications:   notifications,
		cron:            cron.New(),
		retentionInDays: retentionInDays,
	}

	_, err := c.cron.AddFunc("0 0 * * *", c.cleanOldRecords)
	if err != nil {
		return nil, err
	}

	c.cron.Start()
	log.Infof("retention cleaner started, retention in days: %d", c.retentionInDays)
	return c, nil
}

func (c *Cleaner) Stop() {
	c.cron.Stop()
}

func (c *Cleaner) cleanOldRecords() {
	cutoff := time.Now().Add(-time.Duration(c.retentionInDays) * 24 * time.Hour)

	removed, err := c.ledger.RemoveOldRecords(context.Background(), cutoff)
	if err != nil {
		log.Errorf("Failed to clean old alert records: %v", err)
	} else {
		log.Infof("Old alert records cleaned at %v, affected rows: %v", time.Now(), removed)
	}

	removed, err = c.notifications.RemoveOldRead(context.Background(), cutoff)
	if err != nil {
		log.Errorf("Failed to clean old notifications: %v", err)
	} else {
		log.Infof("Old notifications cleaned at %v, affected rows: %v", time.Now(), removed)
	}
}
