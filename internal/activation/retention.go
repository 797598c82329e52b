package activation

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	internalsettings "github.com/cybersms/numstore/internal/settings"
	"github.com/cybersms/numstore/internal/store"
)

const (
	defaultRetentionInterval = 6 * time.Hour
	retentionBatchSize       = 1000
	maxRetentionBatches      = 200
)

// RetentionCleaner periodically deletes finished activations past the
// retention window.
type RetentionCleaner struct {
	activations *store.ActivationStore
	interval    time.Duration
}

// NewRetentionCleaner constructs a retention cleaner.
func NewRetentionCleaner(activations *store.ActivationStore) *RetentionCleaner {
	if activations == nil {
		return nil
	}
	return &RetentionCleaner{
		activations: activations,
		interval:    defaultRetentionInterval,
	}
}

// Start launches the cleanup loop in a background goroutine.
func (c *RetentionCleaner) Start(ctx context.Context) {
	if c == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go c.run(ctx)
	log.Infof("activation retention cleaner started (interval=%s)", c.interval)
}

func (c *RetentionCleaner) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.cleanupOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		timer := time.NewTimer(c.interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
	}
}

func (c *RetentionCleaner) cleanupOnce(ctx context.Context) {
	retentionDays := internalsettings.IntValue(internalsettings.HistoryRetentionDaysKey, internalsettings.DefaultHistoryRetentionDays)
	if retentionDays <= 0 {
		return
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	deletedTotal := int64(0)
	for i := 0; i < maxRetentionBatches; i++ {
		if ctx.Err() != nil {
			return
		}
		n, errDelete := c.activations.DeleteTerminalBefore(ctx, cutoff, retentionBatchSize)
		if errDelete != nil {
			log.WithError(errDelete).Warn("activation retention cleaner: delete batch failed")
			break
		}
		if n <= 0 {
			break
		}
		deletedTotal += n
	}

	if deletedTotal > 0 {
		log.Infof("activation retention cleaner: deleted %d rows (cutoff=%s retention_days=%d)",
			deletedTotal, cutoff.Format(time.RFC3339), retentionDays)
	}
}
