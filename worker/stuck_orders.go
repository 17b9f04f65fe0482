// Package worker hosts the background loops started from main.
package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/SmartNuvem/smartpedidos-sub002/events"
	"github.com/SmartNuvem/smartpedidos-sub002/models"
)

const recoveryBatchSize = 100

// StuckOrderRecovery resets orders whose print claim went stale: an agent
// took the order to PRINTING and then crashed or disconnected before
// confirming PRINTED. Resetting to NEW lets another agent retry. This is
// the system's only automatic retry path.
type StuckOrderRecovery struct {
	db        *gorm.DB
	hub       *events.Hub
	interval  time.Duration
	threshold time.Duration
}

func NewStuckOrderRecovery(db *gorm.DB, hub *events.Hub, interval, threshold time.Duration) *StuckOrderRecovery {
	if interval <= 0 {
		interval = time.Minute
	}
	if threshold <= 0 {
		threshold = 5 * time.Minute
	}
	return &StuckOrderRecovery{db: db, hub: hub, interval: interval, threshold: threshold}
}

// Start runs the loop until ctx is cancelled. Per-tick failures are
// logged and the loop continues; the common case is finding nothing.
func (w *StuckOrderRecovery) Start(ctx context.Context) {
	logrus.WithFields(logrus.Fields{
		"interval":  w.interval.String(),
		"threshold": w.threshold.String(),
	}).Info("🔄 Stuck-order recovery started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("🔄 Stuck-order recovery stopped")
			return
		case <-ticker.C:
			n, err := w.RunOnce(time.Now())
			if err != nil {
				logrus.WithError(err).Error("🔄 Stuck-order recovery tick failed")
				continue
			}
			if n > 0 {
				logrus.WithField("count", n).Info("🔄 Reset stuck orders to NEW")
			}
		}
	}
}

// RunOnce performs one bounded sweep and returns how many orders it reset.
func (w *StuckOrderRecovery) RunOnce(now time.Time) (int, error) {
	cutoff := now.Add(-w.threshold)

	var stuck []models.Order
	if err := w.db.
		Where("status = ? AND printing_claimed_at IS NOT NULL AND printing_claimed_at < ?",
			models.OrderStatusPrinting, cutoff).
		Limit(recoveryBatchSize).
		Find(&stuck).Error; err != nil {
		return 0, err
	}

	reset := 0
	for _, order := range stuck {
		// Guard on status so a concurrent PRINTED confirmation wins.
		res := w.db.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusPrinting).
			Updates(map[string]interface{}{
				"status":              models.OrderStatusNew,
				"printing_claimed_at": nil,
			})
		if res.Error != nil {
			logrus.WithError(res.Error).WithField("order_id", order.ID).Error("🔄 Failed to reset stuck order")
			continue
		}
		if res.RowsAffected == 0 {
			continue
		}
		reset++
		w.hub.Publish(order.StoreID, events.EventOrderUpdated, map[string]interface{}{
			"id":     order.ID,
			"status": models.OrderStatusNew,
		})
	}
	return reset, nil
}
