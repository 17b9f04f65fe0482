package worker

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/SmartNuvem/smartpedidos-sub002/events"
	"github.com/SmartNuvem/smartpedidos-sub002/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.OrderItemOption{}))
	return db
}

func seedPrintingOrder(t *testing.T, db *gorm.DB, claimedAgo time.Duration) models.Order {
	t.Helper()
	claimed := time.Now().Add(-claimedAgo)
	order := models.Order{
		StoreID:           1,
		Status:            models.OrderStatusPrinting,
		FulfillmentType:   models.FulfillmentPickup,
		PaymentMethod:     models.PaymentPix,
		TotalCents:        1000,
		ShortCode:         "STUCK001",
		ReceiptToken:      uuid.NewString(),
		PrintingClaimedAt: &claimed,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func TestRunOnceResetsOnlyStaleClaims(t *testing.T) {
	db := setupDB(t)
	hub := events.NewHub()
	w := NewStuckOrderRecovery(db, hub, time.Minute, 5*time.Minute)

	stale := seedPrintingOrder(t, db, 15*time.Minute)
	fresh := seedPrintingOrder(t, db, time.Minute)

	sub := hub.Subscribe(1)

	n, err := w.RunOnce(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var reset models.Order
	require.NoError(t, db.First(&reset, stale.ID).Error)
	assert.Equal(t, models.OrderStatusNew, reset.Status)
	assert.Nil(t, reset.PrintingClaimedAt)

	var untouched models.Order
	require.NoError(t, db.First(&untouched, fresh.ID).Error)
	assert.Equal(t, models.OrderStatusPrinting, untouched.Status)
	assert.NotNil(t, untouched.PrintingClaimedAt)

	select {
	case frame := <-sub.Frames():
		assert.Contains(t, string(frame), "order.updated")
	default:
		t.Fatal("expected an order.updated event for the reset order")
	}
}

func TestRunOnceToleratesNothingStuck(t *testing.T) {
	db := setupDB(t)
	w := NewStuckOrderRecovery(db, events.NewHub(), time.Minute, 5*time.Minute)

	n, err := w.RunOnce(time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewStuckOrderRecoveryDefaults(t *testing.T) {
	w := NewStuckOrderRecovery(nil, nil, 0, 0)
	assert.Equal(t, time.Minute, w.interval)
	assert.Equal(t, 5*time.Minute, w.threshold)
}
