package Earnings

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Souq/Models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&Models.Vendor{},
		&Models.Order{},
		&Models.OrderItem{},
		&Models.VendorEarning{},
	))
	return db
}

func seedDeliveredOrder(t *testing.T, db *gorm.DB, items []Models.OrderItem) *Models.Order {
	t.Helper()
	now := time.Now().UTC()
	order := &Models.Order{
		VendorID:         1,
		BuyerID:          2,
		Status:           Models.OrderStatusDelivered,
		PaymentConfirmed: true,
		DeliveredAt:      &now,
		Items:            items,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRecordDeliveryEarnings(t *testing.T) {
	t.Run("sums item spreads", func(t *testing.T) {
		db := setupTestDB(t)
		order := seedDeliveredOrder(t, db, []Models.OrderItem{
			{ProductName: "Rice 5kg", PriceToUser: 120, PriceToVendor: 100, Quantity: 2},
			{ProductName: "Oil 1L", PriceToUser: 65, PriceToVendor: 60, Quantity: 4},
		})

		entry, err := RecordDeliveryEarnings(db, order.ID)
		require.NoError(t, err)

		// (120-100)*2 + (65-60)*4 = 40 + 20
		assert.Equal(t, 60.0, entry.Earnings)
		assert.Equal(t, 60.0, entry.PriceDifference)
		assert.Equal(t, order.VendorID, entry.VendorID)
	})

	t.Run("clips negative spreads at zero", func(t *testing.T) {
		db := setupTestDB(t)
		// Sold below the vendor price: no commission, but also no clawback
		order := seedDeliveredOrder(t, db, []Models.OrderItem{
			{ProductName: "Loss Leader", PriceToUser: 90, PriceToVendor: 100, Quantity: 3},
			{ProductName: "Sugar 1kg", PriceToUser: 30, PriceToVendor: 25, Quantity: 2},
		})

		entry, err := RecordDeliveryEarnings(db, order.ID)
		require.NoError(t, err)

		assert.Equal(t, 10.0, entry.Earnings)
		// The raw difference keeps the negative line for reporting
		assert.Equal(t, -20.0, entry.PriceDifference)
	})

	t.Run("idempotent across retries", func(t *testing.T) {
		db := setupTestDB(t)
		order := seedDeliveredOrder(t, db, []Models.OrderItem{
			{ProductName: "Tea", PriceToUser: 50, PriceToVendor: 40, Quantity: 1},
		})

		first, err := RecordDeliveryEarnings(db, order.ID)
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			again, err := RecordDeliveryEarnings(db, order.ID)
			require.NoError(t, err)
			assert.Equal(t, first.ID, again.ID)
			assert.Equal(t, first.Earnings, again.Earnings)
		}

		var count int64
		db.Model(&Models.VendorEarning{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rejects undelivered order", func(t *testing.T) {
		db := setupTestDB(t)
		order := &Models.Order{
			VendorID:         1,
			Status:           Models.OrderStatusPlaced,
			PaymentConfirmed: true,
		}
		require.NoError(t, db.Create(order).Error)

		_, err := RecordDeliveryEarnings(db, order.ID)
		assert.ErrorIs(t, err, ErrOrderNotEligible)
	})

	t.Run("rejects unconfirmed payment", func(t *testing.T) {
		db := setupTestDB(t)
		order := &Models.Order{
			VendorID: 1,
			Status:   Models.OrderStatusDelivered,
		}
		require.NoError(t, db.Create(order).Error)

		_, err := RecordDeliveryEarnings(db, order.ID)
		assert.ErrorIs(t, err, ErrOrderNotEligible)
	})

	t.Run("rejects admin fulfilled order", func(t *testing.T) {
		db := setupTestDB(t)
		order := &Models.Order{
			VendorID:         1,
			Status:           Models.OrderStatusDelivered,
			PaymentConfirmed: true,
			FulfilledByAdmin: true,
		}
		require.NoError(t, db.Create(order).Error)

		_, err := RecordDeliveryEarnings(db, order.ID)
		assert.ErrorIs(t, err, ErrOrderNotEligible)
	})

	t.Run("unknown order", func(t *testing.T) {
		db := setupTestDB(t)
		_, err := RecordDeliveryEarnings(db, 9999)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("empty order earns nothing", func(t *testing.T) {
		db := setupTestDB(t)
		order := seedDeliveredOrder(t, db, nil)

		entry, err := RecordDeliveryEarnings(db, order.ID)
		require.NoError(t, err)
		assert.Equal(t, 0.0, entry.Earnings)
	})
}
