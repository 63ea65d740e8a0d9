package Geofence

import (
	"fmt"
	"strings"
	"sync"
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
	require.NoError(t, db.AutoMigrate(&Models.Vendor{}))
	return db
}

func testGuard(db *gorm.DB) *Guard {
	return &Guard{DB: db, RadiusKm: 5.0}
}

func TestRegisterVendor(t *testing.T) {
	// Downtown Cairo
	const lat, lng = 30.0444, 31.2357

	t.Run("registers into an empty zone", func(t *testing.T) {
		db := setupTestDB(t)
		guard := testGuard(db)

		vendor := &Models.Vendor{Name: "Tahrir Grocer", Latitude: lat, Longitude: lng}
		require.NoError(t, guard.RegisterVendor(vendor))
		assert.NotZero(t, vendor.ID)
		assert.Equal(t, Models.VendorStatusPending, vendor.Status)
	})

	t.Run("rejects a second vendor inside the radius", func(t *testing.T) {
		db := setupTestDB(t)
		guard := testGuard(db)

		first := &Models.Vendor{Name: "Tahrir Grocer", Latitude: lat, Longitude: lng}
		require.NoError(t, guard.RegisterVendor(first))

		// Roughly 1.1 km north
		second := &Models.Vendor{Name: "Garden City Grocer", Latitude: lat + 0.01, Longitude: lng}
		err := guard.RegisterVendor(second)
		assert.ErrorIs(t, err, ErrVendorExists)
		assert.Zero(t, second.ID)

		var count int64
		db.Model(&Models.Vendor{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("allows a vendor outside the radius", func(t *testing.T) {
		db := setupTestDB(t)
		guard := testGuard(db)

		first := &Models.Vendor{Name: "Tahrir Grocer", Latitude: lat, Longitude: lng}
		require.NoError(t, guard.RegisterVendor(first))

		// Roughly 11 km north
		second := &Models.Vendor{Name: "Shubra Grocer", Latitude: lat + 0.1, Longitude: lng}
		require.NoError(t, guard.RegisterVendor(second))
		assert.NotZero(t, second.ID)
	})

	t.Run("rejected and suspended vendors do not block the zone", func(t *testing.T) {
		db := setupTestDB(t)
		guard := testGuard(db)

		require.NoError(t, db.Create(&Models.Vendor{
			Name: "Rejected One", Latitude: lat, Longitude: lng, Status: Models.VendorStatusRejected,
		}).Error)
		require.NoError(t, db.Create(&Models.Vendor{
			Name: "Suspended One", Latitude: lat + 0.001, Longitude: lng, Status: Models.VendorStatusSuspended,
		}).Error)

		vendor := &Models.Vendor{Name: "New Grocer", Latitude: lat, Longitude: lng + 0.001}
		require.NoError(t, guard.RegisterVendor(vendor))
	})

	t.Run("rejects invalid coordinates", func(t *testing.T) {
		db := setupTestDB(t)
		guard := testGuard(db)

		vendor := &Models.Vendor{Name: "Nowhere", Latitude: 91, Longitude: lng}
		assert.Error(t, guard.RegisterVendor(vendor))

		vendor = &Models.Vendor{Name: "Nowhere Either", Latitude: lat, Longitude: -181}
		assert.Error(t, guard.RegisterVendor(vendor))
	})

	t.Run("concurrent registrations for one zone admit exactly one", func(t *testing.T) {
		db := setupTestDB(t)
		guard := testGuard(db)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				vendor := &Models.Vendor{
					Name:      fmt.Sprintf("Racing Grocer %d", i),
					Latitude:  lat,
					Longitude: lng + float64(i)*0.001,
				}
				errs[i] = guard.RegisterVendor(vendor)
			}(i)
		}
		wg.Wait()

		admitted := 0
		for _, err := range errs {
			if err == nil {
				admitted++
			} else {
				assert.ErrorIs(t, err, ErrVendorExists)
			}
		}
		assert.Equal(t, 1, admitted)

		var count int64
		db.Model(&Models.Vendor{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})
}

func TestHaversineKm(t *testing.T) {
	// Cairo to Alexandria, roughly 180 km
	d := HaversineKm(30.0444, 31.2357, 31.2001, 29.9187)
	assert.InDelta(t, 180, d, 10)

	// Same point
	assert.Equal(t, 0.0, HaversineKm(30.0444, 31.2357, 30.0444, 31.2357))
}
