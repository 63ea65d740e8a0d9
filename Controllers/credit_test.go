package Controllers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Souq/Models"
)

func seedPendingPurchase(t *testing.T, db *gorm.DB, vendorID uint, principal float64) *Models.CreditPurchase {
	t.Helper()
	now := time.Now().UTC()
	purchase := &Models.CreditPurchase{
		VendorID:          vendorID,
		Principal:         principal,
		PurchaseDate:      now.AddDate(0, 0, -5),
		DueDate:           now.AddDate(0, 0, 25),
		Status:            Models.PurchaseStatusPending,
		LastNotifiedState: Models.LifecycleStatePending,
	}
	require.NoError(t, db.Create(purchase).Error)
	return purchase
}

func TestRepayPurchase(t *testing.T) {
	newApp := func(db *gorm.DB) *fiber.App {
		app := fiber.New()
		controller := NewCreditController(db)
		app.Post("/api/purchases/:id/repay", controller.RepayPurchase)
		return app
	}

	t.Run("rejects a negative amount", func(t *testing.T) {
		db := setupTestDB(t)
		seedGlobalConfig(t, db, 10)
		vendor := seedVendor(t, db)
		require.NoError(t, db.Model(vendor).UpdateColumn("outstanding_credit", 10000).Error)
		purchase := seedPendingPurchase(t, db, vendor.ID, 10000)
		app := newApp(db)

		resp, err := app.Test(jsonRequest(t, http.MethodPost,
			fmt.Sprintf("/api/purchases/%d/repay", purchase.ID),
			fiber.Map{"amount": -500}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		// A rejected request must not touch the purchase or the reservation.
		var reloaded Models.CreditPurchase
		require.NoError(t, db.First(&reloaded, purchase.ID).Error)
		assert.Equal(t, Models.PurchaseStatusPending, reloaded.Status)
		assert.Equal(t, 0.0, reloaded.RepaidAmount)

		var reloadedVendor Models.Vendor
		require.NoError(t, db.First(&reloadedVendor, vendor.ID).Error)
		assert.Equal(t, 10000.0, reloadedVendor.OutstandingCredit)
	})

	t.Run("zero amount settles the full payable", func(t *testing.T) {
		db := setupTestDB(t)
		seedGlobalConfig(t, db, 10)
		vendor := seedVendor(t, db)
		require.NoError(t, db.Model(vendor).UpdateColumn("outstanding_credit", 10000).Error)
		purchase := seedPendingPurchase(t, db, vendor.ID, 10000)
		app := newApp(db)

		resp, err := app.Test(jsonRequest(t, http.MethodPost,
			fmt.Sprintf("/api/purchases/%d/repay", purchase.ID),
			fiber.Map{"amount": 0}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var reloaded Models.CreditPurchase
		require.NoError(t, db.First(&reloaded, purchase.ID).Error)
		assert.Equal(t, Models.PurchaseStatusRepaid, reloaded.Status)
		require.NotNil(t, reloaded.RepaidAt)

		var reloadedVendor Models.Vendor
		require.NoError(t, db.First(&reloadedVendor, vendor.ID).Error)
		assert.Equal(t, 0.0, reloadedVendor.OutstandingCredit)
	})
}
