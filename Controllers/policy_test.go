package Controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
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
		&Models.TierConfig{},
		&Models.Vendor{},
		&Models.CreditPurchase{},
		&Models.VendorNotification{},
		&Models.VendorFCMToken{},
	))
	return db
}

// seedGlobalConfig stores a global schedule whose discount window runs
// [0, discountEnd) at 5%, with interest [30, 60) at 2% and a 30-day default.
func seedGlobalConfig(t *testing.T, db *gorm.DB, discountEnd int) {
	t.Helper()
	discount, err := Models.EncodeTiers([]Models.Tier{
		{PeriodStart: 0, PeriodEnd: discountEnd, Rate: 5, TierName: "Early Settlement"},
	})
	require.NoError(t, err)
	interest, err := Models.EncodeTiers([]Models.Tier{
		{PeriodStart: 30, PeriodEnd: 60, Rate: 2, TierName: "Late"},
	})
	require.NoError(t, err)
	require.NoError(t, db.Create(&Models.TierConfig{
		DiscountTiers:        discount,
		InterestTiers:        interest,
		DefaultRepaymentDays: 30,
	}).Error)
}

func seedVendor(t *testing.T, db *gorm.DB) *Models.Vendor {
	t.Helper()
	vendor := &Models.Vendor{
		Name:          fmt.Sprintf("Vendor %s", strings.ReplaceAll(t.Name(), "/", " ")),
		Status:        Models.VendorStatusApproved,
		CreditLimit:   100000,
		RepaymentDays: 30,
	}
	require.NoError(t, db.Create(vendor).Error)
	return vendor
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestUpdateVendorPolicy(t *testing.T) {
	newApp := func(db *gorm.DB) *fiber.App {
		app := fiber.New()
		controller := NewPolicyController(db)
		app.Put("/api/vendors/:id/policy", controller.UpdateVendorPolicy)
		return app
	}

	t.Run("rejects a grace period shorter than the global discount window", func(t *testing.T) {
		db := setupTestDB(t)
		seedGlobalConfig(t, db, 15)
		vendor := seedVendor(t, db)
		app := newApp(db)

		// Without an override the global tables still apply, so a 10-day
		// deadline would let the [0, 15) discount reach past the due date.
		resp, err := app.Test(jsonRequest(t, http.MethodPut,
			fmt.Sprintf("/api/vendors/%d/policy", vendor.ID),
			fiber.Map{"repayment_days": 10, "override_global_tiers": false}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

		var reloaded Models.Vendor
		require.NoError(t, db.First(&reloaded, vendor.ID).Error)
		assert.Equal(t, 30, reloaded.RepaymentDays)
		assert.False(t, reloaded.OverrideGlobalTiers)
	})

	t.Run("accepts a grace period compatible with the global tables", func(t *testing.T) {
		db := setupTestDB(t)
		seedGlobalConfig(t, db, 15)
		vendor := seedVendor(t, db)
		app := newApp(db)

		resp, err := app.Test(jsonRequest(t, http.MethodPut,
			fmt.Sprintf("/api/vendors/%d/policy", vendor.ID),
			fiber.Map{"repayment_days": 20, "override_global_tiers": false}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var reloaded Models.Vendor
		require.NoError(t, db.First(&reloaded, vendor.ID).Error)
		assert.Equal(t, 20, reloaded.RepaymentDays)
	})

	t.Run("override vendors validate against their own tables", func(t *testing.T) {
		db := setupTestDB(t)
		seedGlobalConfig(t, db, 15)
		vendor := seedVendor(t, db)
		app := newApp(db)

		// A 10-day deadline is fine when the custom tables fit it, even
		// though the global discount window does not.
		resp, err := app.Test(jsonRequest(t, http.MethodPut,
			fmt.Sprintf("/api/vendors/%d/policy", vendor.ID),
			fiber.Map{
				"repayment_days":        10,
				"override_global_tiers": true,
				"custom_discount_tiers": []Models.Tier{
					{PeriodStart: 0, PeriodEnd: 10, Rate: 3, TierName: "Early"},
				},
				"custom_interest_tiers": []Models.Tier{
					{PeriodStart: 10, PeriodEnd: 40, Rate: 2, TierName: "Late"},
				},
			}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var reloaded Models.Vendor
		require.NoError(t, db.First(&reloaded, vendor.ID).Error)
		assert.Equal(t, 10, reloaded.RepaymentDays)
		assert.True(t, reloaded.OverrideGlobalTiers)
	})

	t.Run("rejects overlapping custom tiers", func(t *testing.T) {
		db := setupTestDB(t)
		seedGlobalConfig(t, db, 15)
		vendor := seedVendor(t, db)
		app := newApp(db)

		resp, err := app.Test(jsonRequest(t, http.MethodPut,
			fmt.Sprintf("/api/vendors/%d/policy", vendor.ID),
			fiber.Map{
				"repayment_days":        30,
				"override_global_tiers": true,
				"custom_discount_tiers": []Models.Tier{
					{PeriodStart: 0, PeriodEnd: 10, Rate: 5, TierName: "Early"},
					{PeriodStart: 5, PeriodEnd: 15, Rate: 3, TierName: "Overlap"},
				},
			}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("active agreement needs a positive amount", func(t *testing.T) {
		db := setupTestDB(t)
		seedGlobalConfig(t, db, 15)
		vendor := seedVendor(t, db)
		app := newApp(db)

		resp, err := app.Test(jsonRequest(t, http.MethodPut,
			fmt.Sprintf("/api/vendors/%d/policy", vendor.ID),
			fiber.Map{
				"repayment_days": 30,
				"special_agreement": fiber.Map{
					"active":        true,
					"agreed_amount": 0,
				},
			}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	})
}
