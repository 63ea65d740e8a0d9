package Controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"

	"Souq/Models"
)

// AnalyticsController handles credit and settlement analytics endpoints
type AnalyticsController struct {
	DB *gorm.DB
}

// NewAnalyticsController creates a new AnalyticsController
func NewAnalyticsController(db *gorm.DB) *AnalyticsController {
	return &AnalyticsController{DB: db}
}

// CreditSummary returns the platform-wide credit position
func (c *AnalyticsController) CreditSummary(ctx *fiber.Ctx) error {
	var summary struct {
		VendorCount      int64   `json:"vendor_count"`
		TotalLimits      float64 `json:"total_credit_limits"`
		TotalOutstanding float64 `json:"total_outstanding_credit"`
		OpenPurchases    int64   `json:"open_purchases"`
		OverduePurchases int64   `json:"overdue_purchases"`
		TotalEarnings    float64 `json:"total_earnings"`
	}

	c.DB.Model(&Models.Vendor{}).Where("status = ?", Models.VendorStatusApproved).Count(&summary.VendorCount)
	c.DB.Model(&Models.Vendor{}).Select("COALESCE(SUM(credit_limit), 0)").Scan(&summary.TotalLimits)
	c.DB.Model(&Models.Vendor{}).Select("COALESCE(SUM(outstanding_credit), 0)").Scan(&summary.TotalOutstanding)
	c.DB.Model(&Models.CreditPurchase{}).Where("status <> ?", Models.PurchaseStatusRepaid).Count(&summary.OpenPurchases)
	c.DB.Model(&Models.CreditPurchase{}).
		Where("status <> ? AND due_date < ?", Models.PurchaseStatusRepaid, time.Now().UTC()).
		Count(&summary.OverduePurchases)
	c.DB.Model(&Models.VendorEarning{}).Select("COALESCE(SUM(earnings), 0)").Scan(&summary.TotalEarnings)

	return ctx.JSON(summary)
}

// MonthlyActivity returns purchases and repayments summed by month for the
// last 12 months
func (c *AnalyticsController) MonthlyActivity(ctx *fiber.Ctx) error {
	type MonthlyData struct {
		Month     string  `json:"month"`
		Purchased float64 `json:"purchased"`
		Repaid    float64 `json:"repaid"`
		Earnings  float64 `json:"earnings"`
	}

	endDate := time.Now().UTC()
	startDate := endDate.AddDate(-1, 0, 0)

	// Query the raw rows and group them in Go rather than fighting with
	// date formatting differences between SQL dialects.
	var purchases []Models.CreditPurchase
	if err := c.DB.Where("purchase_date BETWEEN ? AND ?", startDate, endDate).
		Find(&purchases).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to retrieve purchases"})
	}

	var earnings []Models.VendorEarning
	if err := c.DB.Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Find(&earnings).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to retrieve earnings"})
	}

	monthlySummary := make(map[string]*MonthlyData)
	var monthKeys []string

	// Create entries for all 12 months (even if no data)
	for i := 0; i < 12; i++ {
		date := endDate.AddDate(0, -i, 0)
		monthKey := date.Format("2006-01")
		monthlySummary[monthKey] = &MonthlyData{Month: date.Format("Jan 2006")}
		monthKeys = append(monthKeys, monthKey)
	}

	for _, purchase := range purchases {
		monthKey := purchase.PurchaseDate.Format("2006-01")
		if data, exists := monthlySummary[monthKey]; exists {
			data.Purchased += purchase.Principal
		}
		if purchase.RepaidAt != nil {
			if data, exists := monthlySummary[purchase.RepaidAt.Format("2006-01")]; exists {
				data.Repaid += purchase.RepaidAmount
			}
		}
	}

	for _, earning := range earnings {
		monthKey := earning.CreatedAt.Format("2006-01")
		if data, exists := monthlySummary[monthKey]; exists {
			data.Earnings += earning.Earnings
		}
	}

	// Chronological order
	slices.Sort(monthKeys)
	response := make([]MonthlyData, 0, len(monthKeys))
	for _, key := range monthKeys {
		response = append(response, *monthlySummary[key])
	}

	return ctx.JSON(response)
}

// TopVendors returns the top vendors by outstanding credit and earnings
func (c *AnalyticsController) TopVendors(ctx *fiber.Ctx) error {
	type VendorSummary struct {
		ID            uint    `json:"id"`
		Name          string  `json:"name"`
		Outstanding   float64 `json:"outstanding_credit"`
		CreditLimit   float64 `json:"credit_limit"`
		PurchaseCount int     `json:"purchase_count"`
		TotalEarnings float64 `json:"total_earnings"`
	}

	var results []VendorSummary

	c.DB.Raw(`
		SELECT
			v.id,
			v.name,
			v.outstanding_credit as outstanding,
			v.credit_limit,
			COUNT(p.id) as purchase_count,
			COALESCE((SELECT SUM(e.earnings) FROM vendor_earnings e
				WHERE e.vendor_id = v.id AND e.deleted_at IS NULL), 0) as total_earnings
		FROM vendors v
		LEFT JOIN credit_purchases p ON v.id = p.vendor_id AND p.deleted_at IS NULL
		WHERE v.deleted_at IS NULL
		GROUP BY v.id, v.name, v.outstanding_credit, v.credit_limit
		ORDER BY v.outstanding_credit DESC
		LIMIT 5
	`).Scan(&results)

	return ctx.JSON(results)
}

// RecentActivity returns the most recent credit purchases
func (c *AnalyticsController) RecentActivity(ctx *fiber.Ctx) error {
	type RecentPurchase struct {
		ID           uint      `json:"id"`
		PurchaseDate time.Time `json:"purchase_date"`
		VendorName   string    `json:"vendor_name"`
		Principal    float64   `json:"principal"`
		Status       string    `json:"status"`
	}

	var results []RecentPurchase

	c.DB.Raw(`
		SELECT
			p.id,
			p.purchase_date,
			v.name as vendor_name,
			p.principal,
			p.status
		FROM credit_purchases p
		JOIN vendors v ON p.vendor_id = v.id
		WHERE p.deleted_at IS NULL
		AND v.deleted_at IS NULL
		ORDER BY p.purchase_date DESC, p.id DESC
		LIMIT 10
	`).Scan(&results)

	return ctx.JSON(results)
}
