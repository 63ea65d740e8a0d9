package Reports

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"Souq/Credit"
	"Souq/Models"
)

// StatementController exports vendor settlement statements as Excel files
type StatementController struct {
	DB *gorm.DB
}

// NewStatementController creates a new StatementController
func NewStatementController(db *gorm.DB) *StatementController {
	return &StatementController{DB: db}
}

// GetVendorStatement streams an Excel settlement statement for a vendor:
// every credit purchase with its payable as of today, plus the earnings
// ledger.
func (c *StatementController) GetVendorStatement(ctx *fiber.Ctx) error {
	vendorID, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vendor ID"})
	}

	var vendor Models.Vendor
	if result := c.DB.First(&vendor, vendorID); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vendor not found"})
	}

	buf, err := c.buildStatement(&vendor)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build statement"})
	}

	filename := fmt.Sprintf("statement_%s_%s.xlsx", vendor.Name, time.Now().Format("2006-01-02"))
	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return ctx.Send(buf.Bytes())
}

func (c *StatementController) buildStatement(vendor *Models.Vendor) (*bytes.Buffer, error) {
	now := time.Now().UTC()

	var purchases []Models.CreditPurchase
	if err := c.DB.Where("vendor_id = ?", vendor.ID).Order("purchase_date").Find(&purchases).Error; err != nil {
		return nil, err
	}

	config, err := Models.GetTierConfig(c.DB)
	if err != nil {
		return nil, err
	}
	schedule, err := Credit.ResolveSchedule(vendor, &config)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()

	sheetName := "Credit Purchases"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Purchase ID", "Purchase Date", "Due Date", "Principal", "Status",
		"Repaid Amount", "Repaid At", "Payable Today", "Discount", "Interest", "Tier",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	// Style the header row
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
	})
	if err == nil {
		f.SetRowStyle(sheetName, 1, 1, headerStyle)
	}

	for rowIndex, purchase := range purchases {
		row := rowIndex + 2

		breakdown := Credit.ComputeRepayment(purchase.Principal, purchase.PurchaseDate, now, schedule)

		repaidAt := ""
		if purchase.RepaidAt != nil {
			repaidAt = purchase.RepaidAt.Format("2006-01-02")
		}

		values := []interface{}{
			purchase.ID,
			purchase.PurchaseDate.Format("2006-01-02"),
			purchase.DueDate.Format("2006-01-02"),
			purchase.Principal,
			purchase.Status,
			purchase.RepaidAmount,
			repaidAt,
			breakdown.Payable,
			breakdown.DiscountApplied,
			breakdown.InterestApplied,
			breakdown.TierName,
		}
		for colIndex, value := range values {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := 0; i < len(headers); i++ {
		f.SetColWidth(sheetName, string('A'+rune(i)), string('A'+rune(i)), 15)
	}

	if err := c.addEarningsSheet(f, vendor, headerStyle); err != nil {
		return nil, err
	}

	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing Excel file to buffer: %v", err)
	}
	return &buf, nil
}

func (c *StatementController) addEarningsSheet(f *excelize.File, vendor *Models.Vendor, headerStyle int) error {
	var earnings []Models.VendorEarning
	if err := c.DB.Where("vendor_id = ?", vendor.ID).Order("created_at").Find(&earnings).Error; err != nil {
		return err
	}

	sheetName := "Earnings"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}

	headers := []string{"Order ID", "Date", "Price Difference", "Earnings"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}
	f.SetRowStyle(sheetName, 1, 1, headerStyle)

	for rowIndex, earning := range earnings {
		row := rowIndex + 2
		values := []interface{}{
			earning.OrderID,
			earning.CreatedAt.Format("2006-01-02"),
			earning.PriceDifference,
			earning.Earnings,
		}
		for colIndex, value := range values {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := 0; i < len(headers); i++ {
		f.SetColWidth(sheetName, string('A'+rune(i)), string('A'+rune(i)), 15)
	}
	return nil
}
