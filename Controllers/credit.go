package Controllers

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Souq/Credit"
	"Souq/Models"
	"Souq/Notifications"
)

// CreditController handles credit purchase and repayment endpoints
type CreditController struct {
	DB    *gorm.DB
	Guard *Credit.CreditGuard
}

// NewCreditController creates a new CreditController
func NewCreditController(db *gorm.DB) *CreditController {
	return &CreditController{DB: db, Guard: Credit.NewCreditGuard(db)}
}

type CreatePurchaseRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// CreatePurchase evaluates a credit purchase request against the vendor's
// available credit and records it on approval
func (c *CreditController) CreatePurchase(ctx *fiber.Ctx) error {
	vendorID, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vendor ID"})
	}

	var input CreatePurchaseRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := Validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": TranslateValidationError(err)})
	}

	purchase, err := c.Guard.ApproveCreditPurchase(uint(vendorID), input.Amount)
	if err != nil {
		switch {
		case errors.Is(err, Credit.ErrBelowMinimumOrder):
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, Credit.ErrVendorNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vendor not found"})
		case errors.Is(err, Credit.ErrVendorNotApproved):
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Vendor is not approved for credit purchases"})
		case errors.Is(err, Credit.ErrCreditLimitExceeded):
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, Credit.ErrConflict):
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Please retry the request"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to evaluate purchase"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(purchase)
}

// GetRepayment computes the payable breakdown for a purchase as of a date
// (today by default). Recomputed on every call; there is no cached payable.
func (c *CreditController) GetRepayment(ctx *fiber.Ctx) error {
	purchaseID, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid purchase ID"})
	}

	asOf := time.Now().UTC()
	if raw := ctx.Query("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid as_of format. Use YYYY-MM-DD"})
		}
		asOf = parsed
	}

	purchase, breakdown, err := Credit.ComputeRepaymentForPurchase(c.DB, uint(purchaseID), asOf)
	if err != nil {
		if errors.Is(err, Credit.ErrPurchaseNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Purchase not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute repayment"})
	}

	return ctx.JSON(fiber.Map{
		"purchase":  purchase,
		"breakdown": breakdown,
	})
}

type RepayRequest struct {
	// Amount to pay; zero settles the full remaining payable.
	Amount float64 `json:"amount" validate:"gte=0"`
}

// RepayPurchase settles a purchase (fully or partially) at the payable
// computed as of today
func (c *CreditController) RepayPurchase(ctx *fiber.Ctx) error {
	purchaseID, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid purchase ID"})
	}

	var input RepayRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := Validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": TranslateValidationError(err)})
	}

	purchase, breakdown, err := Credit.SettleRepayment(c.DB, uint(purchaseID), input.Amount, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, Credit.ErrPurchaseNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Purchase not found"})
		case errors.Is(err, Credit.ErrAlreadyRepaid):
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Purchase already repaid"})
		case errors.Is(err, Credit.ErrConflict):
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Please retry the request"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record repayment"})
	}

	if purchase.Settled() {
		if err := Notifications.EmitTransition(c.DB, purchase, Models.LifecycleStateRepaid, breakdown); err != nil {
			// Notification delivery never rolls back a settled repayment.
			log.Printf("Error emitting repayment notification for purchase %d: %v", purchase.ID, err)
		}
	}

	return ctx.JSON(fiber.Map{
		"purchase":  purchase,
		"breakdown": breakdown,
	})
}

// GetVendorPurchases retrieves a vendor's credit purchase ledger
func (c *CreditController) GetVendorPurchases(ctx *fiber.Ctx) error {
	vendorID, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vendor ID"})
	}

	var vendor Models.Vendor
	if result := c.DB.First(&vendor, vendorID); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vendor not found"})
	}

	var purchases []Models.CreditPurchase
	query := c.DB.Where("vendor_id = ?", vendorID).Order("purchase_date DESC")
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if result := query.Find(&purchases); result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve purchases"})
	}

	return ctx.JSON(purchases)
}
