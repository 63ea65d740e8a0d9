package Controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Souq/Geofence"
	"Souq/Models"
)

// VendorController handles vendor-related API endpoints
type VendorController struct {
	DB    *gorm.DB
	Guard *Geofence.Guard
}

// NewVendorController creates a new VendorController
func NewVendorController(db *gorm.DB) *VendorController {
	return &VendorController{DB: db, Guard: Geofence.NewGuard(db)}
}

type RegisterVendorRequest struct {
	Name        string  `json:"name" validate:"required"`
	Phone       string  `json:"phone" validate:"required"`
	Contact     string  `json:"contact"`
	Notes       string  `json:"notes"`
	Latitude    float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	CreditLimit float64 `json:"credit_limit" validate:"gte=0"`
}

// RegisterVendor creates a vendor if its exclusivity zone is free
func (c *VendorController) RegisterVendor(ctx *fiber.Ctx) error {
	var input RegisterVendorRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := Validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": TranslateValidationError(err)})
	}

	vendor := Models.Vendor{
		Name:        input.Name,
		Phone:       input.Phone,
		Contact:     input.Contact,
		Notes:       input.Notes,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		CreditLimit: input.CreditLimit,
		Status:      Models.VendorStatusPending,
	}
	if user, ok := ctx.Locals("user").(Models.User); ok {
		vendor.UserID = user.ID
	}

	if err := c.Guard.RegisterVendor(&vendor); err != nil {
		if errors.Is(err, Geofence.ErrVendorExists) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Another vendor already operates within the exclusivity radius of this location",
			})
		}
		if isUniqueViolation(err) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A vendor with this name already exists",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to register vendor",
		})
	}

	return ctx.Status(fiber.StatusCreated).JSON(vendor)
}

// GetVendors retrieves all vendors
func (c *VendorController) GetVendors(ctx *fiber.Ctx) error {
	var vendors []Models.Vendor
	query := c.DB
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if result := query.Find(&vendors); result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve vendors"})
	}

	return ctx.JSON(vendors)
}

// GetVendor retrieves a single vendor by ID
func (c *VendorController) GetVendor(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vendor ID"})
	}

	var vendor Models.Vendor
	if result := c.DB.First(&vendor, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vendor not found"})
	}

	return ctx.JSON(vendor)
}

type UpdateVendorStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected suspended"`
}

// UpdateVendorStatus approves, rejects or suspends a vendor (admin only)
func (c *VendorController) UpdateVendorStatus(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vendor ID"})
	}

	var input UpdateVendorStatusRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := Validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": TranslateValidationError(err)})
	}

	var vendor Models.Vendor
	if result := c.DB.First(&vendor, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vendor not found"})
	}

	if err := c.DB.Model(&vendor).UpdateColumn("status", input.Status).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update vendor status"})
	}

	return ctx.JSON(vendor)
}

// GetVendorCredit returns the vendor's credit position
func (c *VendorController) GetVendorCredit(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vendor ID"})
	}

	var vendor Models.Vendor
	if result := c.DB.First(&vendor, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vendor not found"})
	}

	var pendingCount int64
	c.DB.Model(&Models.CreditPurchase{}).
		Where("vendor_id = ? AND status <> ?", vendor.ID, Models.PurchaseStatusRepaid).
		Count(&pendingCount)

	return ctx.JSON(fiber.Map{
		"vendor_id":          vendor.ID,
		"name":               vendor.Name,
		"credit_limit":       vendor.CreditLimit,
		"outstanding_credit": vendor.OutstandingCredit,
		"available_credit":   vendor.AvailableCredit(),
		"open_purchases":     pendingCount,
	})
}

// DeleteVendor soft deletes a vendor
func (c *VendorController) DeleteVendor(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vendor ID"})
	}

	var vendor Models.Vendor
	if result := c.DB.First(&vendor, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vendor not found"})
	}

	if vendor.OutstandingCredit > 0 {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Vendor still has outstanding credit",
		})
	}

	c.DB.Delete(&vendor)

	return ctx.JSON(fiber.Map{"message": "Vendor deleted successfully"})
}
