package Models

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type VendorFCMToken struct {
	gorm.Model
	VendorID uint   `json:"vendor_id" gorm:"uniqueIndex;not null"`
	Value    string `json:"value"`
}

type UpdateTokenRequest struct {
	VendorID uint   `json:"vendor_id" validate:"required"`
	Value    string `json:"value" validate:"required"`
}

func UpdateToken(c *fiber.Ctx) error {
	// Parse request body
	var req UpdateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.VendorID == 0 || req.Value == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Vendor ID and token value are required",
		})
	}

	var token VendorFCMToken

	// Find the vendor's token row or create it
	err := DB.Where("vendor_id = ?", req.VendorID).FirstOrCreate(&token, VendorFCMToken{
		VendorID: req.VendorID,
		Value:    req.Value,
	}).Error

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create/update token",
		})
	}

	// If token exists, update the value
	if token.Value != req.Value {
		token.Value = req.Value
		if err := DB.Save(&token).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update token",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Token updated successfully",
		"token":   token,
	})
}
