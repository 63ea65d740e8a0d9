package Controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Souq/Models"
	"Souq/Notifications"
)

// NotificationController exposes the vendor's repayment lifecycle alerts
type NotificationController struct {
	DB *gorm.DB
}

// NewNotificationController creates a new NotificationController
func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

// GetVendorNotifications retrieves a vendor's notifications, newest first
func (c *NotificationController) GetVendorNotifications(ctx *fiber.Ctx) error {
	vendorID, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vendor ID"})
	}

	var notifications []Models.VendorNotification
	query := c.DB.Where("vendor_id = ?", vendorID).Order("created_at DESC")
	if ctx.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}
	if result := query.Find(&notifications); result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve notifications"})
	}

	return ctx.JSON(notifications)
}

// MarkNotificationRead flags a notification as seen
func (c *NotificationController) MarkNotificationRead(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification ID"})
	}

	if err := Notifications.MarkRead(c.DB, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notification"})
	}

	return ctx.JSON(fiber.Map{"message": "Notification marked as read"})
}
