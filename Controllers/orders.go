package Controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Souq/Earnings"
	"Souq/Models"
)

// OrderController handles order and earnings endpoints
type OrderController struct {
	DB *gorm.DB
}

// NewOrderController creates a new OrderController
func NewOrderController(db *gorm.DB) *OrderController {
	return &OrderController{DB: db}
}

type CreateOrderItemRequest struct {
	ProductName   string  `json:"product_name" validate:"required"`
	PriceToUser   float64 `json:"price_to_user" validate:"gte=0"`
	PriceToVendor float64 `json:"price_to_vendor" validate:"gte=0"`
	Quantity      int     `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	VendorID         uint                     `json:"vendor_id" validate:"required"`
	BuyerID          uint                     `json:"buyer_id"`
	FulfilledByAdmin bool                     `json:"fulfilled_by_admin"`
	Items            []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateOrder records an order against a vendor
func (c *OrderController) CreateOrder(ctx *fiber.Ctx) error {
	var input CreateOrderRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := Validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": TranslateValidationError(err)})
	}

	var vendor Models.Vendor
	if result := c.DB.First(&vendor, input.VendorID); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vendor not found"})
	}

	order := Models.Order{
		VendorID:         input.VendorID,
		BuyerID:          input.BuyerID,
		Status:           Models.OrderStatusPlaced,
		FulfilledByAdmin: input.FulfilledByAdmin,
	}
	for _, item := range input.Items {
		order.Items = append(order.Items, Models.OrderItem{
			ProductName:   item.ProductName,
			PriceToUser:   item.PriceToUser,
			PriceToVendor: item.PriceToVendor,
			Quantity:      item.Quantity,
		})
	}

	if result := c.DB.Create(&order); result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create order"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(order)
}

type ConfirmDeliveryRequest struct {
	PaymentConfirmed bool `json:"payment_confirmed"`
}

// ConfirmDelivery marks an order delivered and derives the commission ledger
// entry. Safe to retry: the earning is written at most once per order.
func (c *OrderController) ConfirmDelivery(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	var input ConfirmDeliveryRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var order Models.Order
	if result := c.DB.First(&order, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
	}

	if order.Status != Models.OrderStatusDelivered {
		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status":       Models.OrderStatusDelivered,
			"delivered_at": now,
		}
		if input.PaymentConfirmed {
			updates["payment_confirmed"] = true
		}
		if err := c.DB.Model(&order).Updates(updates).Error; err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update order"})
		}
	} else if input.PaymentConfirmed && !order.PaymentConfirmed {
		if err := c.DB.Model(&order).UpdateColumn("payment_confirmed", true).Error; err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update order"})
		}
	}

	earning, err := Earnings.RecordDeliveryEarnings(c.DB, order.ID)
	if err != nil {
		if errors.Is(err, Earnings.ErrOrderNotEligible) {
			// Delivered but no commission due (admin-fulfilled or unpaid).
			return ctx.JSON(fiber.Map{"order_id": order.ID, "earnings": nil})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record earnings"})
	}

	return ctx.JSON(fiber.Map{"order_id": order.ID, "earnings": earning})
}

// GetVendorEarnings retrieves a vendor's commission ledger
func (c *OrderController) GetVendorEarnings(ctx *fiber.Ctx) error {
	vendorID, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vendor ID"})
	}

	var vendor Models.Vendor
	if result := c.DB.First(&vendor, vendorID); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vendor not found"})
	}

	var earnings []Models.VendorEarning
	if result := c.DB.Where("vendor_id = ?", vendorID).Order("created_at DESC").Find(&earnings); result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve earnings"})
	}

	var total float64
	c.DB.Model(&Models.VendorEarning{}).Where("vendor_id = ?", vendorID).
		Select("COALESCE(SUM(earnings), 0)").Scan(&total)

	return ctx.JSON(fiber.Map{
		"vendor_id":      vendorID,
		"total_earnings": total,
		"earnings":       earnings,
	})
}
