package Earnings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"Souq/Models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNotEligible means the order is not in a state that produces
	// earnings: not delivered, payment unconfirmed, or escalated to an admin.
	ErrOrderNotEligible = errors.New("order not eligible for earnings")
)

// ItemEarning is the per-line-item commission basis kept alongside the ledger
// entry for auditing.
type ItemEarning struct {
	ProductName   string  `json:"product_name"`
	PriceToUser   float64 `json:"price_to_user"`
	PriceToVendor float64 `json:"price_to_vendor"`
	Quantity      int     `json:"quantity"`
	Earning       float64 `json:"earning"`
}

// RecordDeliveryEarnings derives the commission ledger entry for a delivered,
// fully-paid order the vendor fulfilled directly. Per item the earning is
// (priceToUser - priceToVendor) x quantity clipped at zero; the total is their
// sum.
//
// The write is idempotent: the unique (order_id, vendor_id) index is the
// idempotency key, and an existing entry short-circuits the computation and is
// returned as-is — a delivery-confirmation retry or a background re-run can
// never double-credit or overwrite the ledger.
func RecordDeliveryEarnings(db *gorm.DB, orderID uint) (*Models.VendorEarning, error) {
	var order Models.Order
	if err := db.Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.Status != Models.OrderStatusDelivered {
		return nil, fmt.Errorf("%w: status %q", ErrOrderNotEligible, order.Status)
	}
	if !order.PaymentConfirmed {
		return nil, fmt.Errorf("%w: payment not confirmed", ErrOrderNotEligible)
	}
	if order.FulfilledByAdmin {
		return nil, fmt.Errorf("%w: fulfilled by admin, no vendor commission", ErrOrderNotEligible)
	}

	// Fast path for retries.
	if existing, err := findExisting(db, order.ID, order.VendorID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	total := decimal.Zero
	difference := decimal.Zero
	items := make([]ItemEarning, 0, len(order.Items))
	for _, item := range order.Items {
		spread := decimal.NewFromFloat(item.PriceToUser).
			Sub(decimal.NewFromFloat(item.PriceToVendor)).
			Mul(decimal.NewFromInt(int64(item.Quantity)))
		difference = difference.Add(spread)

		earning := spread
		if earning.IsNegative() {
			earning = decimal.Zero
		}
		total = total.Add(earning)

		value, _ := earning.Round(2).Float64()
		items = append(items, ItemEarning{
			ProductName:   item.ProductName,
			PriceToUser:   item.PriceToUser,
			PriceToVendor: item.PriceToVendor,
			Quantity:      item.Quantity,
			Earning:       value,
		})
	}

	breakdown, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	totalValue, _ := total.Round(2).Float64()
	differenceValue, _ := difference.Round(2).Float64()
	entry := Models.VendorEarning{
		OrderID:         order.ID,
		VendorID:        order.VendorID,
		Earnings:        totalValue,
		PriceDifference: differenceValue,
		ItemBreakdown:   datatypes.JSON(breakdown),
	}

	if err := db.Create(&entry).Error; err != nil {
		// A concurrent retry won the insert; its entry is the ledger truth.
		if isDuplicate(err) {
			existing, lookupErr := findExisting(db, order.ID, order.VendorID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	log.Printf("Recorded earnings %.2f for vendor %d on order %d", entry.Earnings, entry.VendorID, entry.OrderID)
	return &entry, nil
}

func findExisting(db *gorm.DB, orderID, vendorID uint) (*Models.VendorEarning, error) {
	var existing Models.VendorEarning
	err := db.Where("order_id = ? AND vendor_id = ?", orderID, vendorID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

func isDuplicate(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "Duplicate entry")
}
