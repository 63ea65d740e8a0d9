package Models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Order statuses
const (
	OrderStatusPlaced    = "placed"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	gorm.Model
	VendorID         uint       `json:"vendor_id" gorm:"not null;index"`
	BuyerID          uint       `json:"buyer_id" gorm:"index"`
	Status           string     `json:"status" gorm:"type:varchar(20);not null;default:'placed'"`
	FulfilledByAdmin bool       `json:"fulfilled_by_admin" gorm:"default:false"`
	PaymentConfirmed bool       `json:"payment_confirmed" gorm:"default:false"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

type OrderItem struct {
	gorm.Model
	OrderID     uint    `json:"order_id" gorm:"not null;index"`
	ProductName string  `json:"product_name" gorm:"size:255;not null"`
	PriceToUser float64 `json:"price_to_user" gorm:"not null"`
	// PriceToVendor is the vendor's stocked price for the item; the spread
	// against PriceToUser is the commission basis.
	PriceToVendor float64 `json:"price_to_vendor" gorm:"not null"`
	Quantity      int     `json:"quantity" gorm:"not null;default:1"`
}

// VendorEarning is a commission ledger entry derived from the price difference
// on a delivered order. The composite unique index on (order_id, vendor_id) is
// the idempotency key: at most one entry per order per vendor, ever, no matter
// how many times delivery confirmation is retried.
type VendorEarning struct {
	gorm.Model
	OrderID         uint           `json:"order_id" gorm:"not null;uniqueIndex:idx_order_vendor_earning"`
	VendorID        uint           `json:"vendor_id" gorm:"not null;uniqueIndex:idx_order_vendor_earning;index"`
	Earnings        float64        `json:"earnings" gorm:"not null"`
	PriceDifference float64        `json:"price_difference" gorm:"not null"`
	ItemBreakdown   datatypes.JSON `json:"item_breakdown,omitempty"`
}

func (VendorEarning) TableName() string {
	return "vendor_earnings"
}
