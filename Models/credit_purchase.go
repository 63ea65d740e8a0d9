package Models

import (
	"time"

	"gorm.io/gorm"
)

// CreditPurchase statuses
const (
	PurchaseStatusPending         = "pending"
	PurchaseStatusPartiallyRepaid = "partially_repaid"
	PurchaseStatusRepaid          = "repaid"
)

// Lifecycle states tracked by the settlement sweep. LastNotifiedState holds the
// last state a notification was emitted for, so each transition alerts once.
const (
	LifecycleStatePending = "pending"
	LifecycleStateDueSoon = "due_soon"
	LifecycleStateOverdue = "overdue"
	LifecycleStateRepaid  = "repaid"
)

// CreditPurchase is a purchase made on deferred credit. Principal is immutable
// once the purchase is approved; only the repayment flow mutates the record.
type CreditPurchase struct {
	gorm.Model
	VendorID     uint       `json:"vendor_id" gorm:"not null;index"`
	Principal    float64    `json:"principal" gorm:"not null"`
	PurchaseDate time.Time  `json:"purchase_date" gorm:"not null"`
	DueDate      time.Time  `json:"due_date" gorm:"not null;index"`
	Status       string     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	RepaidAmount float64    `json:"repaid_amount" gorm:"not null;default:0"`
	RepaidAt     *time.Time `json:"repaid_at,omitempty"`

	LastNotifiedState string `json:"last_notified_state" gorm:"type:varchar(20);not null;default:'pending'"`

	Vendor Vendor `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
}

func (CreditPurchase) TableName() string {
	return "credit_purchases"
}

// Settled reports whether the purchase has been fully repaid.
func (p *CreditPurchase) Settled() bool {
	return p.Status == PurchaseStatusRepaid
}
