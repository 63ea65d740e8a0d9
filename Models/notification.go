package Models

import (
	"crypto/sha256"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification types emitted by the repayment lifecycle tracker
const (
	NotificationDueReminder      = "due_reminder"
	NotificationOverdueAlert     = "overdue_alert"
	NotificationRepaymentSuccess = "repayment_success"
)

// Notification priorities
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// VendorNotification is a repayment lifecycle event. Metadata snapshots the
// amounts at emission time (principal, current payable, savings or penalty,
// days elapsed) so the UI can render the alert without recomputing.
type VendorNotification struct {
	gorm.Model
	VendorID   uint           `json:"vendor_id" gorm:"not null;index"`
	PurchaseID uint           `json:"purchase_id" gorm:"not null;index"`
	Type       string         `json:"type" gorm:"type:varchar(30);not null"`
	Priority   string         `json:"priority" gorm:"type:varchar(10);not null;default:'normal'"`
	Title      string         `json:"title" gorm:"size:255"`
	Message    string         `json:"message" gorm:"type:text"`
	Metadata   datatypes.JSON `json:"metadata,omitempty"`
	Read       bool           `json:"read" gorm:"default:false"`
	Dismissed  bool           `json:"dismissed" gorm:"default:false"`
	Hash       string         `json:"-" gorm:"uniqueIndex;size:64"`
}

// BeforeCreate derives the emission key. One notification per purchase per
// transition type survives the unique index; retried sweeps hit a duplicate.
func (n *VendorNotification) BeforeCreate(tx *gorm.DB) error {
	if n.Hash == "" {
		data := fmt.Sprintf("%d|%d|%s", n.VendorID, n.PurchaseID, n.Type)
		hash := sha256.Sum256([]byte(data))
		n.Hash = fmt.Sprintf("%x", hash)
	}
	return nil
}
