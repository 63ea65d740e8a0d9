package Notifications

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"Souq/Credit"
	"Souq/Models"
)

// EmitTransition records the notification for a lifecycle transition and
// pushes it to the vendor's device. Exactly one notification survives per
// purchase per transition type: the row carries a unique emission key, and a
// duplicate create (a re-running sweep, a retried repay call) is treated as
// already-emitted and skipped. The purchase's LastNotifiedState is advanced
// either way.
func EmitTransition(db *gorm.DB, purchase *Models.CreditPurchase, state string, breakdown Credit.Breakdown) error {
	notificationType, ok := transitionType(state)
	if !ok {
		// pending has no alert; nothing to emit.
		return advanceNotifiedState(db, purchase, state)
	}

	metadata, err := json.Marshal(map[string]interface{}{
		"principal":    purchase.Principal,
		"payable":      breakdown.Payable,
		"savings":      breakdown.DiscountApplied,
		"penalty":      breakdown.InterestApplied,
		"days_elapsed": breakdown.DaysElapsed,
		"tier_name":    breakdown.TierName,
	})
	if err != nil {
		return err
	}

	notification := Models.VendorNotification{
		VendorID:   purchase.VendorID,
		PurchaseID: purchase.ID,
		Type:       notificationType,
		Priority:   transitionPriority(state),
		Title:      transitionTitle(state),
		Message:    transitionMessage(purchase, state, breakdown),
		Metadata:   datatypes.JSON(metadata),
	}

	if err := db.Create(&notification).Error; err != nil {
		if isDuplicate(err) {
			// Already emitted for this transition on an earlier tick.
			return advanceNotifiedState(db, purchase, state)
		}
		return err
	}

	if err := advanceNotifiedState(db, purchase, state); err != nil {
		return err
	}

	Push(db, &notification)
	return nil
}

func advanceNotifiedState(db *gorm.DB, purchase *Models.CreditPurchase, state string) error {
	if purchase.LastNotifiedState == state {
		return nil
	}
	purchase.LastNotifiedState = state
	return db.Model(&Models.CreditPurchase{}).
		Where("id = ?", purchase.ID).
		UpdateColumn("last_notified_state", state).Error
}

func transitionType(state string) (string, bool) {
	switch state {
	case Models.LifecycleStateDueSoon:
		return Models.NotificationDueReminder, true
	case Models.LifecycleStateOverdue:
		return Models.NotificationOverdueAlert, true
	case Models.LifecycleStateRepaid:
		return Models.NotificationRepaymentSuccess, true
	}
	return "", false
}

func transitionPriority(state string) string {
	switch state {
	case Models.LifecycleStateOverdue:
		return Models.PriorityHigh
	case Models.LifecycleStateDueSoon:
		return Models.PriorityNormal
	}
	return Models.PriorityLow
}

func transitionTitle(state string) string {
	switch state {
	case Models.LifecycleStateDueSoon:
		return "Repayment due soon"
	case Models.LifecycleStateOverdue:
		return "Repayment overdue"
	}
	return "Repayment received"
}

func transitionMessage(purchase *Models.CreditPurchase, state string, breakdown Credit.Breakdown) string {
	switch state {
	case Models.LifecycleStateDueSoon:
		if breakdown.DiscountApplied > 0 {
			return fmt.Sprintf("Your purchase of %.2f is due on %s. Settle now for %.2f and save %.2f.",
				purchase.Principal, purchase.DueDate.Format("2006-01-02"), breakdown.Payable, breakdown.DiscountApplied)
		}
		return fmt.Sprintf("Your purchase of %.2f is due on %s. Amount payable: %.2f.",
			purchase.Principal, purchase.DueDate.Format("2006-01-02"), breakdown.Payable)
	case Models.LifecycleStateOverdue:
		return fmt.Sprintf("Your purchase of %.2f was due on %s. Amount payable is now %.2f (%.2f penalty, %d days elapsed).",
			purchase.Principal, purchase.DueDate.Format("2006-01-02"), breakdown.Payable,
			breakdown.InterestApplied, breakdown.DaysElapsed)
	}
	return fmt.Sprintf("Repayment of %.2f received. Your credit line has been restored.", purchase.RepaidAmount)
}

func isDuplicate(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "Duplicate entry")
}

// MarkRead flags a notification as seen by the vendor.
func MarkRead(db *gorm.DB, notificationID uint) error {
	result := db.Model(&Models.VendorNotification{}).
		Where("id = ?", notificationID).
		UpdateColumn("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
