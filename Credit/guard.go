package Credit

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"Souq/Models"
)

// maxConflictRetries bounds how often a guard replays a transaction that lost
// a storage-level write conflict before giving up with ErrConflict.
const maxConflictRetries = 3

// CreditGuard performs the atomic check-and-reserve against a vendor's credit
// limit. The reservation is a single conditional UPDATE, never a read followed
// by a write, so two concurrent purchases that only jointly exceed the limit
// can never both succeed — in this process or any other one sharing the
// database.
type CreditGuard struct {
	DB *gorm.DB
}

func NewCreditGuard(db *gorm.DB) *CreditGuard {
	return &CreditGuard{DB: db}
}

// ApproveCreditPurchase reserves credit for a vendor and records the purchase.
// Returns the created purchase, or ErrBelowMinimumOrder, ErrVendorNotFound,
// ErrVendorNotApproved or ErrCreditLimitExceeded.
func (g *CreditGuard) ApproveCreditPurchase(vendorID uint, amount float64) (*Models.CreditPurchase, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrBelowMinimumOrder)
	}
	if amount < Models.MinOrderValue() {
		return nil, fmt.Errorf("%w: %.2f < %.2f", ErrBelowMinimumOrder, amount, Models.MinOrderValue())
	}

	var purchase *Models.CreditPurchase
	err := withConflictRetry(func() error {
		return g.DB.Transaction(func(tx *gorm.DB) error {
			// Atomic reservation: the WHERE clause re-checks the limit so the
			// increment only lands when the purchase still fits.
			result := tx.Model(&Models.Vendor{}).
				Where("id = ? AND status = ? AND outstanding_credit + ? <= credit_limit",
					vendorID, Models.VendorStatusApproved, amount).
				UpdateColumn("outstanding_credit", gorm.Expr("outstanding_credit + ?", amount))
			if result.Error != nil {
				return result.Error
			}

			if result.RowsAffected == 0 {
				var vendor Models.Vendor
				if err := tx.First(&vendor, vendorID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return ErrVendorNotFound
					}
					return err
				}
				if vendor.Status != Models.VendorStatusApproved {
					return ErrVendorNotApproved
				}
				return fmt.Errorf("%w: requested %.2f, available %.2f",
					ErrCreditLimitExceeded, amount, vendor.AvailableCredit())
			}

			var vendor Models.Vendor
			if err := tx.First(&vendor, vendorID).Error; err != nil {
				return err
			}

			now := time.Now().UTC()
			purchase = &Models.CreditPurchase{
				VendorID:     vendorID,
				Principal:    amount,
				PurchaseDate: now,
				DueDate:      now.AddDate(0, 0, vendor.RepaymentDays),
				Status:       Models.PurchaseStatusPending,
			}
			return tx.Create(purchase).Error
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Approved credit purchase %d for vendor %d: %.2f", purchase.ID, vendorID, amount)
	return purchase, nil
}

// ReleaseCredit gives back reserved credit once a purchase settles. Floored at
// zero so a double release can never drive the counter negative.
func (g *CreditGuard) ReleaseCredit(tx *gorm.DB, vendorID uint, principal float64) error {
	return tx.Model(&Models.Vendor{}).
		Where("id = ?", vendorID).
		UpdateColumn("outstanding_credit",
			gorm.Expr("CASE WHEN outstanding_credit - ? < 0 THEN 0 ELSE outstanding_credit - ? END",
				principal, principal)).Error
}

// withConflictRetry replays fn on storage write conflicts with a short
// backoff, then surfaces ErrConflict. Domain rejections pass straight through;
// a caller must re-read state before resubmitting those.
func withConflictRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = fn()
		if err == nil || !isConflict(err) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 25 * time.Millisecond)
	}
	return fmt.Errorf("%w: %v", ErrConflict, err)
}

func isConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "Deadlock")
}
