package Credit

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"Souq/Models"
)

// ComputeRepaymentForPurchase resolves the owning vendor's effective schedule
// and evaluates the purchase as of the given date. Read-only; always computed
// from the immutable purchase date and the caller's evaluation date, never
// from a cached payable.
func ComputeRepaymentForPurchase(db *gorm.DB, purchaseID uint, asOf time.Time) (*Models.CreditPurchase, Breakdown, error) {
	var purchase Models.CreditPurchase
	if err := db.First(&purchase, purchaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Breakdown{}, ErrPurchaseNotFound
		}
		return nil, Breakdown{}, err
	}

	var vendor Models.Vendor
	if err := db.First(&vendor, purchase.VendorID).Error; err != nil {
		return nil, Breakdown{}, fmt.Errorf("loading vendor %d: %w", purchase.VendorID, err)
	}

	config, err := Models.GetTierConfig(db)
	if err != nil {
		return nil, Breakdown{}, fmt.Errorf("loading tier config: %w", err)
	}

	schedule, err := ResolveSchedule(&vendor, &config)
	if err != nil {
		return nil, Breakdown{}, err
	}

	breakdown := ComputeRepayment(purchase.Principal, purchase.PurchaseDate, asOf, schedule)
	return &purchase, breakdown, nil
}

// SettleRepayment records a repayment against a purchase at the payable
// computed as of the repayment date. A zero or negative amount settles the
// whole remaining payable. When the paid total covers the payable the purchase
// goes terminal and the reserved principal is released back to the vendor's
// credit line, all in one transaction.
func SettleRepayment(db *gorm.DB, purchaseID uint, amount float64, asOf time.Time) (*Models.CreditPurchase, Breakdown, error) {
	var settled *Models.CreditPurchase
	var breakdown Breakdown

	err := withConflictRetry(func() error {
		return db.Transaction(func(tx *gorm.DB) error {
			var purchase Models.CreditPurchase
			if err := tx.First(&purchase, purchaseID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrPurchaseNotFound
				}
				return err
			}
			if purchase.Settled() {
				return ErrAlreadyRepaid
			}

			var vendor Models.Vendor
			if err := tx.First(&vendor, purchase.VendorID).Error; err != nil {
				return fmt.Errorf("loading vendor %d: %w", purchase.VendorID, err)
			}
			config, err := Models.GetTierConfig(tx)
			if err != nil {
				return fmt.Errorf("loading tier config: %w", err)
			}
			schedule, err := ResolveSchedule(&vendor, &config)
			if err != nil {
				return err
			}

			breakdown = ComputeRepayment(purchase.Principal, purchase.PurchaseDate, asOf, schedule)

			paying := amount
			if paying <= 0 {
				paying = breakdown.Payable - purchase.RepaidAmount
			}

			purchase.RepaidAmount += paying
			if purchase.RepaidAmount >= breakdown.Payable {
				repaidAt := asOf
				purchase.Status = Models.PurchaseStatusRepaid
				purchase.RepaidAt = &repaidAt
			} else {
				purchase.Status = Models.PurchaseStatusPartiallyRepaid
			}

			updates := map[string]interface{}{
				"repaid_amount": purchase.RepaidAmount,
				"status":        purchase.Status,
				"repaid_at":     purchase.RepaidAt,
			}
			if err := tx.Model(&Models.CreditPurchase{}).
				Where("id = ?", purchase.ID).Updates(updates).Error; err != nil {
				return err
			}

			if purchase.Settled() {
				guard := CreditGuard{DB: tx}
				if err := guard.ReleaseCredit(tx, purchase.VendorID, purchase.Principal); err != nil {
					return fmt.Errorf("releasing credit: %w", err)
				}
			}

			settled = &purchase
			return nil
		})
	})
	if err != nil {
		return nil, Breakdown{}, err
	}
	return settled, breakdown, nil
}
