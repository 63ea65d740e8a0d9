package CronJobs

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"Souq/Credit"
	"Souq/Models"
	"Souq/Notifications"
)

// RepaymentTracker runs the periodic settlement sweep: it walks open credit
// purchases, recomputes the payable as of now (never from a cached value) and
// emits the lifecycle transition notifications. Runs in parallel with request
// handling; emission idempotency lives on the notification row, not here.
type RepaymentTracker struct {
	cronScheduler  *cron.Cron
	db             *gorm.DB
	dueSoonDays    int
	runImmediately bool
	jobID          cron.EntryID
}

// SweepReport summarizes one sweep run.
type SweepReport struct {
	Evaluated int `json:"evaluated"`
	DueSoon   int `json:"due_soon"`
	Overdue   int `json:"overdue"`
	Repaid    int `json:"repaid"`
	Errors    int `json:"errors"`
}

var stateRank = map[string]int{
	Models.LifecycleStatePending: 0,
	Models.LifecycleStateDueSoon: 1,
	Models.LifecycleStateOverdue: 2,
	Models.LifecycleStateRepaid:  3,
}

// NewRepaymentTracker creates a new tracker with the given configuration
func NewRepaymentTracker(db *gorm.DB, runImmediately bool) *RepaymentTracker {
	return &RepaymentTracker{
		cronScheduler:  cron.New(cron.WithSeconds()),
		db:             db,
		dueSoonDays:    Models.DueSoonDays(),
		runImmediately: runImmediately,
	}
}

// Start initiates the daily settlement sweep
func (t *RepaymentTracker) Start() error {
	schedule := Models.EnvString("TRACKER_SCHEDULE", "0 0 6 * * *")

	var err error
	t.jobID, err = t.cronScheduler.AddFunc(schedule, func() {
		log.Println("Running scheduled settlement sweep")
		t.runSweep()
	})
	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}

	t.cronScheduler.Start()
	log.Printf("Settlement sweep scheduler started (schedule: %s)", schedule)

	if t.runImmediately {
		log.Println("Running initial settlement sweep")
		t.runSweep()
	}

	return nil
}

// Stop terminates the tracker
func (t *RepaymentTracker) Stop() {
	if t.cronScheduler != nil {
		t.cronScheduler.Stop()
		log.Println("Settlement sweep scheduler stopped")
	}
}

// UpdateSchedule changes the sweep schedule
// Format: "0 0 6 * * *" = at 06:00:00 every day
func (t *RepaymentTracker) UpdateSchedule(schedule string) error {
	t.cronScheduler.Remove(t.jobID)

	var err error
	t.jobID, err = t.cronScheduler.AddFunc(schedule, func() {
		log.Println("Running scheduled settlement sweep")
		t.runSweep()
	})
	if err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}

	log.Printf("Settlement sweep schedule updated to: %s", schedule)
	return nil
}

// RunManualSweep executes a sweep outside the schedule (admin endpoint).
func (t *RepaymentTracker) RunManualSweep() (SweepReport, error) {
	log.Println("Running manual settlement sweep")
	return t.Sweep(time.Now().UTC())
}

func (t *RepaymentTracker) runSweep() {
	report, err := t.Sweep(time.Now().UTC())
	if err != nil {
		log.Printf("Error in settlement sweep: %v", err)
		return
	}
	log.Printf("Settlement sweep done: %d evaluated, %d due soon, %d overdue, %d repaid, %d errors",
		report.Evaluated, report.DueSoon, report.Overdue, report.Repaid, report.Errors)
}

// Sweep evaluates every purchase that still has a transition left to emit.
func (t *RepaymentTracker) Sweep(now time.Time) (SweepReport, error) {
	var report SweepReport

	var purchases []Models.CreditPurchase
	err := t.db.Where("status <> ? OR last_notified_state <> ?",
		Models.PurchaseStatusRepaid, Models.LifecycleStateRepaid).
		Find(&purchases).Error
	if err != nil {
		return report, fmt.Errorf("loading open purchases: %w", err)
	}

	config, err := Models.GetTierConfig(t.db)
	if err != nil {
		return report, fmt.Errorf("loading tier config: %w", err)
	}

	var newlyOverdue []overdueItem
	for i := range purchases {
		purchase := &purchases[i]
		report.Evaluated++

		var vendor Models.Vendor
		if err := t.db.First(&vendor, purchase.VendorID).Error; err != nil {
			log.Printf("Sweep: vendor %d for purchase %d: %v", purchase.VendorID, purchase.ID, err)
			report.Errors++
			continue
		}

		schedule, err := Credit.ResolveSchedule(&vendor, &config)
		if err != nil {
			// Bad schedules are blocked at write time; seeing one here means
			// the stored policy was edited out of band.
			log.Printf("Sweep: schedule for vendor %d: %v", vendor.ID, err)
			report.Errors++
			continue
		}

		breakdown := Credit.ComputeRepayment(purchase.Principal, purchase.PurchaseDate, now, schedule)
		state := t.evaluateState(purchase, breakdown, now)

		if stateRank[state] <= stateRank[purchase.LastNotifiedState] {
			continue
		}

		// Coverage can be reached without the repay endpoint when the payable
		// moves under an earlier partial repayment; finalize the record so the
		// reserved principal goes back to the credit line.
		if state == Models.LifecycleStateRepaid && purchase.Status != Models.PurchaseStatusRepaid {
			if err := t.finalizeRepaid(purchase, now); err != nil {
				log.Printf("Sweep: finalizing purchase %d: %v", purchase.ID, err)
				report.Errors++
				continue
			}
		}

		if err := Notifications.EmitTransition(t.db, purchase, state, breakdown); err != nil {
			log.Printf("Sweep: emitting %s for purchase %d: %v", state, purchase.ID, err)
			report.Errors++
			continue
		}

		switch state {
		case Models.LifecycleStateDueSoon:
			report.DueSoon++
		case Models.LifecycleStateOverdue:
			report.Overdue++
			newlyOverdue = append(newlyOverdue, overdueItem{
				Vendor:   vendor,
				Purchase: *purchase,
				Payable:  breakdown.Payable,
			})
		case Models.LifecycleStateRepaid:
			report.Repaid++
		}
	}

	if len(newlyOverdue) > 0 {
		sendOverdueDigest(newlyOverdue)
	}

	return report, nil
}

func (t *RepaymentTracker) finalizeRepaid(purchase *Models.CreditPurchase, now time.Time) error {
	return t.db.Transaction(func(tx *gorm.DB) error {
		repaidAt := now
		result := tx.Model(&Models.CreditPurchase{}).
			Where("id = ? AND status <> ?", purchase.ID, Models.PurchaseStatusRepaid).
			Updates(map[string]interface{}{
				"status":    Models.PurchaseStatusRepaid,
				"repaid_at": repaidAt,
			})
		if result.Error != nil {
			return result.Error
		}
		purchase.Status = Models.PurchaseStatusRepaid
		purchase.RepaidAt = &repaidAt
		if result.RowsAffected == 0 {
			// Someone else finalized it; the release already happened.
			return nil
		}

		guard := Credit.NewCreditGuard(tx)
		return guard.ReleaseCredit(tx, purchase.VendorID, purchase.Principal)
	})
}

// evaluateState derives the purchase's lifecycle state at an instant. Repaid
// wins as soon as the paid total covers the payable computed right now.
func (t *RepaymentTracker) evaluateState(purchase *Models.CreditPurchase, breakdown Credit.Breakdown, now time.Time) string {
	if purchase.Status == Models.PurchaseStatusRepaid {
		return Models.LifecycleStateRepaid
	}
	if purchase.RepaidAmount > 0 && purchase.RepaidAmount >= breakdown.Payable {
		return Models.LifecycleStateRepaid
	}
	if now.After(purchase.DueDate) {
		return Models.LifecycleStateOverdue
	}
	if !now.Before(purchase.DueDate.AddDate(0, 0, -t.dueSoonDays)) {
		return Models.LifecycleStateDueSoon
	}
	return Models.LifecycleStatePending
}
