package Credit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"Souq/Models"
)

func standardSchedule() Schedule {
	return Schedule{
		Kind: ScheduleStandard,
		DiscountTiers: []Models.Tier{
			{PeriodStart: 0, PeriodEnd: 10, Rate: 5, TierName: "Early Settlement"},
			{PeriodStart: 10, PeriodEnd: 15, Rate: 2, TierName: "Prompt Settlement"},
		},
		InterestTiers: []Models.Tier{
			{PeriodStart: 30, PeriodEnd: 60, Rate: 2, TierName: "Late"},
			{PeriodStart: 60, PeriodEnd: 90, Rate: 5, TierName: "Seriously Late"},
		},
		RepaymentDays: 30,
	}
}

func TestComputeRepayment(t *testing.T) {
	purchaseDate := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	schedule := standardSchedule()

	t.Run("discount tier applies", func(t *testing.T) {
		evalDate := purchaseDate.AddDate(0, 0, 5)
		breakdown := ComputeRepayment(10000, purchaseDate, evalDate, schedule)

		assert.Equal(t, 9500.0, breakdown.Payable)
		assert.Equal(t, 500.0, breakdown.DiscountApplied)
		assert.Equal(t, 0.0, breakdown.InterestApplied)
		assert.Equal(t, 5.0, breakdown.Rate)
		assert.Equal(t, "Early Settlement", breakdown.TierName)
		assert.Equal(t, 5, breakdown.DaysElapsed)
	})

	t.Run("interest tier applies", func(t *testing.T) {
		evalDate := purchaseDate.AddDate(0, 0, 40)
		breakdown := ComputeRepayment(10000, purchaseDate, evalDate, schedule)

		assert.Equal(t, 10200.0, breakdown.Payable)
		assert.Equal(t, 200.0, breakdown.InterestApplied)
		assert.Equal(t, 0.0, breakdown.DiscountApplied)
		assert.Equal(t, "Late", breakdown.TierName)
	})

	t.Run("gap between tiers owes principal", func(t *testing.T) {
		evalDate := purchaseDate.AddDate(0, 0, 20)
		breakdown := ComputeRepayment(10000, purchaseDate, evalDate, schedule)

		assert.Equal(t, 10000.0, breakdown.Payable)
		assert.Equal(t, 0.0, breakdown.DiscountApplied)
		assert.Equal(t, 0.0, breakdown.InterestApplied)
		assert.Empty(t, breakdown.TierName)
	})

	t.Run("past last interest tier owes principal", func(t *testing.T) {
		evalDate := purchaseDate.AddDate(0, 0, 120)
		breakdown := ComputeRepayment(10000, purchaseDate, evalDate, schedule)

		assert.Equal(t, 10000.0, breakdown.Payable)
		assert.Equal(t, 120, breakdown.DaysElapsed)
	})

	t.Run("tier boundary is half open", func(t *testing.T) {
		// Day 10 falls in [10, 15), not [0, 10)
		evalDate := purchaseDate.AddDate(0, 0, 10)
		breakdown := ComputeRepayment(10000, purchaseDate, evalDate, schedule)
		assert.Equal(t, "Prompt Settlement", breakdown.TierName)
		assert.Equal(t, 9800.0, breakdown.Payable)

		// Day 30 falls in [30, 60)
		evalDate = purchaseDate.AddDate(0, 0, 30)
		breakdown = ComputeRepayment(10000, purchaseDate, evalDate, schedule)
		assert.Equal(t, "Late", breakdown.TierName)
	})

	t.Run("fixed agreement overrides tiers", func(t *testing.T) {
		fixed := Schedule{
			Kind:          ScheduleFixedAgreement,
			RepaymentDays: 30,
			AgreedAmount:  5000,
		}
		evalDate := purchaseDate.AddDate(0, 0, 45)
		breakdown := ComputeRepayment(10000, purchaseDate, evalDate, fixed)

		assert.Equal(t, 5000.0, breakdown.Payable)
		assert.True(t, breakdown.FixedAgreement)
		assert.Equal(t, 0.0, breakdown.DiscountApplied)
		assert.Equal(t, 0.0, breakdown.InterestApplied)
	})

	t.Run("rounds to two decimal places", func(t *testing.T) {
		evalDate := purchaseDate.AddDate(0, 0, 5)
		breakdown := ComputeRepayment(999.99, purchaseDate, evalDate, schedule)

		// 5% of 999.99 is 49.9995, rounded to 50.00
		assert.Equal(t, 50.0, breakdown.DiscountApplied)
		assert.Equal(t, 949.99, breakdown.Payable)
	})

	t.Run("deterministic for equal inputs", func(t *testing.T) {
		evalDate := purchaseDate.AddDate(0, 0, 37)
		first := ComputeRepayment(12345.67, purchaseDate, evalDate, schedule)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, ComputeRepayment(12345.67, purchaseDate, evalDate, schedule))
		}
	})
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysBetween(from, from))
	assert.Equal(t, 0, DaysBetween(from, from.Add(23*time.Hour)))
	assert.Equal(t, 1, DaysBetween(from, from.Add(24*time.Hour)))
	assert.Equal(t, 1, DaysBetween(from, from.Add(47*time.Hour)))
	assert.Equal(t, 30, DaysBetween(from, from.AddDate(0, 0, 30)))

	// Evaluation before purchase clamps to day zero
	assert.Equal(t, 0, DaysBetween(from, from.Add(-48*time.Hour)))
}
