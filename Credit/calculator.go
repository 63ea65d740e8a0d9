package Credit

import (
	"time"

	"github.com/shopspring/decimal"
)

// Breakdown is the result of a repayment computation at a point in time.
// Amounts are rounded to 2 decimal places.
type Breakdown struct {
	Payable         float64 `json:"payable"`
	DiscountApplied float64 `json:"discount_applied"`
	InterestApplied float64 `json:"interest_applied"`
	Rate            float64 `json:"rate"`
	TierName        string  `json:"tier_name"`
	DaysElapsed     int     `json:"days_elapsed"`
	FixedAgreement  bool    `json:"fixed_agreement"`
}

// ComputeRepayment computes what a vendor owes on a purchase as of the
// evaluation date. Pure function of its inputs: the same principal, dates and
// schedule always produce the same breakdown, which is what makes repayment
// amounts auditable and safe to recompute on every display.
//
// An active fixed agreement short-circuits everything: the agreed amount is
// the payable, end of story. Otherwise the day offset is looked up in the
// discount table, then the interest table; a day falling in neither is the
// neutral zone and the principal is owed unchanged.
func ComputeRepayment(principal float64, purchaseDate, evaluationDate time.Time, schedule Schedule) Breakdown {
	daysElapsed := DaysBetween(purchaseDate, evaluationDate)

	if schedule.Kind == ScheduleFixedAgreement {
		return Breakdown{
			Payable:        round2(decimal.NewFromFloat(schedule.AgreedAmount)),
			DaysElapsed:    daysElapsed,
			FixedAgreement: true,
		}
	}

	principalDec := decimal.NewFromFloat(principal)
	hundred := decimal.NewFromInt(100)

	if tier, ok := FindTier(schedule.DiscountTiers, daysElapsed); ok {
		rate := decimal.NewFromFloat(tier.Rate)
		discount := principalDec.Mul(rate).Div(hundred)
		return Breakdown{
			Payable:         round2(principalDec.Sub(discount)),
			DiscountApplied: round2(discount),
			Rate:            tier.Rate,
			TierName:        tier.TierName,
			DaysElapsed:     daysElapsed,
		}
	}

	if tier, ok := FindTier(schedule.InterestTiers, daysElapsed); ok {
		rate := decimal.NewFromFloat(tier.Rate)
		interest := principalDec.Mul(rate).Div(hundred)
		return Breakdown{
			Payable:         round2(principalDec.Add(interest)),
			InterestApplied: round2(interest),
			Rate:            tier.Rate,
			TierName:        tier.TierName,
			DaysElapsed:     daysElapsed,
		}
	}

	return Breakdown{
		Payable:     round2(principalDec),
		DaysElapsed: daysElapsed,
	}
}

// DaysBetween returns whole days between two instants, floored. Evaluation
// before the purchase date counts as day zero.
func DaysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

func round2(d decimal.Decimal) float64 {
	value, _ := d.Round(2).Float64()
	return value
}
