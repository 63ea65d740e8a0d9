package Credit

import (
	"fmt"
	"sort"

	"Souq/Models"
)

// ScheduleKind tags the resolved schedule variant.
type ScheduleKind string

const (
	// ScheduleStandard uses the system-wide tier configuration.
	ScheduleStandard ScheduleKind = "standard"
	// ScheduleOverridden uses the vendor's custom tier tables.
	ScheduleOverridden ScheduleKind = "overridden"
	// ScheduleFixedAgreement bypasses tiers entirely: the payable amount is a
	// fixed agreed total regardless of elapsed time.
	ScheduleFixedAgreement ScheduleKind = "fixed_agreement"
)

// Schedule is the effective repayment schedule for one vendor, resolved once
// and passed into the calculator as an immutable value. The calculator never
// reads global state.
type Schedule struct {
	Kind          ScheduleKind
	DiscountTiers []Models.Tier
	InterestTiers []Models.Tier
	RepaymentDays int
	AgreedAmount  float64
}

// ResolveSchedule picks the effective schedule for a vendor. Precedence:
// active special agreement, then vendor tier override, then the global config.
// Tier tables are validated when the policy is written, so resolution only has
// to decode them.
func ResolveSchedule(vendor *Models.Vendor, config *Models.TierConfig) (Schedule, error) {
	if vendor.SpecialAgreement.Active {
		return Schedule{
			Kind:          ScheduleFixedAgreement,
			RepaymentDays: repaymentDays(vendor, config),
			AgreedAmount:  vendor.SpecialAgreement.AgreedAmount,
		}, nil
	}

	if vendor.OverrideGlobalTiers {
		discount, err := vendor.DecodedDiscountTiers()
		if err != nil {
			return Schedule{}, fmt.Errorf("%w: vendor %d discount tiers: %v", ErrBadTierConfig, vendor.ID, err)
		}
		interest, err := vendor.DecodedInterestTiers()
		if err != nil {
			return Schedule{}, fmt.Errorf("%w: vendor %d interest tiers: %v", ErrBadTierConfig, vendor.ID, err)
		}
		return Schedule{
			Kind:          ScheduleOverridden,
			DiscountTiers: discount,
			InterestTiers: interest,
			RepaymentDays: repaymentDays(vendor, config),
		}, nil
	}

	discount, err := config.DecodedDiscountTiers()
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: global discount tiers: %v", ErrBadTierConfig, err)
	}
	interest, err := config.DecodedInterestTiers()
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: global interest tiers: %v", ErrBadTierConfig, err)
	}
	return Schedule{
		Kind:          ScheduleStandard,
		DiscountTiers: discount,
		InterestTiers: interest,
		RepaymentDays: repaymentDays(vendor, config),
	}, nil
}

func repaymentDays(vendor *Models.Vendor, config *Models.TierConfig) int {
	if vendor.RepaymentDays > 0 {
		return vendor.RepaymentDays
	}
	return config.DefaultRepaymentDays
}

// NormalizeTiers sorts a tier table by period start. The policy editor calls
// this before validation so stored schedules are always ordered.
func NormalizeTiers(tiers []Models.Tier) []Models.Tier {
	sorted := make([]Models.Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PeriodStart < sorted[j].PeriodStart
	})
	return sorted
}

// ValidateSchedule checks a full policy write: both tier tables plus the
// repayment grace period. Gaps between tiers are allowed (neutral zone, no
// adjustment); overlaps are not, within a table or across the repayment-days
// boundary. Any violation blocks the save.
func ValidateSchedule(discount, interest []Models.Tier, repaymentDays int) error {
	if repaymentDays <= 0 {
		return fmt.Errorf("%w: repayment days must be positive, got %d", ErrBadTierConfig, repaymentDays)
	}
	if err := validateTable("discount", discount); err != nil {
		return err
	}
	if err := validateTable("interest", interest); err != nil {
		return err
	}

	// Discount windows end at the repayment deadline, interest starts at or
	// after it. Enforcing the boundary here means a day offset can match at
	// most one tier across both tables combined.
	for _, tier := range discount {
		if tier.PeriodEnd > repaymentDays {
			return fmt.Errorf("%w: discount tier %q extends past repayment deadline (day %d > %d)",
				ErrBadTierConfig, tier.TierName, tier.PeriodEnd, repaymentDays)
		}
	}
	for _, tier := range interest {
		if tier.PeriodStart < repaymentDays {
			return fmt.Errorf("%w: interest tier %q starts before repayment deadline (day %d < %d)",
				ErrBadTierConfig, tier.TierName, tier.PeriodStart, repaymentDays)
		}
	}
	return nil
}

func validateTable(kind string, tiers []Models.Tier) error {
	for i, tier := range tiers {
		if tier.PeriodStart < 0 {
			return fmt.Errorf("%w: %s tier %q has negative period start", ErrBadTierConfig, kind, tier.TierName)
		}
		if tier.PeriodEnd <= tier.PeriodStart {
			return fmt.Errorf("%w: %s tier %q has empty period [%d, %d)",
				ErrBadTierConfig, kind, tier.TierName, tier.PeriodStart, tier.PeriodEnd)
		}
		if tier.Rate < 0 || tier.Rate > 100 {
			return fmt.Errorf("%w: %s tier %q rate %.2f out of range", ErrBadTierConfig, kind, tier.TierName, tier.Rate)
		}
		if i > 0 && tier.PeriodStart < tiers[i-1].PeriodEnd {
			return fmt.Errorf("%w: %s tiers %q and %q overlap",
				ErrBadTierConfig, kind, tiers[i-1].TierName, tier.TierName)
		}
	}
	return nil
}

// FindTier locates the tier containing a day offset, if any. Tables are sorted
// and non-overlapping, so the first match is the only match.
func FindTier(tiers []Models.Tier, daysElapsed int) (Models.Tier, bool) {
	for _, tier := range tiers {
		if daysElapsed >= tier.PeriodStart && daysElapsed < tier.PeriodEnd {
			return tier, true
		}
	}
	return Models.Tier{}, false
}
