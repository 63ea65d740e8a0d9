package Models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Vendor statuses
const (
	VendorStatusPending   = "pending"
	VendorStatusApproved  = "approved"
	VendorStatusRejected  = "rejected"
	VendorStatusSuspended = "suspended"
)

// Tier maps a day-offset range [PeriodStart, PeriodEnd) from the purchase date
// to a discount or interest rate. Ranges within one schedule must be sorted and
// non-overlapping.
type Tier struct {
	PeriodStart int     `json:"period_start"`
	PeriodEnd   int     `json:"period_end"`
	Rate        float64 `json:"rate"`
	TierName    string  `json:"tier_name"`
}

// SpecialAgreement is a fixed total repayment amount agreed with a vendor.
// While active it bypasses tiered calculation entirely.
type SpecialAgreement struct {
	Active       bool    `json:"active"`
	AgreedAmount float64 `json:"agreed_amount"`
	Notes        string  `json:"notes"`
}

type Vendor struct {
	gorm.Model
	Name    string `json:"name" gorm:"not null;uniqueIndex"`
	Phone   string `json:"phone"`
	UserID  uint   `json:"user_id" gorm:"index"`
	Contact string `json:"contact"`
	Notes   string `json:"notes"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Status    string  `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`

	CreditLimit       float64 `json:"credit_limit" gorm:"not null;default:0"`
	OutstandingCredit float64 `json:"outstanding_credit" gorm:"not null;default:0"`
	PerformanceTier   string  `json:"performance_tier" gorm:"type:varchar(20);default:'standard'"`

	// Credit policy. Custom tiers only apply when OverrideGlobalTiers is set;
	// otherwise the global TierConfig schedule is used.
	RepaymentDays       int              `json:"repayment_days" gorm:"not null;default:30"`
	OverrideGlobalTiers bool             `json:"override_global_tiers" gorm:"default:false"`
	CustomDiscountTiers datatypes.JSON   `json:"custom_discount_tiers,omitempty"`
	CustomInterestTiers datatypes.JSON   `json:"custom_interest_tiers,omitempty"`
	SpecialAgreement    SpecialAgreement `json:"special_agreement" gorm:"embedded;embeddedPrefix:special_agreement_"`

	Purchases []CreditPurchase `json:"purchases,omitempty" gorm:"foreignKey:VendorID"`
	Earnings  []VendorEarning  `json:"earnings,omitempty" gorm:"foreignKey:VendorID"`
}

// AvailableCredit returns the credit headroom left for new purchases.
func (v *Vendor) AvailableCredit() float64 {
	return v.CreditLimit - v.OutstandingCredit
}

// DecodedDiscountTiers parses the vendor's custom discount tier JSON.
func (v *Vendor) DecodedDiscountTiers() ([]Tier, error) {
	return decodeTiers(v.CustomDiscountTiers)
}

// DecodedInterestTiers parses the vendor's custom interest tier JSON.
func (v *Vendor) DecodedInterestTiers() ([]Tier, error) {
	return decodeTiers(v.CustomInterestTiers)
}

// TierConfig is the system-wide default tier schedule. A single row (ID 1)
// maintained by the admin policy editor; tiers are validated before save, the
// read path trusts them.
type TierConfig struct {
	gorm.Model
	DiscountTiers        datatypes.JSON `json:"discount_tiers"`
	InterestTiers        datatypes.JSON `json:"interest_tiers"`
	DefaultRepaymentDays int            `json:"default_repayment_days" gorm:"not null;default:30"`
}

func (TierConfig) TableName() string {
	return "tier_configs"
}

// DecodedDiscountTiers parses the global discount tier JSON.
func (c *TierConfig) DecodedDiscountTiers() ([]Tier, error) {
	return decodeTiers(c.DiscountTiers)
}

// DecodedInterestTiers parses the global interest tier JSON.
func (c *TierConfig) DecodedInterestTiers() ([]Tier, error) {
	return decodeTiers(c.InterestTiers)
}

func decodeTiers(raw datatypes.JSON) ([]Tier, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var tiers []Tier
	if err := json.Unmarshal(raw, &tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

// EncodeTiers marshals a tier list for storage in a JSON column.
func EncodeTiers(tiers []Tier) (datatypes.JSON, error) {
	if tiers == nil {
		tiers = []Tier{}
	}
	raw, err := json.Marshal(tiers)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
