package Controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Souq/Credit"
	"Souq/Models"
)

// PolicyController handles the admin tier schedule editor. Schedules are
// validated here, at write time; the calculator and the sweep trust whatever
// is stored.
type PolicyController struct {
	DB *gorm.DB
}

// NewPolicyController creates a new PolicyController
func NewPolicyController(db *gorm.DB) *PolicyController {
	return &PolicyController{DB: db}
}

type GlobalPolicyRequest struct {
	DiscountTiers        []Models.Tier `json:"discount_tiers" validate:"dive"`
	InterestTiers        []Models.Tier `json:"interest_tiers" validate:"dive"`
	DefaultRepaymentDays int           `json:"default_repayment_days" validate:"required,gt=0"`
}

// GetGlobalPolicy returns the system-wide tier schedule
func (c *PolicyController) GetGlobalPolicy(ctx *fiber.Ctx) error {
	config, err := Models.GetTierConfig(c.DB)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load tier configuration"})
	}
	return ctx.JSON(config)
}

// UpdateGlobalPolicy replaces the system-wide tier schedule
func (c *PolicyController) UpdateGlobalPolicy(ctx *fiber.Ctx) error {
	var input GlobalPolicyRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := Validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": TranslateValidationError(err)})
	}

	discount := Credit.NormalizeTiers(input.DiscountTiers)
	interest := Credit.NormalizeTiers(input.InterestTiers)
	if err := Credit.ValidateSchedule(discount, interest, input.DefaultRepaymentDays); err != nil {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	discountJSON, err := Models.EncodeTiers(discount)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to encode tiers"})
	}
	interestJSON, err := Models.EncodeTiers(interest)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to encode tiers"})
	}

	config, err := Models.GetTierConfig(c.DB)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load tier configuration"})
	}

	config.DiscountTiers = discountJSON
	config.InterestTiers = interestJSON
	config.DefaultRepaymentDays = input.DefaultRepaymentDays

	if err := c.DB.Save(&config).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save tier configuration"})
	}

	return ctx.JSON(config)
}

type VendorPolicyRequest struct {
	RepaymentDays       int           `json:"repayment_days" validate:"required,gt=0"`
	OverrideGlobalTiers bool          `json:"override_global_tiers"`
	CustomDiscountTiers []Models.Tier `json:"custom_discount_tiers" validate:"dive"`
	CustomInterestTiers []Models.Tier `json:"custom_interest_tiers" validate:"dive"`
	SpecialAgreement    struct {
		Active       bool    `json:"active"`
		AgreedAmount float64 `json:"agreed_amount" validate:"gte=0"`
		Notes        string  `json:"notes"`
	} `json:"special_agreement"`
}

// UpdateVendorPolicy replaces one vendor's credit policy
func (c *PolicyController) UpdateVendorPolicy(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid vendor ID"})
	}

	var vendor Models.Vendor
	if result := c.DB.First(&vendor, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vendor not found"})
	}

	var input VendorPolicyRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := Validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": TranslateValidationError(err)})
	}

	if input.SpecialAgreement.Active && input.SpecialAgreement.AgreedAmount <= 0 {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "An active special agreement needs a positive agreed amount",
		})
	}

	discount := Credit.NormalizeTiers(input.CustomDiscountTiers)
	interest := Credit.NormalizeTiers(input.CustomInterestTiers)
	if input.OverrideGlobalTiers {
		if err := Credit.ValidateSchedule(discount, interest, input.RepaymentDays); err != nil {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
	} else {
		// A non-override vendor inherits the global tables, so its custom
		// grace period must hold against those tables: a shorter deadline
		// would leave a discount window reaching past the vendor's own due
		// date.
		config, err := Models.GetTierConfig(c.DB)
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load tier configuration"})
		}
		globalDiscount, err := config.DecodedDiscountTiers()
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to decode tier configuration"})
		}
		globalInterest, err := config.DecodedInterestTiers()
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to decode tier configuration"})
		}
		if err := Credit.ValidateSchedule(globalDiscount, globalInterest, input.RepaymentDays); err != nil {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
	}

	discountJSON, err := Models.EncodeTiers(discount)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to encode tiers"})
	}
	interestJSON, err := Models.EncodeTiers(interest)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to encode tiers"})
	}

	updates := map[string]interface{}{
		"repayment_days":                  input.RepaymentDays,
		"override_global_tiers":           input.OverrideGlobalTiers,
		"custom_discount_tiers":           discountJSON,
		"custom_interest_tiers":           interestJSON,
		"special_agreement_active":        input.SpecialAgreement.Active,
		"special_agreement_agreed_amount": input.SpecialAgreement.AgreedAmount,
		"special_agreement_notes":         input.SpecialAgreement.Notes,
	}
	if err := c.DB.Model(&vendor).Updates(updates).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save vendor policy"})
	}

	c.DB.First(&vendor, id)
	return ctx.JSON(vendor)
}
