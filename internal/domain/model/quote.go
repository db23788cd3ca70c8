package model

// Violation names a reason a selection fails the bundle constraints.
type Violation string

const (
	ViolationWrapRequired    Violation = "WRAP_REQUIRED"
	ViolationTooFewItems     Violation = "TOO_FEW_ITEMS"
	ViolationTooManyItems    Violation = "TOO_MANY_ITEMS"
	ViolationNothingSelected Violation = "NOTHING_SELECTED"

	// ViolationNothingToSubmit is reported by cart submission when no line
	// item could be built. The engine never emits it.
	ViolationNothingToSubmit Violation = "NOTHING_TO_SUBMIT"
)

// Quote is the result of evaluating a selection against its bundle.
//
// @Description Live price and validation result for a selection
type Quote struct {
	// UnitPriceCents is the price of one bundle including add-ons.
	UnitPriceCents int64 `json:"unit_price_cents" example:"900"`
	// SavingsCents is the discount against the listed product prices.
	SavingsCents int64 `json:"savings_cents" example:"100"`
	// SubtotalCents is the variant-adjusted product subtotal before any rule.
	SubtotalCents int64 `json:"subtotal_cents" example:"1000"`
	// IndividualTotalCents is the sum of the selected products' base prices.
	IndividualTotalCents int64 `json:"individual_total_cents" example:"1000"`
	// AddOnsCents is the flat wrap and card cost included in UnitPriceCents.
	AddOnsCents int64 `json:"addons_cents" example:"0"`
	// AppliedTier is the MinQuantity of the tier rule that matched, if any.
	AppliedTier *int        `json:"applied_tier,omitempty" example:"2"`
	ItemCount   int         `json:"item_count" example:"2"`
	Valid       bool        `json:"valid" example:"true"`
	Violations  []Violation `json:"violations"`
} // @name Quote

// HasViolation reports whether the quote carries the given violation.
func (q Quote) HasViolation(v Violation) bool {
	for _, got := range q.Violations {
		if got == v {
			return true
		}
	}
	return false
}
