// Package indemnity computes what a claim actually pays out: the
// applicable deductible, the indemnifiable loss, and the proportional
// reduction applied when an asset is underinsured.
package indemnity

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// DeductibleTerms are a policy's deductible parameters. Percent is
// expressed per hundred (0–100); Floor is the minimum the percentage
// result may produce.
type DeductibleTerms struct {
	Fixed   decimal.Decimal
	Percent decimal.Decimal
	Floor   decimal.Decimal
}

// ApplicableDeductible resolves the deductible for a loss: the greater
// of the fixed deductible and the percentage result (itself floored at
// the configured minimum). Without a percentage the fixed amount
// applies alone. The result is clamped to [0, loss].
func ApplicableDeductible(terms DeductibleTerms, loss decimal.Decimal) decimal.Decimal {
	deductible := terms.Fixed
	if terms.Percent.IsPositive() {
		byPercent := terms.Percent.Div(hundred).Mul(loss)
		if terms.Floor.IsPositive() && byPercent.LessThan(terms.Floor) {
			byPercent = terms.Floor
		}
		if byPercent.GreaterThan(deductible) {
			deductible = byPercent
		}
	}
	if deductible.IsNegative() {
		return decimal.Zero
	}
	if deductible.GreaterThan(loss) {
		return loss
	}
	return deductible
}

// IndemnifiableAmount is the loss net of deductible and depreciation,
// floored at zero.
func IndemnifiableAmount(loss, deductible, depreciation decimal.Decimal) decimal.Decimal {
	amount := loss.Sub(deductible).Sub(depreciation)
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// Underinsurance is the outcome of the proportional-indemnity rule.
type Underinsurance struct {
	// CoverageRatio is insured/replacement capped at 1. It is 1 when
	// either value is unknown: missing valuations mean the rule cannot
	// be applied, not that the insured forfeits indemnity.
	CoverageRatio     decimal.Decimal
	AdjustedIndemnity decimal.Decimal
	LossToInsured     decimal.Decimal
	Applied           bool
}

// ApplyUnderinsurance scales the indemnifiable amount by the coverage
// ratio when the asset is insured below its replacement value. Exact
// proportional scaling, recomputed from current asset values on every
// call; results are never cached.
func ApplyUnderinsurance(indemnifiable decimal.Decimal, insuredValue, replacementValue *decimal.Decimal) Underinsurance {
	one := decimal.NewFromInt(1)
	result := Underinsurance{
		CoverageRatio:     one,
		AdjustedIndemnity: indemnifiable,
		LossToInsured:     decimal.Zero,
	}

	if insuredValue == nil || replacementValue == nil || !replacementValue.IsPositive() {
		return result
	}
	if !insuredValue.LessThan(*replacementValue) {
		return result
	}

	ratio := insuredValue.Div(*replacementValue)
	if ratio.GreaterThan(one) {
		ratio = one
	}
	result.CoverageRatio = ratio
	result.AdjustedIndemnity = indemnifiable.Mul(ratio)
	result.LossToInsured = indemnifiable.Sub(result.AdjustedIndemnity)
	result.Applied = true
	return result
}
