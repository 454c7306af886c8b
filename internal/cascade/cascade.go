// Package cascade implements the statutory financial cascade shared by
// policy line items and invoices: contributions, emission fee, tax
// base, VAT and large-taxpayer withholdings. Every function is pure;
// rates always arrive as an explicit snapshot so the same inputs give
// the same outputs regardless of ambient configuration state.
package cascade

import (
	"time"

	"github.com/segurosandina/backoffice/internal/taxconfig/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// premiumWithholdingRate is the statutory 1% retained on premium for
// large taxpayers. VAT withholding is 100% of VAT.
var premiumWithholdingRate = decimal.NewFromFloat(0.01)

// Result holds every derived figure of one cascade computation.
// Intermediate values keep full precision; callers round for display.
type Result struct {
	Premium                     decimal.Decimal
	SuperintendencyContribution decimal.Decimal
	AgriculturalContribution    decimal.Decimal
	EmissionFee                 decimal.Decimal
	TaxBase                     decimal.Decimal
	VAT                         decimal.Decimal
	TotalInvoiced               decimal.Decimal
	PremiumWithholding          decimal.Decimal
	VATWithholding              decimal.Decimal
	Payable                     decimal.Decimal
}

// PremiumFromRate derives a coverage premium from its insured sum and
// rate-per-hundred.
func PremiumFromRate(insuredSum, rate decimal.Decimal) decimal.Decimal {
	return insuredSum.Mul(rate.Div(hundred))
}

// Compute runs the full cascade for one premium.
//
//	tax_base = premium + contributions + emission_fee
//	vat      = tax_base × vat_rate
//	payable  = tax_base + vat − withholdings
//
// The large-taxpayer flag only enables withholding; it never changes
// the base tax math.
func Compute(premium decimal.Decimal, largeTaxpayer bool, rates domain.Rates) (Result, error) {
	fee, err := rates.EmissionFees.Fee(premium)
	if err != nil {
		return Result{}, err
	}

	r := Result{
		Premium:                     premium,
		SuperintendencyContribution: premium.Mul(rates.SuperintendencyRate),
		AgriculturalContribution:    premium.Mul(rates.AgriculturalRate),
		EmissionFee:                 fee,
	}
	r.TaxBase = premium.
		Add(r.SuperintendencyContribution).
		Add(r.AgriculturalContribution).
		Add(r.EmissionFee)
	r.VAT = r.TaxBase.Mul(rates.VATRate)
	r.TotalInvoiced = r.TaxBase.Add(r.VAT)

	if largeTaxpayer {
		r.PremiumWithholding = premium.Mul(premiumWithholdingRate)
		r.VATWithholding = r.VAT
	} else {
		r.PremiumWithholding = decimal.Zero
		r.VATWithholding = decimal.Zero
	}
	r.Payable = r.TotalInvoiced.Sub(r.PremiumWithholding).Sub(r.VATWithholding)

	return r, nil
}

// Contributions returns the two statutory contributions on a subtotal.
// Invoices use this without the emission fee, which applies to
// per-coverage premiums only.
func Contributions(subtotal decimal.Decimal, rates domain.Rates) (superintendency, agricultural decimal.Decimal) {
	return subtotal.Mul(rates.SuperintendencyRate), subtotal.Mul(rates.AgriculturalRate)
}

// InvoiceTotal composes an invoice's grand total, floored at zero so
// oversized retentions or discounts can never produce a negative bill.
func InvoiceTotal(subtotal, vat, superintendency, agricultural, retentions, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.
		Add(vat).
		Add(superintendency).
		Add(agricultural).
		Sub(retentions).
		Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// EarlyPaymentDiscount returns subtotal × rate when the first approved
// payment landed within windowDays of issuance, zero otherwise. A nil
// firstPayment means no approved payment exists yet.
func EarlyPaymentDiscount(subtotal decimal.Decimal, issued time.Time, firstPayment *time.Time, rates domain.Rates) decimal.Decimal {
	if firstPayment == nil || issued.IsZero() {
		return decimal.Zero
	}
	deadline := issued.AddDate(0, 0, rates.EarlyPaymentWindowDays)
	if firstPayment.After(deadline) {
		return decimal.Zero
	}
	return subtotal.Mul(rates.EarlyPaymentDiscountRate)
}
