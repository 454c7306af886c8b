package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func decPtr(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestReplacementValuePriority(t *testing.T) {
	asset := InsuredAsset{
		PurchaseValue:   decPtr("100"),
		CurrentValue:    decPtr("80"),
		CommercialValue: decPtr("90"),
	}
	if got := asset.ReplacementValue(); got == nil || !got.Equal(*asset.CommercialValue) {
		t.Fatalf("replacement = %v, want commercial 90", got)
	}

	asset.CommercialValue = nil
	if got := asset.ReplacementValue(); got == nil || !got.Equal(*asset.CurrentValue) {
		t.Fatalf("replacement = %v, want current 80", got)
	}

	asset.CurrentValue = nil
	if got := asset.ReplacementValue(); got == nil || !got.Equal(*asset.PurchaseValue) {
		t.Fatalf("replacement = %v, want purchase 100", got)
	}

	asset.PurchaseValue = nil
	if got := asset.ReplacementValue(); got != nil {
		t.Fatalf("replacement = %v, want nil with no valuations", got)
	}
}
