// Package pricing derives a product's payable price from its list price,
// optional discount price and GST slab.
package pricing

import "github.com/shopspring/decimal"

// GSTSlabs are the GST percentages a product may carry
var GSTSlabs = []float64{0, 5, 12, 18, 28}

var hundred = decimal.NewFromInt(100)

// Breakdown is the result of ComputeFinalPrice
type Breakdown struct {
	BasePrice     decimal.Decimal `json:"base_price"`
	GSTAmount     decimal.Decimal `json:"gst_amount"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	GSTPercentage decimal.Decimal `json:"gst_percentage"`
}

// ComputeFinalPrice applies the discount price (when present and positive)
// and then GST on top of it. A nil gstPercentage counts as 0.
func ComputeFinalPrice(price float64, discountPrice, gstPercentage *float64) Breakdown {
	base := decimal.NewFromFloat(price)
	if discountPrice != nil && *discountPrice > 0 {
		base = decimal.NewFromFloat(*discountPrice)
	}

	gst := decimal.Zero
	if gstPercentage != nil {
		gst = decimal.NewFromFloat(*gstPercentage)
	}

	gstAmount := base.Mul(gst).Div(hundred)

	return Breakdown{
		BasePrice:     base,
		GSTAmount:     gstAmount,
		FinalPrice:    base.Add(gstAmount),
		GSTPercentage: gst,
	}
}

// DiscountPercentage returns how far discounted is below original, rounded
// to a whole percent. It is 0 when there is no discount.
func DiscountPercentage(original float64, discounted *float64) int {
	if discounted == nil || *discounted >= original {
		return 0
	}

	orig := decimal.NewFromFloat(original)
	if orig.IsZero() {
		return 0
	}
	pct := orig.Sub(decimal.NewFromFloat(*discounted)).Div(orig).Mul(hundred)
	return int(pct.Round(0).IntPart())
}

// IsValidGSTSlab reports whether pct is one of GSTSlabs
func IsValidGSTSlab(pct float64) bool {
	for _, slab := range GSTSlabs {
		if slab == pct {
			return true
		}
	}
	return false
}
