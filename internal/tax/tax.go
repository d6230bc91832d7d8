// Package tax computes GST amounts for point-of-sale lines. Amounts are in
// paisa, rates in basis points; rounding is half away from zero at the minor
// unit, applied per line. Sale-level tax is the plain sum of line taxes and
// is never re-rounded.
package tax

// DefaultRateBps is the catalog default for new products (17% GST). The
// per-product rate stays authoritative at billing time.
const DefaultRateBps int64 = 1700

// ComputeLineTax returns the GST amount for one line given its subtotal in
// paisa and the product rate in basis points. Exempt lines carry no tax.
func ComputeLineTax(lineSubtotal, rateBps int64, exempt bool) int64 {
	if exempt || rateBps == 0 || lineSubtotal == 0 {
		return 0
	}
	return roundHalfAway(lineSubtotal*rateBps, 10000)
}

// Line pairs a line subtotal with its product tax attributes.
type Line struct {
	Subtotal int64
	RateBps  int64
	Exempt   bool
}

// ComputeSaleTax sums line-level tax for a whole cart.
func ComputeSaleTax(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		total += ComputeLineTax(l.Subtotal, l.RateBps, l.Exempt)
	}
	return total
}

// PercentToBps converts a percent rate (e.g. 17 or 8.5) to basis points,
// rounding half away from zero.
func PercentToBps(percent float64) int64 {
	if percent >= 0 {
		return int64(percent*100 + 0.5)
	}
	return int64(percent*100 - 0.5)
}

// roundHalfAway divides numerator by denominator rounding half away from
// zero. denominator must be positive.
func roundHalfAway(numerator, denominator int64) int64 {
	if numerator >= 0 {
		return (numerator + denominator/2) / denominator
	}
	return -((-numerator + denominator/2) / denominator)
}
