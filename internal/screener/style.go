package screener

import "strings"

// Style is an investing profile. Each style carries a fixed factor weight vector.
type Style string

const (
	StyleGrowth   Style = "growth"
	StyleValue    Style = "value"
	StyleDividend Style = "dividend"
	StyleBlend    Style = "blend"
)

// Weights holds the per-factor weights of a style. They sum to 1.
type Weights struct {
	Upside         float64 `json:"upside"`
	Analyst        float64 `json:"analyst"`
	RevenueGrowth  float64 `json:"revenue_growth"`
	EarningsGrowth float64 `json:"earnings_growth"`
	Dividend       float64 `json:"dividend"`
	Value          float64 `json:"value"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Upside + w.Analyst + w.RevenueGrowth + w.EarningsGrowth + w.Dividend + w.Value
}

var (
	growthWeights = Weights{
		Upside:         0.25,
		Analyst:        0.20,
		RevenueGrowth:  0.35,
		EarningsGrowth: 0.15,
		Dividend:       0.00,
		Value:          0.05,
	}
	valueWeights = Weights{
		Upside:         0.40,
		Analyst:        0.20,
		RevenueGrowth:  0.05,
		EarningsGrowth: 0.05,
		Dividend:       0.10,
		Value:          0.20,
	}
	dividendWeights = Weights{
		Upside:         0.15,
		Analyst:        0.15,
		RevenueGrowth:  0.05,
		EarningsGrowth: 0.05,
		Dividend:       0.40,
		Value:          0.20,
	}
	blendWeights = Weights{
		Upside:         0.25,
		Analyst:        0.20,
		RevenueGrowth:  0.15,
		EarningsGrowth: 0.10,
		Dividend:       0.15,
		Value:          0.15,
	}
)

// Styles lists every style in display order.
func Styles() []Style {
	return []Style{StyleBlend, StyleGrowth, StyleValue, StyleDividend}
}

// ParseStyle matches s case-insensitively. Unrecognised input is StyleBlend.
func ParseStyle(s string) Style {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StyleGrowth:
		return StyleGrowth
	case StyleValue:
		return StyleValue
	case StyleDividend:
		return StyleDividend
	default:
		return StyleBlend
	}
}

// Weights returns the style's weight vector. Unknown styles use blend weights.
func (s Style) Weights() Weights {
	switch s {
	case StyleGrowth:
		return growthWeights
	case StyleValue:
		return valueWeights
	case StyleDividend:
		return dividendWeights
	default:
		return blendWeights
	}
}

// Title returns the display name, e.g. "Growth".
func (s Style) Title() string {
	v := string(ParseStyle(string(s)))
	return strings.ToUpper(v[:1]) + v[1:]
}
