package screener

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/investscout/pkg/models"
)

// FactorScores is the 0-100 sub-score of each factor. A factor whose
// underlying metric is unknown is Unknown and contributes nothing.
type FactorScores struct {
	Upside         models.OptFloat `json:"upside"`
	Analyst        models.OptFloat `json:"analyst"`
	RevenueGrowth  models.OptFloat `json:"revenue_growth"`
	EarningsGrowth models.OptFloat `json:"earnings_growth"`
	Dividend       models.OptFloat `json:"dividend"`
	Value          models.OptFloat `json:"value"`
}

// SubScores normalises each metric of r onto a 0-100 scale. Non-finite
// metrics are treated as unknown.
//
//	upside:   2 points per % of upside, 50% saturates
//	analyst:  recommendation mean 1.0 -> 100, 5.0 -> 0
//	growth:   200 points per unit fraction, 50% growth saturates
//	dividend: 5% yield saturates
//	value:    1000 / PE, PE 10 saturates; only for a positive PE
func SubScores(r models.StockMetricRecord) FactorScores {
	var f FactorScores
	if usable(r.UpsidePct) {
		f.Upside = models.Known(clamp(r.UpsidePct.Value*2, 0, 100))
	}
	if usable(r.RecommendationMean) {
		f.Analyst = models.Known(clamp((5-r.RecommendationMean.Value)*25, 0, 100))
	}
	if usable(r.RevenueGrowth) {
		f.RevenueGrowth = models.Known(clamp(r.RevenueGrowth.Value*200, 0, 100))
	}
	if usable(r.EarningsGrowth) {
		f.EarningsGrowth = models.Known(clamp(r.EarningsGrowth.Value*200, 0, 100))
	}
	if isFinite(r.DividendYield) {
		f.Dividend = models.Known(clamp(r.DividendYield*2000, 0, 100))
	}
	if usable(r.PERatio) && r.PERatio.Value > 0 {
		f.Value = models.Known(math.Min(1000/r.PERatio.Value, 100))
	}
	return f
}

// Composite returns the weighted sum of the known sub-scores. The weight of an
// unknown factor is dropped, not redistributed, so sparse coverage lowers the score.
func (f FactorScores) Composite(w Weights) float64 {
	return w.Upside*f.Upside.Or(0) +
		w.Analyst*f.Analyst.Or(0) +
		w.RevenueGrowth*f.RevenueGrowth.Or(0) +
		w.EarningsGrowth*f.EarningsGrowth.Or(0) +
		w.Dividend*f.Dividend.Or(0) +
		w.Value*f.Value.Or(0)
}

// Score returns the style-weighted composite score of r rounded to two decimals.
func Score(r models.StockMetricRecord, style Style) float64 {
	raw := SubScores(r).Composite(style.Weights())
	if !isFinite(raw) {
		return 0
	}
	return decimal.NewFromFloat(raw).Round(2).InexactFloat64()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
