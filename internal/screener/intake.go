// Package screener implements the stock screening core: metric intake,
// multi-criteria filtering, style-weighted scoring, ranking and signal labels.
//
// Everything in this package except Screener.Run is a pure function over
// in-memory records. Missing metrics are carried as models.Unknown and never
// coerced to zero, so that scoring and filtering can tell "absent" from "0".
package screener

import (
	"math"
	"strings"

	"github.com/seenimoa/investscout/pkg/models"
)

// UnknownSector is used when a source reports no sector.
const UnknownSector = "Unknown"

// NewRecord normalises a raw provider snapshot into a StockMetricRecord and
// computes the derived upside and distance-from-high percentages. NaN and
// infinite values are treated as missing.
func NewRecord(raw models.RawMetrics) models.StockMetricRecord {
	rec := models.StockMetricRecord{
		Ticker:             strings.TrimSpace(raw.Ticker),
		Name:               strings.TrimSpace(raw.Name),
		Sector:             strings.TrimSpace(raw.Sector),
		Industry:           strings.TrimSpace(raw.Industry),
		Price:              finiteOpt(raw.Price),
		TargetPrice:        finiteOpt(raw.TargetPrice),
		MarketCap:          derefOr(raw.MarketCap, 0),
		DividendYield:      derefOr(raw.DividendYield, 0),
		PayoutRatio:        finiteOpt(raw.PayoutRatio),
		RevenueGrowth:      finiteOpt(raw.RevenueGrowth),
		EarningsGrowth:     finiteOpt(raw.EarningsGrowth),
		Recommendation:     models.ParseRecommendation(raw.Recommendation),
		RecommendationMean: finiteOpt(raw.RecommendationMean),
		FiftyTwoWeekHigh:   derefOr(raw.FiftyTwoWeekHigh, 0),
		FiftyTwoWeekLow:    derefOr(raw.FiftyTwoWeekLow, 0),
		FiftyDayAvg:        derefOr(raw.FiftyDayAvg, 0),
		TwoHundredDayAvg:   derefOr(raw.TwoHundredDayAvg, 0),
	}

	if rec.Name == "" {
		rec.Name = rec.Ticker
	}
	if rec.Sector == "" {
		rec.Sector = UnknownSector
	}
	if pe := finiteOpt(raw.PERatio); pe.Valid && pe.Value > 0 {
		rec.PERatio = pe
	}
	if raw.NumAnalysts != nil && *raw.NumAnalysts > 0 {
		rec.NumAnalysts = *raw.NumAnalysts
	}

	rec.UpsidePct = UpsidePct(rec.Price, rec.TargetPrice)
	rec.PctFromHigh = PctFromHigh(rec.Price, rec.FiftyTwoWeekHigh)
	return rec
}

// NewRecords applies NewRecord to every snapshot, preserving order.
func NewRecords(raws []models.RawMetrics) []models.StockMetricRecord {
	records := make([]models.StockMetricRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, NewRecord(raw))
	}
	return records
}

// UpsidePct returns (target - price) / price * 100, or Unknown when either
// value is missing, non-finite or non-positive.
func UpsidePct(price, target models.OptFloat) models.OptFloat {
	if !usable(price) || !usable(target) || price.Value <= 0 || target.Value <= 0 {
		return models.Unknown
	}
	return models.Known((target.Value - price.Value) / price.Value * 100)
}

// PctFromHigh returns (price - high) / high * 100, or Unknown when the price
// is missing or non-positive or the 52-week high is not a positive number.
func PctFromHigh(price models.OptFloat, high float64) models.OptFloat {
	if !usable(price) || price.Value <= 0 || !isFinite(high) || high <= 0 {
		return models.Unknown
	}
	return models.Known((price.Value - high) / high * 100)
}

func derefOr(p *float64, def float64) float64 {
	if p == nil || !isFinite(*p) {
		return def
	}
	return *p
}

func finiteOpt(p *float64) models.OptFloat {
	if p == nil || !isFinite(*p) {
		return models.Unknown
	}
	return models.Known(*p)
}

// usable reports whether o holds a finite value.
func usable(o models.OptFloat) bool {
	return o.Valid && isFinite(o.Value)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
