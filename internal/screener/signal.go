package screener

import (
	"strings"

	"github.com/seenimoa/investscout/pkg/models"
)

// Signal labels, in the order they are emitted.
const (
	LabelStrongUpside = "Strong Upside"
	LabelUndervalued  = "Undervalued"
	LabelOvervalued   = "Overvalued"
	LabelStrongBuy    = "Strong Buy"
	LabelBuy          = "Buy"
	LabelSell         = "Sell"
	LabelNear52WLow   = "Near 52-week Low"
)

// NoSignal is returned by Signal when no label applies.
const NoSignal = models.Placeholder

// SignalSeparator joins the labels of a signal string.
const SignalSeparator = " | "

// SignalLabels returns the valuation, rating and momentum labels that apply to r.
func SignalLabels(r models.StockMetricRecord) []string {
	var labels []string

	if up := r.UpsidePct; up.Valid {
		switch {
		case up.Value >= 20:
			labels = append(labels, LabelStrongUpside)
		case up.Value >= 10:
			labels = append(labels, LabelUndervalued)
		case up.Value <= -10:
			labels = append(labels, LabelOvervalued)
		}
	}

	switch r.Recommendation {
	case models.RecStrongBuy:
		labels = append(labels, LabelStrongBuy)
	case models.RecBuy:
		labels = append(labels, LabelBuy)
	case models.RecSell:
		labels = append(labels, LabelSell)
	}

	if r.PctFromHigh.Valid && r.PctFromHigh.Value <= -30 {
		labels = append(labels, LabelNear52WLow)
	}
	return labels
}

// Signal joins SignalLabels with " | ", or returns NoSignal.
func Signal(r models.StockMetricRecord) string {
	labels := SignalLabels(r)
	if len(labels) == 0 {
		return NoSignal
	}
	return strings.Join(labels, SignalSeparator)
}
