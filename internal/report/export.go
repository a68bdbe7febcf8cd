package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/seenimoa/investscout/internal/screener"
	"github.com/seenimoa/investscout/pkg/models"
)

// CSVHeader is the header row written by WriteCSV.
var CSVHeader = []string{
	"rank", "ticker", "name", "sector", "industry",
	"price", "target_price", "upside_pct", "market_cap", "pe_ratio",
	"dividend_yield", "payout_ratio", "revenue_growth", "earnings_growth",
	"recommendation", "recommendation_mean", "num_analysts",
	"fifty_two_week_high", "pct_from_high", "score", "signal",
}

// WriteCSV exports candidates with a header row. Unknown values are empty
// cells; the signal of a row without labels is empty as well.
func WriteCSV(w io.Writer, candidates []models.RankedCandidate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for i, c := range candidates {
		signal := c.Signal
		if signal == screener.NoSignal {
			signal = ""
		}
		rec := string(c.Recommendation)
		if c.Recommendation == models.RecNone {
			rec = ""
		}
		row := []string{
			strconv.Itoa(i + 1),
			c.Ticker,
			c.Name,
			c.Sector,
			c.Industry,
			csvOpt(c.Price, 2),
			csvOpt(c.TargetPrice, 2),
			csvOpt(c.UpsidePct, 2),
			csvPositive(c.MarketCap, 0),
			csvOpt(c.PERatio, 2),
			csvFloat(c.DividendYield, 4),
			csvOpt(c.PayoutRatio, 4),
			csvOpt(c.RevenueGrowth, 4),
			csvOpt(c.EarningsGrowth, 4),
			rec,
			csvOpt(c.RecommendationMean, 2),
			csvCount(c.NumAnalysts),
			csvPositive(c.FiftyTwoWeekHigh, 2),
			csvOpt(c.PctFromHigh, 2),
			csvFloat(c.Score, 2),
			signal,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONDocument is the payload written by WriteJSON.
type JSONDocument struct {
	Style      screener.Style           `json:"style"`
	Summary    Summary                  `json:"summary"`
	Candidates []models.RankedCandidate `json:"candidates"`
}

// WriteJSON writes the result and its summary as indented JSON.
func WriteJSON(w io.Writer, res *screener.Result) error {
	doc := JSONDocument{
		Style:      res.Style,
		Summary:    SummaryOf(res),
		Candidates: res.Candidates,
	}
	if doc.Candidates == nil {
		doc.Candidates = []models.RankedCandidate{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func csvFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func csvOpt(o models.OptFloat, prec int) string {
	if !o.Valid {
		return ""
	}
	return csvFloat(o.Value, prec)
}

func csvPositive(v float64, prec int) string {
	if v <= 0 {
		return ""
	}
	return csvFloat(v, prec)
}

func csvCount(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
