package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/seenimoa/investscout/internal/screener"
	"github.com/seenimoa/investscout/pkg/models"
	"github.com/seenimoa/investscout/pkg/utils"
)

// companyWidth caps the Company column.
const companyWidth = 28

// TableColumns are the headers of the results table.
var TableColumns = []string{
	"#", "Ticker", "Company", "Price", "Target", "Upside %", "Rating",
	"Analysts", "Score", "Signal", "Mkt Cap", "Sector",
}

// WriteSummary prints the headline counts of a run.
func WriteSummary(w io.Writer, style screener.Style, s Summary) error {
	line := strings.Repeat("═", 60)
	avgScore := models.Placeholder
	if s.MeanScore.Valid {
		avgScore = utils.FormatScore(s.MeanScore.Value)
	}
	_, err := fmt.Fprintf(w, "%s\n  %s Screen\n%s\n  Screened: %d | Passed: %d | Avg Upside: %s | Avg Score: %s\n",
		line, style.Title(), line, s.Screened, s.Passed, utils.FormatSignedPct(s.MeanUpside), avgScore)
	return err
}

// WriteTable prints ranked candidates as an aligned text table.
func WriteTable(w io.Writer, candidates []models.RankedCandidate, style screener.Style) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	headers := append([]string(nil), TableColumns...)
	headers[8] = fmt.Sprintf("Score (%s)", style.Title())
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	for i, c := range candidates {
		fmt.Fprintln(tw, strings.Join([]string{
			fmt.Sprintf("%d", i+1),
			c.Ticker,
			truncate(c.Name, companyWidth),
			utils.FormatPrice(c.Price),
			utils.FormatPrice(c.TargetPrice),
			utils.FormatSignedPct(c.UpsidePct),
			c.Recommendation.Title(),
			formatCount(c.NumAnalysts),
			utils.FormatScore(c.Score),
			c.Signal,
			formatMarketCap(c.MarketCap),
			c.Sector,
		}, "\t"))
	}
	return tw.Flush()
}

// WriteDetails prints a detail block for each of the first n candidates:
// valuation, analyst coverage, growth and dividends, and the weighted factor
// breakdown behind the score.
func WriteDetails(w io.Writer, candidates []models.RankedCandidate, style screener.Style, n int) error {
	if n > len(candidates) {
		n = len(candidates)
	}
	thinLine := strings.Repeat("─", 60)
	weights := style.Weights()

	for i := 0; i < n; i++ {
		c := candidates[i]
		var sb strings.Builder

		fmt.Fprintf(&sb, "%s\n  #%d %s (%s) | %s", thinLine, i+1, c.Name, c.Ticker, c.Sector)
		if c.Industry != "" {
			fmt.Fprintf(&sb, " / %s", c.Industry)
		}
		fmt.Fprintf(&sb, "\n  Score: %s | Signal: %s\n\n", utils.FormatScore(c.Score), c.Signal)

		sb.WriteString("  Valuation\n")
		fmt.Fprintf(&sb, "    Price: %s | Target: %s | Upside: %s\n",
			utils.FormatPrice(c.Price), utils.FormatPrice(c.TargetPrice), utils.FormatSignedPct(c.UpsidePct))
		fmt.Fprintf(&sb, "    Market Cap: %s | P/E: %s\n", formatMarketCap(c.MarketCap), formatRatio(c.PERatio))
		fmt.Fprintf(&sb, "    52W Range: %s - %s | From High: %s\n",
			formatLevel(c.FiftyTwoWeekLow), formatLevel(c.FiftyTwoWeekHigh), utils.FormatSignedPct(c.PctFromHigh))
		fmt.Fprintf(&sb, "    50D Avg: %s | 200D Avg: %s\n", formatLevel(c.FiftyDayAvg), formatLevel(c.TwoHundredDayAvg))

		sb.WriteString("  Analyst Coverage\n")
		fmt.Fprintf(&sb, "    Rating: %s | Mean: %s | Analysts: %s\n",
			c.Recommendation.Title(), formatRatio(c.RecommendationMean), formatCount(c.NumAnalysts))

		sb.WriteString("  Growth & Dividends\n")
		fmt.Fprintf(&sb, "    Revenue: %s | Earnings: %s\n",
			utils.FormatFraction(c.RevenueGrowth, 1), utils.FormatFraction(c.EarningsGrowth, 1))
		fmt.Fprintf(&sb, "    Dividend Yield: %s | Payout Ratio: %s\n",
			utils.FormatFraction(models.Known(c.DividendYield), 2), utils.FormatFraction(c.PayoutRatio, 1))

		fmt.Fprintf(&sb, "  Factor Breakdown (%s)\n", style.Title())
		f := screener.SubScores(c.StockMetricRecord)
		for _, row := range []struct {
			name   string
			score  models.OptFloat
			weight float64
		}{
			{"Upside", f.Upside, weights.Upside},
			{"Analyst", f.Analyst, weights.Analyst},
			{"Revenue Growth", f.RevenueGrowth, weights.RevenueGrowth},
			{"Earnings Growth", f.EarningsGrowth, weights.EarningsGrowth},
			{"Dividend", f.Dividend, weights.Dividend},
			{"Value", f.Value, weights.Value},
		} {
			if !row.score.Valid {
				fmt.Fprintf(&sb, "    %-16s %6s  x %.2f = %6s\n", row.name, models.Placeholder, row.weight, "0.0")
				continue
			}
			fmt.Fprintf(&sb, "    %-16s %6.1f  x %.2f = %6.1f\n", row.name, row.score.Value, row.weight, row.score.Value*row.weight)
		}

		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func formatCount(n int) string {
	if n <= 0 {
		return models.Placeholder
	}
	return fmt.Sprintf("%d", n)
}

func formatMarketCap(v float64) string {
	if v <= 0 {
		return models.Placeholder
	}
	return utils.FormatMarketCap(v)
}

func formatLevel(v float64) string {
	if v <= 0 {
		return models.Placeholder
	}
	return utils.FormatPrice(models.Known(v))
}

func formatRatio(o models.OptFloat) string {
	if !o.Valid {
		return models.Placeholder
	}
	return fmt.Sprintf("%.2f", o.Value)
}

// truncate shortens s to at most n runes, marking the cut with "…".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
