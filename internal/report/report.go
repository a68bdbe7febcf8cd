// Package report renders screening results for InvestScout: summary
// statistics, a terminal table, per-stock detail blocks, CSV and JSON exports,
// and an HTML report with an SVG score chart and optional PDF conversion.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/seenimoa/investscout/internal/screener"
	"github.com/seenimoa/investscout/pkg/models"
	"github.com/seenimoa/investscout/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Report Generator
// ════════════════════════════════════════════════════════════════════

// ReportFormat specifies the output format.
type ReportFormat string

const (
	FormatTable ReportFormat = "table"
	FormatCSV   ReportFormat = "csv"
	FormatJSON  ReportFormat = "json"
	FormatHTML  ReportFormat = "html"
)

// ParseFormat returns the format named by s, or an error.
func ParseFormat(s string) (ReportFormat, error) {
	switch f := ReportFormat(s); f {
	case FormatTable, FormatCSV, FormatJSON, FormatHTML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want table, csv, json or html)", s)
	}
}

// ReportConfig controls report generation behaviour.
type ReportConfig struct {
	Format   ReportFormat // output format (default: table)
	Title    string       // custom report title (optional)
	Author   string       // author name (optional, default: "InvestScout")
	Details  int          // detail blocks to print after the table (table format only)
	ChartCfg ChartConfig  // score chart rendering config (HTML only)
}

// DefaultReportConfig returns sensible defaults.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Format:   FormatTable,
		Author:   "InvestScout",
		ChartCfg: DefaultChartConfig(),
	}
}

// ════════════════════════════════════════════════════════════════════
// Summary
// ════════════════════════════════════════════════════════════════════

// Summary holds headline statistics of a screening run.
type Summary struct {
	Screened   int             `json:"screened"`
	Passed     int             `json:"passed"`
	Ranked     int             `json:"ranked"`
	MeanUpside models.OptFloat `json:"mean_upside_pct"`
	MeanScore  models.OptFloat `json:"mean_score"`
	TopTicker  string          `json:"top_ticker,omitempty"`
}

// Summarize computes the summary of a run. Means are taken over the ranked
// candidates; mean upside ignores candidates whose upside is unknown and is
// itself unknown when no candidate has one.
func Summarize(screened, passed int, candidates []models.RankedCandidate) Summary {
	s := Summary{
		Screened: screened,
		Passed:   passed,
		Ranked:   len(candidates),
	}
	if len(candidates) == 0 {
		return s
	}
	s.TopTicker = candidates[0].Ticker

	scores := make([]float64, len(candidates))
	upsides := make([]float64, 0, len(candidates))
	for i, c := range candidates {
		scores[i] = c.Score
		if c.UpsidePct.Valid {
			upsides = append(upsides, c.UpsidePct.Value)
		}
	}
	s.MeanScore = models.Known(stat.Mean(scores, nil))
	if len(upsides) > 0 {
		s.MeanUpside = models.Known(stat.Mean(upsides, nil))
	}
	return s
}

// SummaryOf summarises a screener result.
func SummaryOf(res *screener.Result) Summary {
	return Summarize(res.Screened, res.Passed, res.Candidates)
}

// ════════════════════════════════════════════════════════════════════
// Dispatch
// ════════════════════════════════════════════════════════════════════

// Write renders res to w in the configured format.
func Write(w io.Writer, res *screener.Result, cfg ReportConfig) error {
	if res == nil {
		return fmt.Errorf("result is nil")
	}
	switch cfg.Format {
	case FormatTable, "":
		if err := WriteSummary(w, res.Style, SummaryOf(res)); err != nil {
			return err
		}
		if len(res.Candidates) == 0 {
			_, err := fmt.Fprintln(w, "\nNo stocks matched the screening criteria.")
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := WriteTable(w, res.Candidates, res.Style); err != nil {
			return err
		}
		if cfg.Details > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
			return WriteDetails(w, res.Candidates, res.Style, cfg.Details)
		}
		return nil
	case FormatCSV:
		return WriteCSV(w, res.Candidates)
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatHTML:
		html, err := GenerateHTML(res, cfg)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, html)
		return err
	default:
		return fmt.Errorf("unsupported report format: %s", cfg.Format)
	}
}

// ════════════════════════════════════════════════════════════════════
// HTML
// ════════════════════════════════════════════════════════════════════

// ReportData is the template model passed to the HTML template.
type ReportData struct {
	Title       string
	Author      string
	GeneratedAt string
	Style       string
	Screened    int
	Passed      int
	MeanUpside  string
	MeanScore   string
	TopTicker   string
	Placeholder string
	Rows        []RowData
	Sectors     []SectorData
	ScoreChart  template.HTML
}

// SignalTag is one signal label rendered as a badge.
type SignalTag struct {
	Label string
	Warn  bool
}

// SectorData is one row of the sector mix table.
type SectorData struct {
	Name  string
	Count int
	Width int // bar width in px
}

// RowData is one flattened candidate row.
type RowData struct {
	Rank        int
	Ticker      string
	Company     string
	Price       string
	Target      string
	Upside      string
	UpsideClass string // CSS class: positive, negative, muted
	Rating      string
	Analysts    string
	Score       string
	Signal      string
	Signals     []SignalTag
	MarketCap   string
	Sector      string
}

// GenerateHTML renders a standalone HTML screening report.
func GenerateHTML(res *screener.Result, cfg ReportConfig) (string, error) {
	if res == nil {
		return "", fmt.Errorf("result is nil")
	}

	tmpl, err := template.New("report").Parse(ReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, buildReportData(res, cfg)); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

func buildReportData(res *screener.Result, cfg ReportConfig) ReportData {
	sum := SummaryOf(res)
	data := ReportData{
		Title:       cfg.Title,
		Author:      cfg.Author,
		GeneratedAt: ReportTimestamp(),
		Style:       res.Style.Title(),
		Screened:    sum.Screened,
		Passed:      sum.Passed,
		MeanUpside:  utils.FormatSignedPct(sum.MeanUpside),
		MeanScore:   models.Placeholder,
		TopTicker:   sum.TopTicker,
		Placeholder: models.Placeholder,
	}
	if data.Title == "" {
		data.Title = fmt.Sprintf("Stock Screen: %s", res.Style.Title())
	}
	if data.Author == "" {
		data.Author = "InvestScout"
	}
	if sum.MeanScore.Valid {
		data.MeanScore = utils.FormatScore(sum.MeanScore.Value)
	}

	data.Rows = make([]RowData, len(res.Candidates))
	for i, c := range res.Candidates {
		data.Rows[i] = RowData{
			Rank:        i + 1,
			Ticker:      c.Ticker,
			Company:     c.Name,
			Price:       utils.FormatPrice(c.Price),
			Target:      utils.FormatPrice(c.TargetPrice),
			Upside:      utils.FormatSignedPct(c.UpsidePct),
			UpsideClass: upsideClass(c.UpsidePct),
			Rating:      c.Recommendation.Title(),
			Analysts:    formatCount(c.NumAnalysts),
			Score:       utils.FormatScore(c.Score),
			Signal:      c.Signal,
			Signals:     signalTags(c.Signal),
			MarketCap:   formatMarketCap(c.MarketCap),
			Sector:      c.Sector,
		}
	}

	data.Sectors = sectorMix(res.Candidates)

	chartCfg := cfg.ChartCfg
	if chartCfg.Title == "" {
		chartCfg.Title = fmt.Sprintf("%s Score", res.Style.Title())
	}
	data.ScoreChart = template.HTML(ScoreChart(res.Candidates, chartCfg))
	return data
}

// signalTags splits a joined signal string into badges. Bearish labels are
// flagged for warning colours.
func signalTags(signal string) []SignalTag {
	if signal == "" || signal == screener.NoSignal {
		return nil
	}
	parts := strings.Split(signal, screener.SignalSeparator)
	tags := make([]SignalTag, len(parts))
	for i, p := range parts {
		tags[i] = SignalTag{Label: p, Warn: p == screener.LabelOvervalued || p == screener.LabelSell}
	}
	return tags
}

const sectorBarMax = 240

// sectorMix counts ranked candidates per sector, largest first.
func sectorMix(candidates []models.RankedCandidate) []SectorData {
	counts := make(map[string]int)
	for _, c := range candidates {
		name := c.Sector
		if name == "" {
			name = "Unclassified"
		}
		counts[name]++
	}
	out := make([]SectorData, 0, len(counts))
	peak := 0
	for name, n := range counts {
		out = append(out, SectorData{Name: name, Count: n})
		if n > peak {
			peak = n
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		out[i].Width = out[i].Count * sectorBarMax / peak
	}
	return out
}

func upsideClass(u models.OptFloat) string {
	switch {
	case !u.Valid:
		return "muted"
	case u.Value >= 0:
		return "positive"
	default:
		return "negative"
	}
}

// ════════════════════════════════════════════════════════════════════
// Utility
// ════════════════════════════════════════════════════════════════════

// ReportTimestamp returns the current US Eastern time formatted for report headers.
func ReportTimestamp() string {
	return utils.NowEastern().Format("02 Jan 2006, 03:04 PM MST")
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
