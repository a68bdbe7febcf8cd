package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/investscout/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// SVG Charts
// ════════════════════════════════════════════════════════════════════

// Bar colours, shared with the HTML template palette.
const (
	colorUp      = "#15803d"
	colorDown    = "#b91c1c"
	colorUnknown = "#94a3b8"
	colorGrid    = "#e2e8f0"
)

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int     // SVG width in pixels (default: 800)
	Height       int     // SVG height in pixels (default: 400)
	MarginTop    int     // default: 40
	MarginRight  int     // default: 60
	MarginBottom int     // default: 30
	MarginLeft   int     // default: 120
	BgColor      string  // default: "#ffffff"
	TextColor    string  // default: "#0f172a"
	FontSize     int     // default: 11
	Title        string  // chart title
	AxisMax      float64 // fixed upper bound with gridlines; 0 fits the data
	GridLines    int     // gridlines between 0 and AxisMax (default: 4)
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       400,
		MarginTop:    40,
		MarginRight:  60,
		MarginBottom: 30,
		MarginLeft:   120,
		BgColor:      "#ffffff",
		TextColor:    "#0f172a",
		FontSize:     11,
		GridLines:    4,
	}
}

// withDefaults fills a zero config, keeping the caller's title and axis.
func (c ChartConfig) withDefaults() ChartConfig {
	if c.Width != 0 {
		return c
	}
	d := DefaultChartConfig()
	d.Title, d.AxisMax = c.Title, c.AxisMax
	if c.Height > 0 {
		d.Height = c.Height
	}
	return d
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// BarItem represents a single bar in a horizontal bar chart.
type BarItem struct {
	Label string
	Value float64
	Color string // optional; defaults by sign
}

// axis maps values onto the horizontal pixel range [x0, x0+w].
type axis struct {
	lo, hi float64
	x0, w  float64
}

func newAxis(items []BarItem, fixedMax float64, x0, w int) axis {
	a := axis{hi: fixedMax, x0: float64(x0), w: float64(w)}
	for _, it := range items {
		a.lo = math.Min(a.lo, it.Value)
		a.hi = math.Max(a.hi, it.Value)
	}
	if a.hi-a.lo < 1e-3 {
		a.hi = a.lo + 1
	}
	return a
}

func (a axis) x(v float64) float64 {
	return a.x0 + (v-a.lo)/(a.hi-a.lo)*a.w
}

// HorizontalBarChart renders one bar per item. Negative values extend left
// of a zero line. With cfg.AxisMax set the axis is fixed and gridded.
func HorizontalBarChart(items []BarItem, cfg ChartConfig) string {
	if len(items) == 0 {
		return emptySVG(cfg, "No data")
	}
	cfg = cfg.withDefaults()
	if cfg.Title == "" {
		cfg.Title = "Comparison"
	}

	px, py, pw, ph := cfg.plotArea()
	ax := newAxis(items, cfg.AxisMax, px, pw)
	slot := float64(ph) / float64(len(items))
	barH := math.Min(slot*0.7, 30)

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	fmt.Fprintf(&sb, `<rect width="%d" height="%d" fill="%s"/>`, cfg.Width, cfg.Height, cfg.BgColor)
	fmt.Fprintf(&sb, `<text x="%d" y="22" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title))

	if cfg.AxisMax > 0 && cfg.GridLines > 0 {
		step := cfg.AxisMax / float64(cfg.GridLines)
		for i := 1; i <= cfg.GridLines; i++ {
			v := step * float64(i)
			gx := ax.x(v)
			fmt.Fprintf(&sb, `<line class="grid" x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="%s"/>`,
				gx, py, gx, py+ph, colorGrid)
			fmt.Fprintf(&sb, `<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%g</text>`,
				gx, py+ph+14, cfg.FontSize-1, cfg.TextColor, v)
		}
	}

	zero := ax.x(0)
	if ax.lo < 0 {
		fmt.Fprintf(&sb, `<line class="zero" x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="#64748b"/>`,
			zero, py, zero, py+ph)
	}

	for i, it := range items {
		top := float64(py) + float64(i)*slot + (slot-barH)/2
		mid := top + barH/2 + 4

		left, right := zero, ax.x(it.Value)
		if right < left {
			left, right = right, left
		}
		color := it.Color
		if color == "" {
			color = colorUp
			if it.Value < 0 {
				color = colorDown
			}
		}

		fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" rx="2"/>`,
			left, top, right-left, barH, color)
		fmt.Fprintf(&sb, `<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-6, mid, cfg.FontSize, cfg.TextColor, escapeXML(it.Label))
		fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" font-size="%d" fill="%s">%.1f</text>`,
			right+5, mid, cfg.FontSize, cfg.TextColor, it.Value)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ScoreChart draws each candidate's composite score on a 0–100 axis, best
// first. Bars are coloured by upside: green when positive, red when negative,
// grey when unknown.
func ScoreChart(candidates []models.RankedCandidate, cfg ChartConfig) string {
	items := make([]BarItem, len(candidates))
	for i, c := range candidates {
		items[i] = BarItem{Label: c.Ticker, Value: c.Score, Color: upsideColor(c.UpsidePct)}
	}
	cfg = cfg.withDefaults()
	cfg.AxisMax = 100
	if h := 60 + 26*len(items); cfg.Height < h {
		cfg.Height = h
	}
	return HorizontalBarChart(items, cfg)
}

func upsideColor(u models.OptFloat) string {
	switch {
	case !u.Valid:
		return colorUnknown
	case u.Value < 0:
		return colorDown
	default:
		return colorUp
	}
}

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="Helvetica, Arial, sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	w, h := cfg.Width, cfg.Height
	if w == 0 {
		w = 400
	}
	if h == 0 {
		h = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f1f5f9"/><text x="%d" y="%d" text-anchor="middle" fill="%s" font-size="14">%s</text></svg>`,
		w, h, w, h, w/2, h/2, colorUnknown, escapeXML(msg))
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
