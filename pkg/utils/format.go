// Package utils provides common formatting, ticker and market-calendar helpers for InvestScout.
package utils

import (
	"fmt"
	"math"
	"strconv"

	"github.com/seenimoa/investscout/pkg/models"
)

// FormatMarketCap formats a dollar market capitalisation compactly.
// e.g., 2.5e12 → "$2.5T", 48.2e9 → "$48.2B", 712e6 → "$712M", 950000 → "$950,000"
func FormatMarketCap(value float64) string {
	switch {
	case value >= 1e12:
		return fmt.Sprintf("$%.1fT", value/1e12)
	case value >= 1e9:
		return fmt.Sprintf("$%.1fB", value/1e9)
	case value >= 1e6:
		return fmt.Sprintf("$%.0fM", value/1e6)
	default:
		return "$" + GroupThousands(int64(math.Round(value)))
	}
}

// GroupThousands inserts comma separators every three digits: 1234567 → "1,234,567".
func GroupThousands(n int64) string {
	negative := n < 0
	if negative {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	if len(s) > 3 {
		var out []byte
		head := len(s) % 3
		if head > 0 {
			out = append(out, s[:head]...)
		}
		for i := head; i < len(s); i += 3 {
			if len(out) > 0 {
				out = append(out, ',')
			}
			out = append(out, s[i:i+3]...)
		}
		s = string(out)
	}
	if negative {
		return "-" + s
	}
	return s
}

// FormatPrice formats a per-share price as "$12.34", or the placeholder when unknown.
func FormatPrice(p models.OptFloat) string {
	if !p.Valid {
		return models.Placeholder
	}
	return fmt.Sprintf("$%.2f", p.Value)
}

// FormatSignedPct formats a value already expressed in percent with an explicit sign: "+12.3%".
func FormatSignedPct(p models.OptFloat) string {
	if !p.Valid {
		return models.Placeholder
	}
	return fmt.Sprintf("%+.1f%%", p.Value)
}

// FormatFraction formats a fraction as a percentage: 0.0345 → "3.45%" with decimals=2.
func FormatFraction(f models.OptFloat, decimals int) string {
	if !f.Valid {
		return models.Placeholder
	}
	return strconv.FormatFloat(f.Value*100, 'f', decimals, 64) + "%"
}

// FormatScore formats a composite score with one decimal.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 1, 64)
}
