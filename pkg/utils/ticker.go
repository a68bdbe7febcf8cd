package utils

import (
	"strings"
)

// Canadian listing suffixes used by Yahoo Finance.
const (
	SuffixTSX  = ".TO"
	SuffixTSXV = ".V"
)

// NormalizeTicker uppercases a user-input ticker and strips whitespace and a
// leading "$" (common in chat and notes).
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))
	return strings.TrimPrefix(ticker, "$")
}

// IsCanadian reports whether the ticker carries a TSX or TSX Venture suffix.
func IsCanadian(ticker string) bool {
	ticker = NormalizeTicker(ticker)
	return strings.HasSuffix(ticker, SuffixTSX) || strings.HasSuffix(ticker, SuffixTSXV)
}

// ToYahooTicker converts a ticker to Yahoo Finance format. Share-class dots
// become dashes ("BRK.B" → "BRK-B", "RCI.B.TO" → "RCI-B.TO"); exchange
// suffixes are kept.
func ToYahooTicker(ticker string) string {
	ticker = NormalizeTicker(ticker)

	suffix := ""
	for _, s := range []string{SuffixTSX, SuffixTSXV} {
		if strings.HasSuffix(ticker, s) {
			suffix = s
			ticker = strings.TrimSuffix(ticker, s)
			break
		}
	}
	return strings.ReplaceAll(ticker, ".", "-") + suffix
}

// BaseTicker strips a Canadian exchange suffix: "RY.TO" → "RY".
func BaseTicker(ticker string) string {
	ticker = NormalizeTicker(ticker)
	ticker = strings.TrimSuffix(ticker, SuffixTSX)
	return strings.TrimSuffix(ticker, SuffixTSXV)
}
