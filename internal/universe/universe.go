// Package universe holds the static ticker lists the screener draws from: a
// curated S&P 500 slice for the US market and the TSX 60 plus liquid Canadian
// names and ETFs for Canada. The lists are embedded YAML.
package universe

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/seenimoa/investscout/pkg/utils"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Market selects which ticker lists a screen covers.
type Market string

const (
	MarketBoth Market = "both"
	MarketUS   Market = "us"
	MarketCA   Market = "ca"
)

// ParseMarket maps user input to a Market. Unrecognised input selects both.
func ParseMarket(s string) Market {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "us", "usa", "sp500", "us stocks only":
		return MarketUS
	case "ca", "can", "canada", "tsx", "canadian (tsx) only":
		return MarketCA
	default:
		return MarketBoth
	}
}

// Constituent is one listed ticker with its static sector.
type Constituent struct {
	Ticker string `yaml:"ticker" json:"ticker"`
	Sector string `yaml:"sector" json:"sector"`
}

// Index is a named ticker list.
type Index struct {
	Name         string        `yaml:"name"         json:"name"`
	Constituents []Constituent `yaml:"constituents" json:"constituents"`
}

// Universe is the parsed set of embedded ticker lists.
type Universe struct {
	us      Index
	ca      Index
	sectors map[string]string
}

// Load parses the embedded ticker lists.
func Load() (*Universe, error) {
	u := &Universe{sectors: make(map[string]string)}
	for file, dst := range map[string]*Index{"data/sp500.yaml": &u.us, "data/tsx60.yaml": &u.ca} {
		raw, err := dataFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		if err := yaml.Unmarshal(raw, dst); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		for _, c := range dst.Constituents {
			if c.Sector != "" {
				u.sectors[utils.NormalizeTicker(c.Ticker)] = c.Sector
			}
		}
	}
	return u, nil
}

// Tickers returns the tickers for the market, US before Canadian, without
// duplicates and in list order.
func (u *Universe) Tickers(m Market) []string {
	var lists []Index
	switch m {
	case MarketUS:
		lists = []Index{u.us}
	case MarketCA:
		lists = []Index{u.ca}
	default:
		lists = []Index{u.us, u.ca}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, idx := range lists {
		for _, c := range idx.Constituents {
			if _, dup := seen[c.Ticker]; dup {
				continue
			}
			seen[c.Ticker] = struct{}{}
			out = append(out, c.Ticker)
		}
	}
	return out
}

// Indexes returns the lists a market draws from.
func (u *Universe) Indexes(m Market) []Index {
	switch m {
	case MarketUS:
		return []Index{u.us}
	case MarketCA:
		return []Index{u.ca}
	default:
		return []Index{u.us, u.ca}
	}
}

// SectorOf returns the static sector for a ticker, or "" when it is not listed.
func (u *Universe) SectorOf(ticker string) string {
	return u.sectors[utils.NormalizeTicker(ticker)]
}

// Sectors returns the eleven GICS sectors offered as filter choices.
func Sectors() []string {
	return []string{
		"Technology",
		"Healthcare",
		"Financials",
		"Consumer Discretionary",
		"Consumer Staples",
		"Energy",
		"Industrials",
		"Materials",
		"Real Estate",
		"Utilities",
		"Communication Services",
	}
}

// providerSectors maps Yahoo Finance sector names onto the GICS names used by
// the filters.
var providerSectors = map[string]string{
	"financial services":     "Financials",
	"financial":              "Financials",
	"consumer cyclical":      "Consumer Discretionary",
	"consumer defensive":     "Consumer Staples",
	"basic materials":        "Materials",
	"health care":            "Healthcare",
	"information technology": "Technology",
	"communication":          "Communication Services",
}

// NormalizeSector rewrites a provider sector name to its GICS equivalent.
// Names that are already canonical, or unknown, are returned trimmed.
func NormalizeSector(s string) string {
	s = strings.TrimSpace(s)
	if gics, ok := providerSectors[strings.ToLower(s)]; ok {
		return gics
	}
	return s
}
