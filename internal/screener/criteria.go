package screener

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrInvalidCriteria is wrapped by every Validate failure.
var ErrInvalidCriteria = errors.New("invalid screening criteria")

// Criteria is the screening configuration. Zero-valued fields impose no
// restriction: an empty Sectors list admits every sector, and a zero
// threshold disables its predicate.
type Criteria struct {
	Sectors        []string `json:"sectors,omitempty"        yaml:"sectors"`
	MinMarketCap   float64  `json:"min_market_cap,omitempty" yaml:"min_market_cap" validate:"gte=0"`
	MaxMarketCap   float64  `json:"max_market_cap,omitempty" yaml:"max_market_cap" validate:"omitempty,gte=0,gtefield=MinMarketCap"`
	MinAnalysts    int      `json:"min_analysts,omitempty"   yaml:"min_analysts"   validate:"gte=0"`
	MinUpside      float64  `json:"min_upside,omitempty"     yaml:"min_upside"` // percentage points; any non-zero value is enforced
	BuyRatingsOnly bool     `json:"buy_ratings_only"         yaml:"buy_ratings_only"`
}

// Validate rejects negative bounds and a maximum market cap below the minimum.
func (c Criteria) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCriteria, err)
	}
	return nil
}

// WithRisk returns a copy of c with MinMarketCap set from the risk tolerance.
func (c Criteria) WithRisk(r RiskTolerance) Criteria {
	c.MinMarketCap = r.MinMarketCap()
	return c
}

// RiskTolerance maps a market-cap appetite to a minimum market cap.
type RiskTolerance string

const (
	RiskLarge RiskTolerance = "large" // large caps only
	RiskMid   RiskTolerance = "mid"   // include mid caps
	RiskSmall RiskTolerance = "small" // include small caps
)

// ParseRiskTolerance accepts "large", "Large Cap Only", "include small cap"
// and similar; anything else falls back to RiskMid.
func ParseRiskTolerance(s string) RiskTolerance {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "large"):
		return RiskLarge
	case strings.Contains(s, "small"):
		return RiskSmall
	default:
		return RiskMid
	}
}

// MinMarketCap returns the lower market-cap bound in currency units.
func (r RiskTolerance) MinMarketCap() float64 {
	switch r {
	case RiskLarge:
		return 10e9
	case RiskSmall:
		return 500e6 // liquidity floor
	default:
		return 2e9
	}
}
