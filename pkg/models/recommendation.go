package models

import (
	"encoding/json"
	"strings"
)

// Recommendation is the canonical analyst consensus rating.
type Recommendation string

const (
	RecStrongBuy  Recommendation = "strong_buy"
	RecBuy        Recommendation = "buy"
	RecHold       Recommendation = "hold"
	RecSell       Recommendation = "sell"
	RecStrongSell Recommendation = "strong_sell"
	RecNone       Recommendation = "none"
)

// recommendationAliases maps lowercased, separator-free spellings to canonical values.
var recommendationAliases = map[string]Recommendation{
	"strongbuy":    RecStrongBuy,
	"buy":          RecBuy,
	"outperform":   RecBuy,
	"overweight":   RecBuy,
	"hold":         RecHold,
	"neutral":      RecHold,
	"sell":         RecSell,
	"underperform": RecSell,
	"underweight":  RecSell,
	"strongsell":   RecStrongSell,
	"none":         RecNone,
}

// ParseRecommendation normalises a provider rating key such as "strongBuy",
// "Strong Buy" or "strong_buy". Unrecognised or empty input yields RecNone.
func ParseRecommendation(s string) Recommendation {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	if rec, ok := recommendationAliases[key]; ok {
		return rec
	}
	return RecNone
}

// IsBuy reports whether the rating is buy or strong buy.
func (r Recommendation) IsBuy() bool {
	return r == RecBuy || r == RecStrongBuy
}

// Title returns a display form, e.g. "Strong Buy".
func (r Recommendation) Title() string {
	switch r {
	case RecStrongBuy:
		return "Strong Buy"
	case RecBuy:
		return "Buy"
	case RecHold:
		return "Hold"
	case RecSell:
		return "Sell"
	case RecStrongSell:
		return "Strong Sell"
	default:
		return "None"
	}
}

// UnmarshalJSON accepts any known spelling.
func (r *Recommendation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ParseRecommendation(s)
	return nil
}
