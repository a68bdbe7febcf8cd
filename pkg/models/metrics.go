// Package models defines the core data structures used throughout InvestScout.
package models

// RawMetrics is a per-ticker metric snapshot exactly as a data source reports it.
// Nil pointers mean the source did not provide the value.
type RawMetrics struct {
	Ticker             string   `json:"ticker"`
	Name               string   `json:"name"`
	Sector             string   `json:"sector"`
	Industry           string   `json:"industry,omitempty"`
	Price              *float64 `json:"price"`
	TargetPrice        *float64 `json:"target_price"`
	MarketCap          *float64 `json:"market_cap"`
	PERatio            *float64 `json:"pe_ratio"`
	DividendYield      *float64 `json:"dividend_yield"`
	PayoutRatio        *float64 `json:"payout_ratio,omitempty"`
	RevenueGrowth      *float64 `json:"revenue_growth"`
	EarningsGrowth     *float64 `json:"earnings_growth"`
	Recommendation     string   `json:"recommendation"`
	RecommendationMean *float64 `json:"recommendation_mean"`
	NumAnalysts        *int     `json:"num_analysts"`
	FiftyTwoWeekHigh   *float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLow    *float64 `json:"fifty_two_week_low,omitempty"`
	FiftyDayAvg        *float64 `json:"fifty_day_avg,omitempty"`
	TwoHundredDayAvg   *float64 `json:"two_hundred_day_avg,omitempty"`
}

// StockMetricRecord is the normalised, fixed-shape metric record the screener works on.
type StockMetricRecord struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Industry string `json:"industry,omitempty"`

	Price       OptFloat `json:"price"`
	TargetPrice OptFloat `json:"target_price"`
	MarketCap   float64  `json:"market_cap"` // 0 when unknown

	PERatio       OptFloat `json:"pe_ratio"`       // unknown when absent or <= 0
	DividendYield float64  `json:"dividend_yield"` // fraction, 0 when absent
	PayoutRatio   OptFloat `json:"payout_ratio"`

	RevenueGrowth  OptFloat `json:"revenue_growth"`  // fraction
	EarningsGrowth OptFloat `json:"earnings_growth"` // fraction

	Recommendation     Recommendation `json:"recommendation"`
	RecommendationMean OptFloat       `json:"recommendation_mean"` // 1 = strong buy, 5 = sell
	NumAnalysts        int            `json:"num_analysts"`

	FiftyTwoWeekHigh float64 `json:"fifty_two_week_high"` // 0 when unknown
	FiftyTwoWeekLow  float64 `json:"fifty_two_week_low"`
	FiftyDayAvg      float64 `json:"fifty_day_avg"`
	TwoHundredDayAvg float64 `json:"two_hundred_day_avg"`

	// Derived at intake.
	UpsidePct   OptFloat `json:"upside_pct"`
	PctFromHigh OptFloat `json:"pct_from_high"`
}

// RankedCandidate is a scored record as returned by the ranking engine.
type RankedCandidate struct {
	StockMetricRecord
	Score  float64 `json:"score"`
	Signal string  `json:"signal"`
}
