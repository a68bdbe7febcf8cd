package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seenimoa/investscout/pkg/models"
)

func sampleRecords() []models.StockMetricRecord {
	tech := fullRaw("MSFT")

	bank := fullRaw("JPM")
	bank.Sector = "Financials"
	bank.MarketCap = ptr(400e9)
	bank.TargetPrice = ptr(105.0) // 5% upside
	bank.Recommendation = "hold"

	small := fullRaw("SMCI")
	small.MarketCap = ptr(800e6)
	small.NumAnalysts = ptr(3)
	small.Recommendation = "strong_buy"

	etf := models.RawMetrics{Ticker: "XIU.TO", Sector: "ETF", Price: ptr(35.0), MarketCap: ptr(12e9)}

	loser := fullRaw("INTC")
	loser.TargetPrice = ptr(80.0) // -20% upside
	loser.Recommendation = "Underperform"

	return NewRecords([]models.RawMetrics{tech, bank, small, etf, loser})
}

func tickers(records []models.StockMetricRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Ticker
	}
	return out
}

func TestApplyFilters(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"unrestricted", Criteria{}, []string{"MSFT", "JPM", "SMCI", "XIU.TO", "INTC"}},
		{"sector", Criteria{Sectors: []string{"Financials", "ETF"}}, []string{"JPM", "XIU.TO"}},
		{"unknown sector name", Criteria{Sectors: []string{"Nonexistent"}}, []string{}},
		{"min market cap", Criteria{MinMarketCap: 2e9}, []string{"MSFT", "JPM", "XIU.TO", "INTC"}},
		{"max market cap", Criteria{MaxMarketCap: 100e9}, []string{"MSFT", "SMCI", "XIU.TO", "INTC"}},
		{"cap band", Criteria{MinMarketCap: 2e9, MaxMarketCap: 20e9}, []string{"XIU.TO"}},
		{"min analysts", Criteria{MinAnalysts: 5}, []string{"MSFT", "JPM", "INTC"}},
		{"min upside", Criteria{MinUpside: 10}, []string{"MSFT", "SMCI"}},
		{"negative min upside still drops unknown", Criteria{MinUpside: -25}, []string{"MSFT", "JPM", "SMCI", "INTC"}},
		{"buy ratings only", Criteria{BuyRatingsOnly: true}, []string{"MSFT", "SMCI"}},
		{"combined", Criteria{Sectors: []string{"Technology"}, MinAnalysts: 5, MinUpside: 10, BuyRatingsOnly: true}, []string{"MSFT"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyFilters(sampleRecords(), tt.criteria)
			assert.Equal(t, tt.want, tickers(got))
		})
	}
}

func TestApplyFiltersUnrestrictedIsIdentity(t *testing.T) {
	in := sampleRecords()
	assert.Equal(t, in, ApplyFilters(in, Criteria{Sectors: []string{}}))
}

func TestApplyFiltersIdempotent(t *testing.T) {
	criteria := []Criteria{
		{},
		{MinUpside: 10},
		{Sectors: []string{"Technology"}, MinAnalysts: 5},
		{MinMarketCap: 1e9, MaxMarketCap: 500e9, BuyRatingsOnly: true},
	}
	for _, c := range criteria {
		once := ApplyFilters(sampleRecords(), c)
		twice := ApplyFilters(once, c)
		assert.Equal(t, once, twice, "criteria %+v", c)
	}
}

func TestApplyFiltersEmptyInput(t *testing.T) {
	got := ApplyFilters(nil, Criteria{MinUpside: 5})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestApplyFiltersMinAnalystsExcludesOnlyUndercovered(t *testing.T) {
	covered := fullRaw("AAA")
	thin := fullRaw("BBB")
	thin.NumAnalysts = ptr(3)

	got := ApplyFilters(NewRecords([]models.RawMetrics{covered, thin}), Criteria{MinAnalysts: 5})
	assert.Equal(t, []string{"AAA"}, tickers(got))
}

func TestApplyFiltersDoesNotMutateInput(t *testing.T) {
	in := sampleRecords()
	before := tickers(in)
	ApplyFilters(in, Criteria{MinUpside: 10, BuyRatingsOnly: true})
	assert.Equal(t, before, tickers(in))
}

func TestCriteriaValidate(t *testing.T) {
	assert.NoError(t, Criteria{}.Validate())
	assert.NoError(t, Criteria{MinMarketCap: 2e9, MaxMarketCap: 10e9, MinUpside: -5}.Validate())
	assert.NoError(t, Criteria{MinMarketCap: 2e9}.Validate(), "zero max is unset")
	assert.Error(t, Criteria{MinMarketCap: -1}.Validate())
	assert.Error(t, Criteria{MinAnalysts: -2}.Validate())
	assert.ErrorIs(t, Criteria{MinMarketCap: 10e9, MaxMarketCap: 2e9}.Validate(), ErrInvalidCriteria)
}

func TestRiskTolerance(t *testing.T) {
	tests := []struct {
		in   string
		want RiskTolerance
		cap  float64
	}{
		{"Large Cap Only", RiskLarge, 10e9},
		{"large", RiskLarge, 10e9},
		{"Include Mid Cap", RiskMid, 2e9},
		{"Include Small Cap", RiskSmall, 500e6},
		{"", RiskMid, 2e9},
		{"whatever", RiskMid, 2e9},
	}
	for _, tt := range tests {
		got := ParseRiskTolerance(tt.in)
		if got != tt.want {
			t.Errorf("ParseRiskTolerance(%q): got %q, want %q", tt.in, got, tt.want)
		}
		if got.MinMarketCap() != tt.cap {
			t.Errorf("%s.MinMarketCap(): got %v, want %v", got, got.MinMarketCap(), tt.cap)
		}
	}

	c := Criteria{MinAnalysts: 5}.WithRisk(RiskLarge)
	assert.Equal(t, 10e9, c.MinMarketCap)
	assert.Equal(t, 5, c.MinAnalysts)
}
