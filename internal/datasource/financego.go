package datasource

import (
	"context"
	"fmt"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"golang.org/x/time/rate"

	"github.com/seenimoa/investscout/pkg/models"
	"github.com/seenimoa/investscout/pkg/utils"
)

// FinanceGo implements MetricSource on top of the piquette/finance-go quote
// client. The quote endpoint carries price, valuation and range data but no
// analyst coverage, so target price, rating and growth stay unknown.
type FinanceGo struct {
	get     func(symbol string) (*finance.Equity, error)
	limiter *rate.Limiter
}

// FinanceGoOption configures the FinanceGo source.
type FinanceGoOption func(*FinanceGo)

// WithEquityGetter replaces the finance-go lookup, e.g. with a stub in tests.
func WithEquityGetter(get func(symbol string) (*finance.Equity, error)) FinanceGoOption {
	return func(s *FinanceGo) {
		s.get = get
	}
}

// WithFinanceGoRateLimiter sets the limiter applied before every lookup.
func WithFinanceGoRateLimiter(l *rate.Limiter) FinanceGoOption {
	return func(s *FinanceGo) {
		s.limiter = l
	}
}

// NewFinanceGo creates a finance-go backed metric source.
func NewFinanceGo(opts ...FinanceGoOption) *FinanceGo {
	s := &FinanceGo{
		get:     equity.Get,
		limiter: rate.NewLimiter(rate.Limit(DefaultYahooRateLimit), DefaultYahooRateLimit),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the data source name.
func (s *FinanceGo) Name() string { return "finance-go" }

// FetchMetrics looks up the equity quote for a ticker. finance-go calls are
// not cancellable; ctx is checked before the lookup starts.
func (s *FinanceGo) FetchMetrics(ctx context.Context, ticker string) (*models.RawMetrics, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	symbol := utils.ToYahooTicker(ticker)
	e, err := s.get(symbol)
	if err != nil {
		return nil, fmt.Errorf("finance-go equity %s: %w", symbol, err)
	}
	if e == nil || e.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}
	return equityToRawMetrics(ticker, e), nil
}

func equityToRawMetrics(ticker string, e *finance.Equity) *models.RawMetrics {
	pe := positive(e.ForwardPE)
	if pe == nil {
		pe = positive(e.TrailingPE)
	}

	return &models.RawMetrics{
		Ticker:           ticker,
		Name:             coalesce(e.ShortName, e.LongName, ticker),
		Price:            positive(e.RegularMarketPrice),
		MarketCap:        positive(float64(e.MarketCap)),
		PERatio:          pe,
		DividendYield:    positive(e.TrailingAnnualDividendYield),
		FiftyTwoWeekHigh: positive(e.FiftyTwoWeekHigh),
		FiftyTwoWeekLow:  positive(e.FiftyTwoWeekLow),
		FiftyDayAvg:      positive(e.FiftyDayAverage),
		TwoHundredDayAvg: positive(e.TwoHundredDayAverage),
	}
}
