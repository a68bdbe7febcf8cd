package datasource

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/investscout/internal/config"
	"github.com/seenimoa/investscout/internal/infra"
)

// Source names accepted by NewSource.
const (
	SourceYahoo     = "yahoo"
	SourceFinanceGo = "financego"
	SourceAuto      = "auto"
)

// NewSource builds the metric source selected by cfg.Source. "auto" chains
// Yahoo quoteSummary with finance-go as a fallback. Both share one limiter.
func NewSource(cfg config.FetchConfig, logger zerolog.Logger) (MetricSource, error) {
	limiter := infra.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)

	yahoo := func() *YFinance {
		jar, _ := cookiejar.New(nil)
		timeout := DefaultTimeout
		if cfg.TimeoutSec > 0 {
			timeout = time.Duration(cfg.TimeoutSec) * time.Second
		}
		opts := []YFinanceOption{
			WithHTTPClient(&http.Client{Jar: jar, Timeout: timeout}),
			WithRateLimiter(limiter),
			WithLogger(logger),
		}
		if cfg.YahooBaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.YahooBaseURL))
		}
		return NewYFinance(opts...)
	}
	financeGo := func() *FinanceGo {
		return NewFinanceGo(WithFinanceGoRateLimiter(limiter))
	}

	switch cfg.Source {
	case SourceYahoo, "":
		return yahoo(), nil
	case SourceFinanceGo:
		return financeGo(), nil
	case SourceAuto:
		return NewFallback(yahoo(), financeGo()), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Source)
	}
}

// NewFetcherFromConfig builds the source for cfg and wraps it in a Fetcher
// sized by cfg.Workers. Extra options are applied last.
func NewFetcherFromConfig(cfg config.FetchConfig, logger zerolog.Logger, extra ...FetcherOption) (*Fetcher, error) {
	src, err := NewSource(cfg, logger)
	if err != nil {
		return nil, err
	}
	opts := append([]FetcherOption{
		WithWorkers(cfg.Workers),
		WithFetcherLogger(logger),
	}, extra...)
	return NewFetcher(src, opts...), nil
}
