package datasource

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/investscout/internal/universe"
	"github.com/seenimoa/investscout/pkg/models"
)

// DefaultWorkers is the default number of concurrent fetches.
const DefaultWorkers = 10

// Fetcher fetches metrics for many tickers through a bounded worker pool.
// It satisfies screener.Intake.
type Fetcher struct {
	source   MetricSource
	workers  int
	sectorOf func(ticker string) string
	progress func(done, total int)
	logger   zerolog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithWorkers sets the worker pool size. Values below one are ignored.
func WithWorkers(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.workers = n
		}
	}
}

// WithSectorLookup supplies a static sector for tickers the source leaves blank.
func WithSectorLookup(lookup func(ticker string) string) FetcherOption {
	return func(f *Fetcher) {
		f.sectorOf = lookup
	}
}

// WithProgress registers a callback invoked after every ticker completes.
// It may be called concurrently.
func WithProgress(fn func(done, total int)) FetcherOption {
	return func(f *Fetcher) {
		f.progress = fn
	}
}

// WithFetcherLogger sets a logger.
func WithFetcherLogger(logger zerolog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher over source.
func NewFetcher(source MetricSource, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		source:  source,
		workers: DefaultWorkers,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Source returns the underlying metric source.
func (f *Fetcher) Source() MetricSource { return f.source }

// FetchAll fetches every ticker concurrently. Tickers that fail are logged
// and omitted; they are never retried. The result keeps input order. The
// only error returned is the context's. Nothing is cached between calls.
func (f *Fetcher) FetchAll(ctx context.Context, tickers []string) ([]models.RawMetrics, error) {
	results := make([]*models.RawMetrics, len(tickers))
	var done, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for i, ticker := range tickers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := f.fetchOne(gctx, ticker)
			if f.progress != nil {
				f.progress(int(done.Add(1)), len(tickers))
			}
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed.Add(1)
				f.logger.Debug().Err(err).Str("ticker", ticker).Msg("Ticker skipped")
				return nil
			}
			results[i] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]models.RawMetrics, 0, len(tickers))
	for _, m := range results {
		if m != nil {
			out = append(out, *m)
		}
	}
	f.logger.Debug().
		Str("source", f.source.Name()).
		Int("requested", len(tickers)).
		Int("fetched", len(out)).
		Int64("failed", failed.Load()).
		Msg("Fetch complete")
	return out, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, ticker string) (*models.RawMetrics, error) {
	m, err := f.source.FetchMetrics(ctx, ticker)
	if err != nil {
		return nil, err
	}

	m.Sector = universe.NormalizeSector(m.Sector)
	if m.Sector == "" && f.sectorOf != nil {
		m.Sector = f.sectorOf(ticker)
	}
	return m, nil
}
