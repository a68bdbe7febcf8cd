package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/investscout/pkg/models"
)

func metricsFor(tickers ...string) map[string]models.RawMetrics {
	out := make(map[string]models.RawMetrics, len(tickers))
	for _, t := range tickers {
		out[t] = models.RawMetrics{Ticker: t, Price: ptr(10.0), Sector: "Technology"}
	}
	return out
}

func fetchedTickers(ms []models.RawMetrics) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Ticker
	}
	return out
}

func TestFetcherPreservesOrderAndDropsFailures(t *testing.T) {
	tickers := make([]string, 0, 40)
	data := map[string]models.RawMetrics{}
	errs := map[string]error{}
	for i := 0; i < 40; i++ {
		tk := fmt.Sprintf("T%02d", i)
		tickers = append(tickers, tk)
		if i%7 == 3 {
			errs[tk] = errors.New("upstream failure")
			continue
		}
		data[tk] = models.RawMetrics{Ticker: tk, Price: ptr(float64(i + 1))}
	}
	src := &fakeSource{name: "fake", data: data, errs: errs}

	got, err := NewFetcher(src, WithWorkers(5)).FetchAll(context.Background(), tickers)
	require.NoError(t, err)

	var want []string
	for _, tk := range tickers {
		if _, failed := errs[tk]; !failed {
			want = append(want, tk)
		}
	}
	assert.Equal(t, want, fetchedTickers(got))
	assert.Equal(t, int64(40), src.calls.Load(), "each ticker fetched exactly once")
}

func TestFetcherBoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int64
	src := &blockingSource{
		before: func() {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inFlight.Add(-1)
		},
	}
	tickers := make([]string, 30)
	for i := range tickers {
		tickers[i] = fmt.Sprintf("B%d", i)
	}

	got, err := NewFetcher(src, WithWorkers(3)).FetchAll(context.Background(), tickers)
	require.NoError(t, err)
	assert.Len(t, got, 30)
	assert.LessOrEqual(t, peak.Load(), int64(3))
}

type blockingSource struct {
	before func()
}

func (b *blockingSource) Name() string { return "blocking" }

func (b *blockingSource) FetchMetrics(ctx context.Context, ticker string) (*models.RawMetrics, error) {
	b.before()
	return &models.RawMetrics{Ticker: ticker, Price: ptr(1.0)}, nil
}

func TestFetcherCancelled(t *testing.T) {
	src := &fakeSource{name: "fake", data: metricsFor("A", "B", "C")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := NewFetcher(src).FetchAll(ctx, []string{"A", "B", "C"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

func TestFetcherEmpty(t *testing.T) {
	got, err := NewFetcher(&fakeSource{name: "fake"}).FetchAll(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFetcherSectors(t *testing.T) {
	src := &fakeSource{name: "fake", data: map[string]models.RawMetrics{
		"JPM":   {Ticker: "JPM", Sector: "Financial Services"},
		"AMZN":  {Ticker: "AMZN", Sector: "Consumer Cyclical"},
		"RY.TO": {Ticker: "RY.TO"},
		"ZZZ":   {Ticker: "ZZZ"},
	}}
	static := map[string]string{"RY.TO": "Financials", "JPM": "Energy"}
	f := NewFetcher(src, WithSectorLookup(func(t string) string { return static[t] }))

	got, err := f.FetchAll(context.Background(), []string{"JPM", "AMZN", "RY.TO", "ZZZ"})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "Financials", got[0].Sector, "provider sector is normalised")
	assert.Equal(t, "Consumer Discretionary", got[1].Sector)
	assert.Equal(t, "Financials", got[2].Sector, "static sector fills the gap")
	assert.Empty(t, got[3].Sector)
}

func TestFetcherProgress(t *testing.T) {
	src := &fakeSource{name: "fake", data: metricsFor("A", "B", "C", "D")}

	var mu sync.Mutex
	var calls []int
	total := 0
	f := NewFetcher(src, WithWorkers(2), WithProgress(func(done, n int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, done)
		total = n
	}))

	_, err := f.FetchAll(context.Background(), []string{"A", "B", "C", "X"})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, calls)
	assert.Equal(t, "fake", f.Source().Name())
}
