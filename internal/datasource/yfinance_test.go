package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const aaplSummary = `{
  "quoteSummary": {
    "result": [{
      "price": {
        "shortName": "Apple Inc.",
        "longName": "Apple Inc.",
        "regularMarketPrice": {"raw": 200.5, "fmt": "200.50"},
        "marketCap": {"raw": 3.1e12, "fmt": "3.1T"}
      },
      "summaryDetail": {
        "trailingPE": {"raw": 31.2},
        "forwardPE": {"raw": 28.4},
        "dividendYield": {"raw": 0.0051},
        "payoutRatio": {"raw": 0.15},
        "fiftyTwoWeekHigh": {"raw": 260.1},
        "fiftyTwoWeekLow": {"raw": 169.2},
        "fiftyDayAverage": {"raw": 210.0},
        "twoHundredDayAverage": {"raw": 225.3}
      },
      "financialData": {
        "currentPrice": {"raw": 200.4},
        "targetMeanPrice": {"raw": 240.0},
        "recommendationKey": "buy",
        "recommendationMean": {"raw": 2.1},
        "numberOfAnalystOpinions": {"raw": 38, "fmt": "38"},
        "revenueGrowth": {"raw": 0.05},
        "earningsGrowth": {},
        "grossMargins": {"raw": 0.46}
      },
      "defaultKeyStatistics": {"forwardPE": {"raw": 27.0}},
      "assetProfile": {"sector": "Technology", "industry": "Consumer Electronics"}
    }],
    "error": null
  }
}`

type yahooStub struct {
	srv          *httptest.Server
	crumbCalls   atomic.Int64
	summaryCalls atomic.Int64
	// reject makes the first n quoteSummary calls answer 401.
	reject atomic.Int64
	// summary maps the requested symbol to a status and body.
	summary map[string]stubResponse
}

type stubResponse struct {
	status int
	body   string
}

func newYahooStub(t *testing.T) *yahooStub {
	t.Helper()
	s := &yahooStub{summary: map[string]stubResponse{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session", Path: "/"})
		http.NotFound(w, r)
	})
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		n := s.crumbCalls.Add(1)
		if _, err := r.Cookie("A3"); err != nil {
			http.Error(w, "<html>no cookie</html>", http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, "crumb-%d", n)
	})
	mux.HandleFunc("/v10/finance/quoteSummary/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		s.summaryCalls.Add(1)
		if r.URL.Query().Get("crumb") == "" {
			http.Error(w, "missing crumb", http.StatusUnauthorized)
			return
		}
		if s.reject.Load() > 0 {
			s.reject.Add(-1)
			http.Error(w, `{"finance":{"error":{"code":"Unauthorized"}}}`, http.StatusUnauthorized)
			return
		}
		resp, ok := s.summary[r.PathValue("symbol")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found"}}}`)
			return
		}
		w.WriteHeader(resp.status)
		fmt.Fprint(w, resp.body)
	})
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *yahooStub) source() *YFinance {
	return NewYFinance(
		WithBaseURL(s.srv.URL+"/"),
		WithCookieURL(s.srv.URL+"/"),
		WithRateLimiter(rate.NewLimiter(rate.Inf, 0)),
	)
}

func TestYFinanceFetchMetrics(t *testing.T) {
	stub := newYahooStub(t)
	stub.summary["AAPL"] = stubResponse{http.StatusOK, aaplSummary}

	m, err := stub.source().FetchMetrics(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", m.Ticker)
	assert.Equal(t, "Apple Inc.", m.Name)
	assert.Equal(t, "Technology", m.Sector)
	assert.Equal(t, "Consumer Electronics", m.Industry)
	require.NotNil(t, m.Price)
	assert.Equal(t, 200.5, *m.Price)
	assert.Equal(t, 240.0, *m.TargetPrice)
	assert.Equal(t, 3.1e12, *m.MarketCap)
	assert.Equal(t, 28.4, *m.PERatio, "summary forward PE wins")
	assert.Equal(t, 0.0051, *m.DividendYield)
	assert.Equal(t, 0.15, *m.PayoutRatio)
	assert.Equal(t, 0.05, *m.RevenueGrowth)
	assert.Nil(t, m.EarningsGrowth, "empty wrapper is unknown")
	assert.Equal(t, "buy", m.Recommendation)
	assert.Equal(t, 2.1, *m.RecommendationMean)
	require.NotNil(t, m.NumAnalysts)
	assert.Equal(t, 38, *m.NumAnalysts)
	assert.Equal(t, 260.1, *m.FiftyTwoWeekHigh)
	assert.Equal(t, 169.2, *m.FiftyTwoWeekLow)
	assert.Equal(t, 210.0, *m.FiftyDayAvg)
	assert.Equal(t, 225.3, *m.TwoHundredDayAvg)

	assert.Equal(t, int64(1), stub.crumbCalls.Load())
}

func TestYFinanceReusesCrumb(t *testing.T) {
	stub := newYahooStub(t)
	stub.summary["AAPL"] = stubResponse{http.StatusOK, aaplSummary}
	src := stub.source()

	for i := 0; i < 3; i++ {
		_, err := src.FetchMetrics(context.Background(), "AAPL")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), stub.crumbCalls.Load())
	assert.Equal(t, int64(3), stub.summaryCalls.Load())
}

func TestYFinanceSessionExpires(t *testing.T) {
	stub := newYahooStub(t)
	stub.summary["AAPL"] = stubResponse{http.StatusOK, aaplSummary}
	src := NewYFinance(
		WithBaseURL(stub.srv.URL),
		WithCookieURL(stub.srv.URL+"/"),
		WithRateLimiter(rate.NewLimiter(rate.Inf, 0)),
		WithSessionTTL(time.Second),
	)

	_, err := src.FetchMetrics(context.Background(), "AAPL")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	_, err = src.FetchMetrics(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, int64(2), stub.crumbCalls.Load())
}

func TestWithSessionTTLIgnoresTinyValues(t *testing.T) {
	src := NewYFinance(WithSessionTTL(time.Millisecond))
	assert.Equal(t, DefaultSessionTTL, src.sessTTL)
}

func TestYFinanceCanadianTicker(t *testing.T) {
	stub := newYahooStub(t)
	stub.summary["BBD-B.TO"] = stubResponse{http.StatusOK, aaplSummary}

	m, err := stub.source().FetchMetrics(context.Background(), "BBD.B.TO")
	require.NoError(t, err)
	assert.Equal(t, "BBD.B.TO", m.Ticker, "caller's ticker is kept")
}

func TestYFinanceFallbacks(t *testing.T) {
	stub := newYahooStub(t)
	stub.summary["XYZ"] = stubResponse{http.StatusOK, `{"quoteSummary":{"result":[{
		"price": {"longName": "Xyz Holdings"},
		"summaryDetail": {"marketCap": {"raw": 5e9}, "trailingPE": {"raw": 14.0}},
		"financialData": {"currentPrice": {"raw": 12.5}}
	}]}}`}

	m, err := stub.source().FetchMetrics(context.Background(), "XYZ")
	require.NoError(t, err)
	assert.Equal(t, "Xyz Holdings", m.Name)
	assert.Equal(t, 12.5, *m.Price)
	assert.Equal(t, 5e9, *m.MarketCap)
	assert.Equal(t, 14.0, *m.PERatio)
	assert.Nil(t, m.TargetPrice)
	assert.Nil(t, m.NumAnalysts)
	assert.Empty(t, m.Sector)
}

func TestYFinanceNoPrice(t *testing.T) {
	stub := newYahooStub(t)
	stub.summary["FUND"] = stubResponse{http.StatusOK, `{"quoteSummary":{"result":[{"price":{"shortName":"Fund"}}]}}`}

	_, err := stub.source().FetchMetrics(context.Background(), "FUND")
	assert.ErrorIs(t, err, ErrTickerNotFound)
}

func TestYFinanceErrors(t *testing.T) {
	stub := newYahooStub(t)
	stub.summary["BUSY"] = stubResponse{http.StatusTooManyRequests, "Too Many Requests"}
	stub.summary["EMPTY"] = stubResponse{http.StatusOK, `{"quoteSummary":{"result":[]}}`}
	stub.summary["BAD"] = stubResponse{http.StatusOK, `not json`}
	stub.summary["BROKEN"] = stubResponse{http.StatusOK, `{"quoteSummary":{"result":null,"error":{"code":"Internal","description":"boom"}}}`}
	src := stub.source()

	_, err := src.FetchMetrics(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrTickerNotFound)

	_, err = src.FetchMetrics(context.Background(), "BUSY")
	assert.ErrorIs(t, err, ErrRateLimited)
	var httpErr *ErrHTTP
	assert.True(t, errors.As(err, &httpErr))

	_, err = src.FetchMetrics(context.Background(), "EMPTY")
	assert.ErrorIs(t, err, ErrTickerNotFound)

	_, err = src.FetchMetrics(context.Background(), "BAD")
	assert.ErrorContains(t, err, "parse yfinance quoteSummary")

	_, err = src.FetchMetrics(context.Background(), "BROKEN")
	assert.ErrorContains(t, err, "boom")
	assert.NotErrorIs(t, err, ErrTickerNotFound)
}

func TestYFinanceRefreshesRejectedCrumb(t *testing.T) {
	stub := newYahooStub(t)
	stub.summary["AAPL"] = stubResponse{http.StatusOK, aaplSummary}
	stub.reject.Store(1)

	m, err := stub.source().FetchMetrics(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", m.Name)
	assert.Equal(t, int64(2), stub.crumbCalls.Load())
	assert.Equal(t, int64(2), stub.summaryCalls.Load())
}

func TestYFinanceRefreshOnlyOnce(t *testing.T) {
	stub := newYahooStub(t)
	stub.summary["AAPL"] = stubResponse{http.StatusOK, aaplSummary}
	stub.reject.Store(5)

	_, err := stub.source().FetchMetrics(context.Background(), "AAPL")
	var httpErr *ErrHTTP
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, int64(2), stub.summaryCalls.Load())
}

func TestYFinanceInvalidCrumb(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>consent</body></html>")
	}))
	defer srv.Close()

	src := NewYFinance(WithBaseURL(srv.URL), WithCookieURL(srv.URL), WithRateLimiter(rate.NewLimiter(rate.Inf, 0)))
	_, err := src.FetchMetrics(context.Background(), "AAPL")
	assert.ErrorContains(t, err, "invalid crumb")
}

func TestYFinanceCancelled(t *testing.T) {
	stub := newYahooStub(t)
	stub.summary["AAPL"] = stubResponse{http.StatusOK, aaplSummary}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := stub.source().FetchMetrics(ctx, "AAPL")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestYFinanceName(t *testing.T) {
	assert.Equal(t, "Yahoo Finance", NewYFinance().Name())
}
