package datasource

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/investscout/internal/config"
)

func TestNewSource(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"yahoo", "Yahoo Finance"},
		{"", "Yahoo Finance"},
		{"financego", "finance-go"},
		{"auto", "Yahoo Finance → finance-go"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			src, err := NewSource(config.FetchConfig{Source: tt.source, RequestsPerSecond: 4, Burst: 2}, zerolog.Nop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, src.Name())
		})
	}
}

func TestNewSourceUnknown(t *testing.T) {
	_, err := NewSource(config.FetchConfig{Source: "bloomberg"}, zerolog.Nop())
	assert.ErrorContains(t, err, "bloomberg")
}

func TestNewFetcherFromConfigUsesBaseURL(t *testing.T) {
	stub := newYahooStub(t)
	stub.summary["AAPL"] = stubResponse{http.StatusOK, aaplSummary}

	f, err := NewFetcherFromConfig(config.FetchConfig{
		Source:       "yahoo",
		Workers:      3,
		TimeoutSec:   5,
		YahooBaseURL: stub.srv.URL,
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 3, f.workers)

	// The cookie page is not configurable from config; point it at the stub.
	WithCookieURL(stub.srv.URL + "/")(f.Source().(*YFinance))

	out, err := f.FetchAll(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Apple Inc.", out[0].Name)
}

func TestNewFetcherFromConfigExtraOptions(t *testing.T) {
	f, err := NewFetcherFromConfig(config.FetchConfig{Source: "financego", Workers: 2}, zerolog.Nop(), WithWorkers(9))
	require.NoError(t, err)
	assert.Equal(t, 9, f.workers)
	assert.Equal(t, "finance-go", f.Source().Name())
}
