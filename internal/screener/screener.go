package screener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/investscout/pkg/models"
)

// ErrNoData is returned by Run when the intake produced no records at all.
var ErrNoData = errors.New("no stock data fetched")

// Intake produces raw metric snapshots for a ticker list. Tickers that fail to
// fetch are omitted from the result rather than reported as errors.
type Intake interface {
	FetchAll(ctx context.Context, tickers []string) ([]models.RawMetrics, error)
}

// Request bundles the inputs of one screening run.
type Request struct {
	Criteria Criteria `json:"criteria"`
	Style    Style    `json:"style"`
	TopN     int      `json:"top_n"`
}

// Result is the outcome of a screening run.
type Result struct {
	Style      Style                    `json:"style"`
	Screened   int                      `json:"screened"`
	Passed     int                      `json:"passed"`
	Candidates []models.RankedCandidate `json:"candidates"`
}

// Screen runs filter and rank over already-materialised records.
func Screen(records []models.StockMetricRecord, req Request) *Result {
	style := ParseStyle(string(req.Style))
	filtered := ApplyFilters(records, req.Criteria)
	return &Result{
		Style:      style,
		Screened:   len(records),
		Passed:     len(filtered),
		Candidates: RankCandidates(filtered, style, req.TopN),
	}
}

// Screener runs complete screens: fetch, intake, filter, rank.
type Screener struct {
	intake Intake
	logger zerolog.Logger
}

// New creates a Screener backed by intake.
func New(intake Intake, logger zerolog.Logger) *Screener {
	return &Screener{
		intake: intake,
		logger: logger.With().Str("component", "screener").Logger(),
	}
}

// Run fetches metrics for tickers and screens them. It returns ErrNoData when
// nothing could be fetched; a screen that matches nothing is not an error.
func (s *Screener) Run(ctx context.Context, tickers []string, req Request) (*Result, error) {
	if err := req.Criteria.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	raws, err := s.intake.FetchAll(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("fetch metrics: %w", err)
	}
	if len(raws) == 0 {
		return nil, ErrNoData
	}
	s.logger.Debug().
		Int("requested", len(tickers)).
		Int("fetched", len(raws)).
		Dur("elapsed", time.Since(start)).
		Msg("Metrics fetched")

	res := Screen(NewRecords(raws), req)

	s.logger.Info().
		Str("style", string(res.Style)).
		Int("screened", res.Screened).
		Int("passed", res.Passed).
		Int("ranked", len(res.Candidates)).
		Msg("Screen complete")
	return res, nil
}
