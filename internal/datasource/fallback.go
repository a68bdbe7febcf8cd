package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seenimoa/investscout/pkg/models"
)

// Fallback tries each source in order and returns the first success.
type Fallback struct {
	sources []MetricSource
}

// NewFallback creates a fallback chain over the given sources.
func NewFallback(sources ...MetricSource) *Fallback {
	return &Fallback{sources: sources}
}

// Name joins the names of the chained sources.
func (f *Fallback) Name() string {
	names := make([]string, len(f.sources))
	for i, s := range f.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, " → ")
}

// FetchMetrics returns the first source's successful result. Context errors
// stop the chain immediately.
func (f *Fallback) FetchMetrics(ctx context.Context, ticker string) (*models.RawMetrics, error) {
	var errs []error
	for _, s := range f.sources {
		m, err := s.FetchMetrics(ctx, ticker)
		if err == nil {
			return m, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no sources configured", ErrTickerNotFound)
	}
	return nil, fmt.Errorf("all sources failed for %s: %w", ticker, errors.Join(errs...))
}
