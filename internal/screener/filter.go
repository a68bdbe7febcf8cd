package screener

import (
	"github.com/seenimoa/investscout/pkg/models"
)

// ApplyFilters returns the records that satisfy every active predicate in c,
// in their original order. It never modifies its input.
func ApplyFilters(records []models.StockMetricRecord, c Criteria) []models.StockMetricRecord {
	sectors := make(map[string]struct{}, len(c.Sectors))
	for _, s := range c.Sectors {
		sectors[s] = struct{}{}
	}

	out := make([]models.StockMetricRecord, 0, len(records))
	for _, r := range records {
		if passes(r, c, sectors) {
			out = append(out, r)
		}
	}
	return out
}

func passes(r models.StockMetricRecord, c Criteria, sectors map[string]struct{}) bool {
	if len(sectors) > 0 {
		if _, ok := sectors[r.Sector]; !ok {
			return false
		}
	}
	if c.MinMarketCap != 0 && r.MarketCap < c.MinMarketCap {
		return false
	}
	if c.MaxMarketCap != 0 && r.MarketCap > c.MaxMarketCap {
		return false
	}
	if c.MinAnalysts > 0 && r.NumAnalysts < c.MinAnalysts {
		return false
	}
	// Unknown upside never satisfies an active minimum, even a negative one.
	if c.MinUpside != 0 && (!r.UpsidePct.Valid || r.UpsidePct.Value < c.MinUpside) {
		return false
	}
	if c.BuyRatingsOnly && !r.Recommendation.IsBuy() {
		return false
	}
	return true
}
