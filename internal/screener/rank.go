package screener

import (
	"sort"

	"github.com/seenimoa/investscout/pkg/models"
)

// RankCandidates scores every record for style, orders them by descending
// score and returns at most topN of them with their signal populated.
// Equal scores keep their input order. topN <= 0 yields an empty slice.
func RankCandidates(records []models.StockMetricRecord, style Style, topN int) []models.RankedCandidate {
	if topN <= 0 || len(records) == 0 {
		return []models.RankedCandidate{}
	}

	ranked := make([]models.RankedCandidate, len(records))
	for i, r := range records {
		ranked[i] = models.RankedCandidate{
			StockMetricRecord: r,
			Score:             Score(r, style),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if topN < len(ranked) {
		ranked = ranked[:topN]
	}
	for i := range ranked {
		ranked[i].Signal = Signal(ranked[i].StockMetricRecord)
	}
	return ranked
}
