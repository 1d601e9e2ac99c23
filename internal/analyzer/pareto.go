package analyzer

import "sort"

// DefaultParetoThreshold is the cumulative share, in percent, a Pareto ranking
// looks for.
const DefaultParetoThreshold = 80.0

// ParetoEntry is one ranked entity with its running totals.
type ParetoEntry struct {
	Rank            int     `json:"rank"`
	Entity          string  `json:"entity"`
	Value           float64 `json:"value"`
	Cumulative      float64 `json:"cumulative"`
	CumulativeShare float64 `json:"cumulative_share"`
}

// ParetoResult ranks a distribution and locates the smallest prefix holding
// Threshold percent of the total.
type ParetoResult struct {
	Entries   []ParetoEntry `json:"entries"`
	Threshold float64       `json:"threshold"`
	Total     float64       `json:"total"`

	// Reached is false when no prefix crosses the threshold, which happens
	// only for an empty or all-zero distribution.
	Reached        bool    `json:"reached"`
	Count          int     `json:"count"`
	CrossingEntity string  `json:"crossing_entity,omitempty"`
	CrossingShare  float64 `json:"crossing_share"`
}

// ParetoRank sorts dist by value, descending, with ties kept in input order,
// and finds the first rank whose cumulative share reaches threshold percent.
// A threshold outside (0,100] uses DefaultParetoThreshold.
func ParetoRank(dist []EntityValue, threshold float64) ParetoResult {
	if !(threshold > 0 && threshold <= 100) {
		threshold = DefaultParetoThreshold
	}

	ranked := make([]EntityValue, len(dist))
	for i, e := range dist {
		ranked[i] = EntityValue{Entity: e.Entity, Value: nonNegative(e.Value)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})

	res := ParetoResult{Entries: make([]ParetoEntry, len(ranked)), Threshold: threshold}
	for _, e := range ranked {
		res.Total += e.Value
	}

	cum := 0.0
	for i, e := range ranked {
		cum += e.Value
		share := 0.0
		if res.Total > 0 {
			share = cum * 100 / res.Total
		}
		res.Entries[i] = ParetoEntry{
			Rank:            i + 1,
			Entity:          e.Entity,
			Value:           e.Value,
			Cumulative:      cum,
			CumulativeShare: share,
		}
		if !res.Reached && res.Total > 0 && share >= threshold {
			res.Reached = true
			res.Count = i + 1
			res.CrossingEntity = e.Entity
			res.CrossingShare = share
		}
	}
	return res
}
