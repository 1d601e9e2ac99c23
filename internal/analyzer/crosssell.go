package analyzer

import "sort"

// PairMetric describes how often product B is bought in the same month as
// product A.
type PairMetric struct {
	ProductA    string  `json:"product_a"`
	ProductB    string  `json:"product_b"`
	CoMonths    int     `json:"co_months"`
	Support     float64 `json:"support"`
	Confidence  float64 `json:"confidence"`
	Lift        float64 `json:"lift"`
	MonthsA     int     `json:"months_a"`
	MonthsB     int     `json:"months_b"`
	TotalMonths int     `json:"total_months"`
}

// CrossSell computes support, confidence and lift for every ordered pair of
// distinct products bought together at least once. Pairs are ordered by
// confidence, then lift, then co-purchase months, all descending; equal pairs
// keep column order. A matrix with fewer than two products or no months
// yields no pairs.
func CrossSell(m BasketMatrix) []PairMetric {
	pairs := []PairMetric{}
	total := m.Rows()
	if total == 0 || m.Cols() < 2 {
		return pairs
	}

	bought := make([]int, m.Cols())
	for j := range bought {
		bought[j] = m.monthsBought(j)
	}

	for a := 0; a < m.Cols(); a++ {
		if bought[a] == 0 {
			continue
		}
		for b := 0; b < m.Cols(); b++ {
			if a == b || bought[b] == 0 {
				continue
			}

			co := 0
			for _, row := range m.Cells {
				if row[a] && row[b] {
					co++
				}
			}
			if co == 0 {
				continue
			}

			support := float64(co) / float64(total)
			pA := float64(bought[a]) / float64(total)
			pB := float64(bought[b]) / float64(total)

			pairs = append(pairs, PairMetric{
				ProductA:    m.Products[a],
				ProductB:    m.Products[b],
				CoMonths:    co,
				Support:     support,
				Confidence:  float64(co) / float64(bought[a]),
				Lift:        safeDiv(support, pA*pB),
				MonthsA:     bought[a],
				MonthsB:     bought[b],
				TotalMonths: total,
			})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		pi, pj := pairs[i], pairs[j]
		if pi.Confidence != pj.Confidence {
			return pi.Confidence > pj.Confidence
		}
		if pi.Lift != pj.Lift {
			return pi.Lift > pj.Lift
		}
		return pi.CoMonths > pj.CoMonths
	})
	return pairs
}

// RecommendQuery selects cross-sell suggestions for one anchor product.
type RecommendQuery struct {
	Anchor      string
	MinCoMonths int
	// Limit caps the result size; zero or less means no cap.
	Limit int
}

// Recommend filters pairs to those anchored on q.Anchor with at least
// q.MinCoMonths shared months, preserving their order.
func Recommend(pairs []PairMetric, q RecommendQuery) []PairMetric {
	out := []PairMetric{}
	for _, p := range pairs {
		if p.ProductA != q.Anchor || p.CoMonths < q.MinCoMonths {
			continue
		}
		out = append(out, p)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out
}

// Anchors returns the distinct first products of pairs, sorted.
func Anchors(pairs []PairMetric) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range pairs {
		if !seen[p.ProductA] {
			seen[p.ProductA] = true
			out = append(out, p.ProductA)
		}
	}
	sort.Strings(out)
	return out
}
