package algo

import (
	"math"
	"sort"

	"github.com/abfolio/abfolio/schema"
)

// RankMovers filters cards to the given verdict, keeps only those with a
// computed primary-metric lift, sorts them descending by absolute lift and
// returns the top 'limit' as display projections. The sort is stable so equal
// lifts keep their input order.
func RankMovers(cards []schema.ExperimentCard, verdict schema.Verdict, limit int) []schema.TopMover {
	var movers []schema.TopMover
	for _, c := range cards {
		if c.Verdict != verdict || c.PrimaryMetric == nil {
			continue
		}
		lift := c.PrimaryMetric.Lift
		movers = append(movers, schema.TopMover{
			ID:            c.ID,
			Name:          c.Name,
			Lift:          lift,
			LiftFormatted: FormatLift(&lift),
			Metric:        c.PrimaryMetric.Name,
			Hypothesis:    c.Hypothesis,
		})
	}
	sort.SliceStable(movers, func(i, j int) bool {
		return math.Abs(movers[i].Lift) > math.Abs(movers[j].Lift)
	})
	if len(movers) > limit {
		return movers[:limit]
	}
	return movers
}
