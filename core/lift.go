package core

import (
	"github.com/abfolio/abfolio/core/algo"
	"github.com/abfolio/abfolio/schema"
)

// ComputePrimaryMetricResult computes the lift of the best-performing
// non-control variation on the experiment's primary goal metric. It returns
// nil when there is no goal metric, the primary metric is absent from the
// snapshot, only the control variation is recorded, or the chosen variation
// carries no analysis.
func ComputePrimaryMetricResult(snap *schema.ResultSnapshot, lookup map[string]schema.MetricInfo, goalIDs []string) *schema.PrimaryMetricResult {
	if len(goalIDs) == 0 {
		return nil
	}
	primaryID := goalIDs[0]

	var metric *schema.MetricResult
	for i := range snap.Metrics {
		if snap.Metrics[i].MetricID == primaryID {
			metric = &snap.Metrics[i]
			break
		}
	}
	if metric == nil || len(metric.Variations) <= 1 {
		return nil
	}

	info, known := lookup[primaryID]
	inverse := known && info.Inverse
	name := info.Name
	if name == "" {
		name = primaryID
	}

	// Left-to-right scan from the first non-control variation. A candidate
	// replaces the current best only on strict improvement, so ties keep the
	// earlier-seen variation.
	best := metric.Variations[1].FirstAnalysis()
	if best == nil {
		return nil
	}
	for i := 2; i < len(metric.Variations); i++ {
		candidate := metric.Variations[i].FirstAnalysis()
		if candidate == nil {
			continue
		}
		if betterLift(candidate.PercentChange, best.PercentChange, inverse) {
			best = candidate
		}
	}

	significant := isSignificant(best)
	return &schema.PrimaryMetricResult{
		ID:          primaryID,
		Name:        name,
		Lift:        algo.Round(best.PercentChange, 4),
		Significant: significant,
		Direction:   liftDirection(best.PercentChange, significant, inverse),
	}
}

// betterLift reports whether candidate strictly improves on best. For inverse
// metrics a lower percent change is better.
func betterLift(candidate, best float64, inverse bool) bool {
	if inverse {
		return candidate < best
	}
	return candidate > best
}

// isSignificant applies the significance test: a chance-to-beat-control
// outside the [0.05, 0.95] band when present, otherwise a confidence interval
// with both bounds present that excludes zero.
func isSignificant(a *schema.VariationAnalysis) bool {
	if a.ChanceToBeatControl != nil {
		ctbc := *a.ChanceToBeatControl
		return ctbc > significanceHigh || ctbc < significanceLow
	}
	if a.CILow == nil || a.CIHigh == nil {
		return false
	}
	return *a.CILow > 0 || *a.CIHigh < 0
}

// liftDirection maps a raw lift to its display direction. Only significant
// results get a direction; a raw-positive lift is winning unless the metric is
// inverse, in which case winning and losing swap.
func liftDirection(rawLift float64, significant, inverse bool) schema.LiftDirection {
	if !significant {
		return schema.FlatDirection
	}
	winning := rawLift > 0
	if inverse {
		winning = !winning
	}
	if winning {
		return schema.WinningDirection
	}
	return schema.LosingDirection
}
