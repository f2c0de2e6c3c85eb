package core

import (
	"github.com/abfolio/abfolio/schema"
)

// Verdict engine thresholds.
const (
	// SRMThreshold is the p-value at or below which the sample-ratio check
	// fails, indicating broken randomization.
	SRMThreshold = 0.001

	// significanceHigh and significanceLow bound the chance-to-beat-control
	// band outside of which a result is significant.
	significanceHigh = 0.95
	significanceLow  = 0.05
)

// ComputeVerdict computes the verdict, primary-metric lift, guardrail
// regression flag and SRM health for a single experiment. It is a pure
// function: all inputs come from the experiment record and the resolved
// metric lookup, and a missing or partial result block degrades to defaults
// rather than failing.
//
// The verdict itself is sourced solely from the platform-recorded result
// summary and is independent of the statistical results.
func ComputeVerdict(exp *schema.Experiment, lookup map[string]schema.MetricInfo) schema.VerdictResult {
	result := schema.VerdictResult{
		Verdict:    schema.ParseVerdict(exp.ResultSummary.Status),
		SRMPassing: true,
	}

	snap := exp.Result.Latest()
	if snap == nil {
		// Degraded mode: no analyzable data, health checks vacuously pass.
		return result
	}

	result.SRMPValue = snap.Checks.SRM
	if result.SRMPValue != nil {
		result.SRMPassing = *result.SRMPValue > SRMThreshold
	}
	result.TotalUsers = snap.TotalUsers
	result.GuardrailsRegressed = guardrailsRegressed(snap, exp.Settings.Guardrails, lookup)
	result.PrimaryMetric = ComputePrimaryMetricResult(snap, lookup, goalMetricIDs(exp))

	return result
}

// guardrailsRegressed reports whether any guardrail metric shows a confident
// regression in any non-control variation. For a non-inverse guardrail that
// means the variation has at most a 5% chance of beating control, or a
// confidence interval entirely below zero; for an inverse (lower-is-better)
// guardrail the sign and threshold flip.
func guardrailsRegressed(snap *schema.ResultSnapshot, guardrails []schema.MetricRef, lookup map[string]schema.MetricInfo) bool {
	if len(guardrails) == 0 {
		return false
	}
	guardrailSet := make(map[string]struct{}, len(guardrails))
	for _, ref := range guardrails {
		guardrailSet[ref.MetricID] = struct{}{}
	}

	for _, metric := range snap.Metrics {
		if _, ok := guardrailSet[metric.MetricID]; !ok {
			continue
		}
		inverse := lookup[metric.MetricID].Inverse // missing metadata defaults to non-inverse
		for i, variation := range metric.Variations {
			if i == 0 {
				continue // index 0 is the control
			}
			analysis := variation.FirstAnalysis()
			if analysis == nil {
				continue
			}
			if analysisRegressed(analysis, inverse) {
				return true
			}
		}
	}
	return false
}

// analysisRegressed applies the regression test to a single analysis.
func analysisRegressed(a *schema.VariationAnalysis, inverse bool) bool {
	if a.ChanceToBeatControl != nil {
		if inverse {
			return *a.ChanceToBeatControl > significanceHigh
		}
		return *a.ChanceToBeatControl < significanceLow
	}

	ciLow, ciHigh := 0.0, 0.0
	if a.CILow != nil {
		ciLow = *a.CILow
	}
	if a.CIHigh != nil {
		ciHigh = *a.CIHigh
	}
	if inverse {
		return ciLow > 0
	}
	return ciHigh < 0
}

// goalMetricIDs returns the experiment's goal metric IDs in settings order.
// The first is the primary metric.
func goalMetricIDs(exp *schema.Experiment) []string {
	ids := make([]string, 0, len(exp.Settings.Goals))
	for _, ref := range exp.Settings.Goals {
		ids = append(ids, ref.MetricID)
	}
	return ids
}
