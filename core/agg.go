package core

import (
	"context"
	"math"

	"github.com/abfolio/abfolio/core/algo"
	"github.com/abfolio/abfolio/internal/contract"
	"github.com/abfolio/abfolio/schema"
)

// TopMoverLimit is how many winners and losers the aggregate surfaces.
const TopMoverLimit = 5

// CollectMetricIDs returns the sorted unique union of all goal and guardrail
// metric IDs referenced by the given experiments.
func CollectMetricIDs(experiments []schema.Experiment) []string {
	var ids []string
	for _, exp := range experiments {
		for _, ref := range exp.Settings.Goals {
			ids = append(ids, ref.MetricID)
		}
		for _, ref := range exp.Settings.Guardrails {
			ids = append(ids, ref.MetricID)
		}
	}
	return dedupeSorted(ids)
}

// Aggregate folds a list of ended experiments into portfolio statistics.
// The caller is responsible for pre-filtering to experiments whose lifecycle
// has finished; the aggregator does not re-filter by status. Metric metadata
// is resolved once up front so all experiments see consistent freshness; a
// total resolver failure fails the whole call, a partial one degrades
// per-metric to non-inverse defaults.
func Aggregate(ctx context.Context, experiments []schema.Experiment, resolver *MetricResolver, progress contract.ProgressFunc) (*schema.ExperimentStats, error) {
	notify := func(step int, message string) {
		if progress != nil {
			progress(step, message)
		}
	}

	notify(1, "Resolving metric metadata")
	lookup, err := resolver.Resolve(ctx, CollectMetricIDs(experiments))
	if err != nil {
		return nil, err
	}

	notify(2, "Computing experiment statistics")
	acc := newAccumulator()
	for i := range experiments {
		exp := &experiments[i]
		verdict := ComputeVerdict(exp, lookup)
		card := buildCard(exp, verdict)
		acc.add(exp, &verdict, card)
	}

	notify(3, "Finishing up")
	return acc.finalize(), nil
}

// buildCard projects an experiment plus its verdict into a display card.
func buildCard(exp *schema.Experiment, verdict schema.VerdictResult) schema.ExperimentCard {
	card := schema.ExperimentCard{
		ID:                  exp.ID,
		Name:                exp.Name,
		Project:             exp.Project,
		Tags:                exp.Tags,
		Owner:               exp.Owner,
		Hypothesis:          exp.Hypothesis,
		Type:                schema.ParseExperimentType(string(exp.Type)),
		Verdict:             verdict.Verdict,
		PrimaryMetric:       verdict.PrimaryMetric,
		LiftFormatted:       algo.FormatLift(nil),
		GuardrailsRegressed: verdict.GuardrailsRegressed,
		SRMPassing:          verdict.SRMPassing,
		SRMPValue:           verdict.SRMPValue,
		TotalUsers:          verdict.TotalUsers,
	}
	if verdict.PrimaryMetric != nil {
		lift := verdict.PrimaryMetric.Lift
		card.LiftFormatted = algo.FormatLift(&lift)
	}
	if exp.Result != nil {
		card.DateStart = exp.Result.DateStart
		card.DateEnd = exp.Result.DateEnd
		start, okStart := algo.ParseDate(exp.Result.DateStart)
		end, okEnd := algo.ParseDate(exp.Result.DateEnd)
		if okStart && okEnd {
			days := algo.WholeDays(start, end)
			card.DurationDays = &days
		}
	}
	return card
}

// accumulator carries the running folds of a single aggregation pass.
type accumulator struct {
	stats *schema.ExperimentStats

	durations   []float64 // valid (non-negative) durations only
	winnerLifts []float64 // abs(lift) of winners

	// loserLifts collects the raw signed lifts of losing experiments. The
	// sample is intentionally not surfaced on ExperimentStats; it is kept so
	// the fold stays compatible with a future avg/median-losers field.
	loserLifts []float64
}

func newAccumulator() *accumulator {
	return &accumulator{
		stats: &schema.ExperimentStats{
			SRMIssues:   []schema.SRMIssue{},
			ByProject:   make(map[string]*schema.BucketStats),
			ByTag:       make(map[string]*schema.BucketStats),
			ByMonth:     make(map[string]*schema.MonthStats),
			TopWinners:  []schema.TopMover{},
			TopLosers:   []schema.TopMover{},
			Experiments: []schema.ExperimentCard{},
		},
	}
}

// add folds one experiment into the running statistics.
func (a *accumulator) add(exp *schema.Experiment, verdict *schema.VerdictResult, card schema.ExperimentCard) {
	s := a.stats
	s.Total++
	s.Experiments = append(s.Experiments, card)

	switch verdict.Verdict {
	case schema.WonVerdict:
		s.ByVerdict.Won++
	case schema.LostVerdict:
		s.ByVerdict.Lost++
	default:
		s.ByVerdict.Inconclusive++
	}

	s.TotalUsers += verdict.TotalUsers

	// Health rates only count experiments that produced analyzable traffic.
	if verdict.TotalUsers > 0 {
		s.ExperimentsWithResults++
		if !verdict.SRMPassing {
			s.SRMFailures++
			s.SRMIssues = append(s.SRMIssues, schema.SRMIssue{
				ID:        exp.ID,
				Name:      exp.Name,
				SRMPValue: verdict.SRMPValue,
			})
		}
		if verdict.GuardrailsRegressed {
			s.GuardrailRegressions++
		}
	}

	if card.DurationDays != nil && *card.DurationDays >= 0 {
		a.durations = append(a.durations, float64(*card.DurationDays))
	}

	if verdict.PrimaryMetric != nil {
		switch verdict.Verdict {
		case schema.WonVerdict:
			a.winnerLifts = append(a.winnerLifts, math.Abs(verdict.PrimaryMetric.Lift))
		case schema.LostVerdict:
			a.loserLifts = append(a.loserLifts, verdict.PrimaryMetric.Lift)
		}
	}

	a.bumpBucket(projectKey(exp.Project), verdict.Verdict, s.ByProject)
	for _, tag := range exp.Tags {
		a.bumpBucket(tag, verdict.Verdict, s.ByTag)
	}

	if exp.Result != nil {
		if end, ok := algo.ParseDate(exp.Result.DateEnd); ok {
			a.bumpMonth(algo.YearMonth(end), verdict.Verdict)
		}
	}

	if card.Type == schema.BanditType {
		s.ByType.Bandit++
	} else {
		s.ByType.Standard++
	}
}

func (a *accumulator) bumpBucket(key string, verdict schema.Verdict, buckets map[string]*schema.BucketStats) {
	bucket, ok := buckets[key]
	if !ok {
		bucket = &schema.BucketStats{}
		buckets[key] = bucket
	}
	bucket.Count++
	switch verdict {
	case schema.WonVerdict:
		bucket.Won++
	case schema.LostVerdict:
		bucket.Lost++
	default:
		bucket.Inconclusive++
	}
}

func (a *accumulator) bumpMonth(key string, verdict schema.Verdict) {
	month, ok := a.stats.ByMonth[key]
	if !ok {
		month = &schema.MonthStats{}
		a.stats.ByMonth[key] = month
	}
	month.Ended++
	switch verdict {
	case schema.WonVerdict:
		month.Won++
	case schema.LostVerdict:
		month.Lost++
	}
}

// finalize computes the derived rates and rankings after the single pass.
func (a *accumulator) finalize() *schema.ExperimentStats {
	s := a.stats

	s.WinRate = rate(s.ByVerdict.Won, s.Total)
	for _, bucket := range s.ByProject {
		bucket.WinRate = rate(bucket.Won, bucket.Count)
	}
	for _, bucket := range s.ByTag {
		bucket.WinRate = rate(bucket.Won, bucket.Count)
	}

	if avg := algo.Mean(a.durations); avg != nil {
		rounded := algo.Round(*avg, 1)
		s.AvgDurationDays = &rounded
	}
	s.MedianDurationDays = algo.Median(a.durations)

	if s.ExperimentsWithResults > 0 {
		avgUsers := algo.RoundInt(float64(s.TotalUsers) / float64(s.ExperimentsWithResults))
		s.AvgUsersPerExperiment = &avgUsers
	}

	s.AvgLiftWinners = algo.Mean(a.winnerLifts)
	s.MedianLiftWinners = algo.Median(a.winnerLifts)

	s.SRMFailureRate = rate(s.SRMFailures, s.ExperimentsWithResults)
	s.GuardrailRegressionRate = rate(s.GuardrailRegressions, s.ExperimentsWithResults)

	s.TopWinners = algo.RankMovers(s.Experiments, schema.WonVerdict, TopMoverLimit)
	s.TopLosers = algo.RankMovers(s.Experiments, schema.LostVerdict, TopMoverLimit)

	return s
}

// rate returns numerator/denominator, or nil when the denominator is zero.
func rate(numerator, denominator int) *float64 {
	if denominator == 0 {
		return nil
	}
	r := float64(numerator) / float64(denominator)
	return &r
}

// projectKey buckets empty project names under a readable sentinel.
func projectKey(project string) string {
	if project == "" {
		return schema.NoProjectKey
	}
	return project
}
