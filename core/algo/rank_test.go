package algo

import (
	"testing"

	"github.com/abfolio/abfolio/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(id string, verdict schema.Verdict, lift *float64) schema.ExperimentCard {
	c := schema.ExperimentCard{ID: id, Name: "exp " + id, Verdict: verdict}
	if lift != nil {
		c.PrimaryMetric = &schema.PrimaryMetricResult{ID: "m1", Name: "Revenue", Lift: *lift}
	}
	return c
}

func liftOf(v float64) *float64 { return &v }

func TestRankMovers(t *testing.T) {
	cards := []schema.ExperimentCard{
		card("a", schema.WonVerdict, liftOf(0.05)),
		card("b", schema.WonVerdict, liftOf(0.30)),
		card("c", schema.LostVerdict, liftOf(-0.50)),
		card("d", schema.WonVerdict, nil), // no computed lift, excluded
		card("e", schema.WonVerdict, liftOf(-0.10)),
	}

	winners := RankMovers(cards, schema.WonVerdict, 5)
	require.Len(t, winners, 3)
	assert.Equal(t, "b", winners[0].ID)
	assert.Equal(t, "e", winners[1].ID, "ordering uses absolute lift")
	assert.Equal(t, "a", winners[2].ID)
	assert.Equal(t, "+30.0%", winners[0].LiftFormatted)
	assert.Equal(t, "Revenue", winners[0].Metric)

	losers := RankMovers(cards, schema.LostVerdict, 5)
	require.Len(t, losers, 1)
	assert.Equal(t, "c", losers[0].ID)
	assert.Equal(t, "-50.0%", losers[0].LiftFormatted)
}

func TestRankMoversLimit(t *testing.T) {
	var cards []schema.ExperimentCard
	for i := 0; i < 8; i++ {
		cards = append(cards, card(string(rune('a'+i)), schema.WonVerdict, liftOf(float64(i)/100)))
	}
	movers := RankMovers(cards, schema.WonVerdict, 5)
	assert.Len(t, movers, 5)
	assert.Equal(t, "h", movers[0].ID)
}

func TestRankMoversStableOnTies(t *testing.T) {
	cards := []schema.ExperimentCard{
		card("first", schema.WonVerdict, liftOf(0.10)),
		card("second", schema.WonVerdict, liftOf(-0.10)),
		card("third", schema.WonVerdict, liftOf(0.10)),
	}
	movers := RankMovers(cards, schema.WonVerdict, 5)
	require.Len(t, movers, 3)
	// Equal absolute lifts keep their input order.
	assert.Equal(t, "first", movers[0].ID)
	assert.Equal(t, "second", movers[1].ID)
	assert.Equal(t, "third", movers[2].ID)
}

func TestRankMoversEmpty(t *testing.T) {
	assert.Empty(t, RankMovers(nil, schema.WonVerdict, 5))
	assert.Empty(t, RankMovers([]schema.ExperimentCard{card("a", schema.LostVerdict, liftOf(0.1))}, schema.WonVerdict, 5))
}
