package compare_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/regressoor/pkg/api/store"
	"github.com/ethpandaops/regressoor/pkg/compare"
)

func resultWithFingerprint(id, fing string) *compare.Enriched {
	return compare.NewEnriched(&store.BenchmarkResult{
		ID:                 id,
		HistoryFingerprint: fing,
		Unit:               "s",
		SVS:                1,
	})
}

func TestJoinResults_MatchingFingerprints(t *testing.T) {
	baseline := []*compare.Enriched{
		resultWithFingerprint("b1", "f1"),
		resultWithFingerprint("b2", "f2"),
	}
	contender := []*compare.Enriched{
		resultWithFingerprint("c1", "f1"),
		resultWithFingerprint("c2", "f2"),
	}

	pairs := compare.JoinResults(baseline, contender)
	require.Len(t, pairs, 2)

	for _, pair := range pairs {
		require.NotNil(t, pair.Baseline)
		require.NotNil(t, pair.Contender)
		assert.Equal(t,
			pair.Baseline.Result.HistoryFingerprint,
			pair.Contender.Result.HistoryFingerprint,
		)
	}
}

func TestJoinResults_DisjointFingerprints(t *testing.T) {
	// m baseline-only and n contender-only fingerprints yield exactly
	// m+n pairs, each with one side absent.
	baseline := []*compare.Enriched{
		resultWithFingerprint("b1", "f1"),
		resultWithFingerprint("b2", "f2"),
		resultWithFingerprint("b3", "f3"),
	}
	contender := []*compare.Enriched{
		resultWithFingerprint("c1", "f4"),
		resultWithFingerprint("c2", "f5"),
	}

	pairs := compare.JoinResults(baseline, contender)
	require.Len(t, pairs, 5)

	baselineOnly := 0
	contenderOnly := 0

	for _, pair := range pairs {
		switch {
		case pair.Baseline != nil && pair.Contender == nil:
			baselineOnly++
		case pair.Baseline == nil && pair.Contender != nil:
			contenderOnly++
		default:
			t.Fatalf("unexpected pair: %+v", pair)
		}
	}

	assert.Equal(t, 3, baselineOnly)
	assert.Equal(t, 2, contenderOnly)
}

func TestJoinResults_CartesianProductForDuplicates(t *testing.T) {
	// k entries per side for one fingerprint yield k^2 pairs.
	const k = 3

	var baseline, contender []*compare.Enriched

	for i := 0; i < k; i++ {
		baseline = append(baseline,
			resultWithFingerprint("b", "shared"))
		contender = append(contender,
			resultWithFingerprint("c", "shared"))
	}

	pairs := compare.JoinResults(baseline, contender)
	assert.Len(t, pairs, k*k)

	for _, pair := range pairs {
		require.NotNil(t, pair.Baseline)
		require.NotNil(t, pair.Contender)
	}
}

func TestJoinResults_Empty(t *testing.T) {
	assert.Empty(t, compare.JoinResults(nil, nil))

	pairs := compare.JoinResults(
		[]*compare.Enriched{resultWithFingerprint("b1", "f1")}, nil,
	)
	require.Len(t, pairs, 1)
	assert.NotNil(t, pairs[0].Baseline)
	assert.Nil(t, pairs[0].Contender)
}

func TestJoinResults_Deterministic(t *testing.T) {
	baseline := []*compare.Enriched{
		resultWithFingerprint("b1", "f2"),
		resultWithFingerprint("b2", "f1"),
	}
	contender := []*compare.Enriched{
		resultWithFingerprint("c1", "f3"),
	}

	first := compare.JoinResults(baseline, contender)
	second := compare.JoinResults(baseline, contender)

	require.Equal(t, len(first), len(second))

	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}
