// Package history assigns lookback z-scores to benchmark results: each
// contender value is compared against the distribution of historic
// values recorded for the same history fingerprint at or before the
// baseline commit.
package history

import (
	"context"
	"fmt"
	"math"

	"github.com/ethpandaops/regressoor/pkg/api/store"
	"github.com/ethpandaops/regressoor/pkg/compare"
	"github.com/sirupsen/logrus"
)

// Annotator assigns lookback z-scores to a list of contender results
// given a baseline commit. A contender for which no matching historical
// distribution exists keeps its z-score absent (NaN).
type Annotator interface {
	Annotate(
		ctx context.Context,
		contenders []*compare.Enriched,
		baselineCommit string,
	) error
}

// Compile-time interface check.
var _ Annotator = (*lookback)(nil)

type lookback struct {
	log        logrus.FieldLogger
	store      store.Store
	window     int
	minSamples int
}

// NewLookback creates a store-backed lookback annotator. window bounds
// how many historic results feed the distribution; minSamples is the
// minimum distribution size below which no z-score is reported.
func NewLookback(
	log logrus.FieldLogger,
	st store.Store,
	window, minSamples int,
) Annotator {
	return &lookback{
		log:        log.WithField("component", "history"),
		store:      st,
		window:     window,
		minSamples: minSamples,
	}
}

// Annotate computes the z-score for each contender against the history
// of its fingerprint up to the baseline commit's time. Contenders whose
// fingerprint has no usable distribution are left unannotated.
func (l *lookback) Annotate(
	ctx context.Context,
	contenders []*compare.Enriched,
	baselineCommit string,
) error {
	cutoff, err := l.store.LatestResultTimestampForCommit(
		ctx, baselineCommit,
	)
	if err != nil {
		return fmt.Errorf("resolving baseline commit time: %w", err)
	}

	if cutoff == 0 {
		// Unknown commit: no distribution for anything.
		l.log.WithField("commit", baselineCommit).
			Debug("Baseline commit has no results, skipping z-scores")

		return nil
	}

	// Distributions are cached per fingerprint: all contenders from
	// one run sharing a fingerprint see the same history.
	type distribution struct {
		mean, stddev float64
		ok           bool
	}

	distributions := make(map[string]distribution, len(contenders))

	for _, c := range contenders {
		fing := c.Result.HistoryFingerprint

		dist, cached := distributions[fing]
		if !cached {
			values, vErr := l.store.ListHistoryValues(
				ctx, fing, cutoff, l.window,
			)
			if vErr != nil {
				return fmt.Errorf("fetching history values: %w", vErr)
			}

			dist.mean, dist.stddev, dist.ok = summarize(
				values, l.minSamples,
			)
			distributions[fing] = dist
		}

		if !dist.ok {
			continue
		}

		c.ZScore = (c.Result.SVS - dist.mean) / dist.stddev
	}

	return nil
}

// summarize computes mean and sample standard deviation. It reports
// ok=false when the distribution is too small or has zero variance, in
// which case a z-score is undefined.
func summarize(values []float64, minSamples int) (mean, stddev float64, ok bool) {
	if len(values) < minSamples {
		return 0, 0, false
	}

	for _, v := range values {
		mean += v
	}

	mean /= float64(len(values))

	var sumsq float64

	for _, v := range values {
		d := v - mean
		sumsq += d * d
	}

	stddev = math.Sqrt(sumsq / float64(len(values)-1))
	if stddev == 0 {
		return 0, 0, false
	}

	return mean, stddev, true
}
