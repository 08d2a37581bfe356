package compare

import (
	"math"
	"strconv"

	"github.com/ethpandaops/regressoor/pkg/units"
)

const (
	// DefaultPercentThreshold is the pairwise percent-change threshold
	// beyond which a regression or improvement is indicated.
	DefaultPercentThreshold = 5.0

	// DefaultZScoreThreshold is the lookback z-score threshold beyond
	// which a regression or improvement is indicated.
	DefaultZScoreThreshold = 5.0

	// outputSigfigs is the number of significant figures reported for
	// percent changes, z-scores, and summary values.
	outputSigfigs = 4
)

// PairwiseAnalysis compares the contender's value directly against the
// baseline's. The percent change is signed so that a more negative
// value indicates more of a regression.
type PairwiseAnalysis struct {
	PercentChange        *float64 `json:"percent_change"`
	PercentThreshold     float64  `json:"percent_threshold"`
	RegressionIndicated  bool     `json:"regression_indicated"`
	ImprovementIndicated bool     `json:"improvement_indicated"`
}

// LookbackAnalysis compares the contender's value against the
// historical distribution for its fingerprint via the lookback z-score
// method. The z-score is signed like the pairwise percent change.
type LookbackAnalysis struct {
	ZThreshold           float64  `json:"z_threshold"`
	ZScore               *float64 `json:"z_score"`
	RegressionIndicated  bool     `json:"regression_indicated"`
	ImprovementIndicated bool     `json:"improvement_indicated"`
}

// ResultInfo is the projection of one benchmark result for output.
type ResultInfo struct {
	BenchmarkResultID  string            `json:"benchmark_result_id"`
	BenchmarkName      string            `json:"benchmark_name"`
	CasePermutation    string            `json:"case_permutation"`
	Language           string            `json:"language"`
	SingleValueSummary *float64          `json:"single_value_summary"`
	Error              *string           `json:"error"`
	BatchID            string            `json:"batch_id"`
	RunID              string            `json:"run_id"`
	Tags               map[string]string `json:"tags"`
}

// Analysis bundles the two independent verdicts. Either may be null:
// pairwise when the comparison is undefined or the baseline value is
// zero, lookback when no historical distribution matched the contender.
type Analysis struct {
	Pairwise       *PairwiseAnalysis `json:"pairwise"`
	LookbackZScore *LookbackAnalysis `json:"lookback_z_score"`
}

// Comparison is the full comparison of a baseline and a contender
// result. It is ephemeral, constructed fresh per request, and its JSON
// field names and null semantics are a stable contract.
type Comparison struct {
	Unit         *string     `json:"unit"`
	LessIsBetter *bool       `json:"less_is_better"`
	Baseline     *ResultInfo `json:"baseline"`
	Contender    *ResultInfo `json:"contender"`
	Analysis     Analysis    `json:"analysis"`
}

// NewComparison compares a baseline against a contender. Either side
// may be nil (unmatched in a bulk join) or failed; in both cases the
// analyses come back null. Nil thresholds select the defaults.
//
// When both sides are present and non-failed their units must match,
// else a UnitMismatchError is returned.
func NewComparison(
	baseline, contender *Enriched,
	threshold, thresholdZ *float64,
) (*Comparison, error) {
	percentThreshold := DefaultPercentThreshold
	if threshold != nil {
		percentThreshold = *threshold
	}

	zThreshold := DefaultZScoreThreshold
	if thresholdZ != nil {
		zThreshold = *thresholdZ
	}

	// Both analyses are only defined when both sides are present and
	// neither measurement failed.
	doComparison := baseline != nil && contender != nil &&
		!baseline.Result.Failed && !contender.Result.Failed

	cmp := &Comparison{
		Baseline:  resultInfo(baseline),
		Contender: resultInfo(contender),
	}

	if !doComparison {
		return cmp, nil
	}

	if baseline.Result.Unit != contender.Result.Unit {
		return nil, &UnitMismatchError{
			BaselineID:    baseline.Result.ID,
			BaselineUnit:  baseline.Result.Unit,
			ContenderID:   contender.Result.ID,
			ContenderUnit: contender.Result.Unit,
		}
	}

	unit := baseline.Result.Unit
	lessIsBetter := units.LessIsBetter(unit)

	cmp.Unit = &unit
	cmp.LessIsBetter = &lessIsBetter

	cmp.Analysis.Pairwise = pairwiseAnalysis(
		baseline, contender, lessIsBetter, percentThreshold,
	)
	cmp.Analysis.LookbackZScore = lookbackAnalysis(contender, zThreshold)

	return cmp, nil
}

// pairwiseAnalysis computes the percent-change verdict, or nil when the
// baseline value is exactly zero (no meaningful relative change).
func pairwiseAnalysis(
	baseline, contender *Enriched,
	lessIsBetter bool,
	threshold float64,
) *PairwiseAnalysis {
	if baseline.Result.SVS == 0 {
		return nil
	}

	relativeChange := (contender.Result.SVS - baseline.Result.SVS) /
		math.Abs(baseline.Result.SVS)
	if lessIsBetter {
		relativeChange = -relativeChange
	}

	percentChange := relativeChange * 100.0

	return &PairwiseAnalysis{
		PercentChange:        roundedOrNil(percentChange),
		PercentThreshold:     threshold,
		RegressionIndicated:  -percentChange > threshold,
		ImprovementIndicated: percentChange > threshold,
	}
}

// lookbackAnalysis computes the z-score verdict, or nil when the
// annotator found no matching historical distribution.
func lookbackAnalysis(
	contender *Enriched, zThreshold float64,
) *LookbackAnalysis {
	z := contender.ZScore
	if math.IsNaN(z) {
		return nil
	}

	return &LookbackAnalysis{
		ZThreshold:           zThreshold,
		ZScore:               roundedOrNil(z),
		RegressionIndicated:  -z > zThreshold,
		ImprovementIndicated: z > zThreshold,
	}
}

// resultInfo projects one side of the comparison, or nil when that side
// is absent.
func resultInfo(e *Enriched) *ResultInfo {
	if e == nil {
		return nil
	}

	r := e.Result

	var errText *string
	if r.Error != "" {
		errText = &r.Error
	}

	return &ResultInfo{
		BenchmarkResultID:  r.ID,
		BenchmarkName:      e.DisplayName,
		CasePermutation:    e.DisplayCase,
		Language:           e.Language(),
		SingleValueSummary: roundedOrNil(r.SVS),
		Error:              errText,
		BatchID:            r.BatchID,
		RunID:              r.RunID,
		Tags:               r.CaseTagMap(),
	}
}

// roundedOrNil rounds to 4 significant figures. NaN maps to nil, which
// serializes to JSON null rather than a zero or a "NaN" token.
func roundedOrNil(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}

	f, err := strconv.ParseFloat(
		strconv.FormatFloat(v, 'g', outputSigfigs, 64), 64,
	)
	if err != nil {
		return nil
	}

	return &f
}
