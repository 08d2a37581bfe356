package api

import (
	"errors"
	"net/http"

	"github.com/ethpandaops/regressoor/pkg/api/store"
	"github.com/ethpandaops/regressoor/pkg/compare"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// handleComparePair compares a baseline and a contender benchmark
// result. The route is behind the admission gate: when the gate is
// saturated past its wait window the request is told to retry later
// without any of the expensive work having started.
func (s *server) handleComparePair(w http.ResponseWriter, r *http.Request) {
	if !s.gate.TryAcquire() {
		writeRetryLater(w)

		return
	}
	defer s.gate.Release()

	s.comparePair(w, r)
}

func (s *server) comparePair(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	baselineID, contenderID, err := compare.ParseCompareIDs(
		chi.URLParam(r, "compareIDs"),
	)
	if err != nil {
		s.writeError(w, err)

		return
	}

	threshold, thresholdZ, ok := s.thresholdParams(w, r)
	if !ok {
		return
	}

	baselineResult, err := s.store.GetResult(ctx, baselineID)
	if err != nil {
		s.writeResultLookupError(w, err, baselineID)

		return
	}

	contenderResult, err := s.store.GetResult(ctx, contenderID)
	if err != nil {
		s.writeResultLookupError(w, err, contenderID)

		return
	}

	baseline := compare.NewEnriched(baselineResult)
	contender := compare.NewEnriched(contenderResult)

	// A baseline without a commit has no history to look back along;
	// the lookback analysis then comes back null.
	if baselineResult.CommitSHA != "" {
		if err := s.annotator.Annotate(
			ctx,
			[]*compare.Enriched{contender},
			baselineResult.CommitSHA,
		); err != nil {
			s.writeError(w, err)

			return
		}
	}

	cmp, err := compare.NewComparison(
		baseline, contender, threshold, thresholdZ,
	)
	if err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, cmp)
}

// handleCompareRuns compares all benchmark results between two runs,
// pairing by history fingerprint. Also behind the admission gate.
func (s *server) handleCompareRuns(w http.ResponseWriter, r *http.Request) {
	if !s.gate.TryAcquire() {
		writeRetryLater(w)

		return
	}
	defer s.gate.Release()

	s.compareRuns(w, r)
}

func (s *server) compareRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	baselineRunID, contenderRunID, err := compare.ParseCompareIDs(
		chi.URLParam(r, "compareIDs"),
	)
	if err != nil {
		s.writeError(w, err)

		return
	}

	threshold, thresholdZ, ok := s.thresholdParams(w, r)
	if !ok {
		return
	}

	// Fetch both result sets concurrently; these are the two heavy
	// queries of this endpoint.
	var baselineResults, contenderResults []store.BenchmarkResult

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var gErr error
		baselineResults, gErr = s.store.ListResultsForRun(
			gCtx, baselineRunID,
		)

		return gErr
	})

	g.Go(func() error {
		var gErr error
		contenderResults, gErr = s.store.ListResultsForRun(
			gCtx, contenderRunID,
		)

		return gErr
	})

	if err := g.Wait(); err != nil {
		s.writeError(w, err)

		return
	}

	// A run without results is indistinguishable from an unknown run.
	if len(baselineResults) == 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{
			"no benchmark results found for run ID: '" + baselineRunID + "'",
		})

		return
	}

	if len(contenderResults) == 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{
			"no benchmark results found for run ID: '" + contenderRunID + "'",
		})

		return
	}

	baseline := enrichAll(baselineResults)
	contender := enrichAll(contenderResults)

	// All baseline results share a run and therefore a commit. Without
	// a commit the lookback analyses come back null.
	if commit := baselineResults[0].CommitSHA; commit != "" {
		if err := s.annotator.Annotate(ctx, contender, commit); err != nil {
			s.writeError(w, err)

			return
		}
	}

	comparisons := make(
		[]*compare.Comparison, 0,
		len(baseline)+len(contender),
	)

	for _, pair := range compare.JoinResults(baseline, contender) {
		cmp, cmpErr := compare.NewComparison(
			pair.Baseline, pair.Contender, threshold, thresholdZ,
		)
		if cmpErr != nil {
			// Cross-repository result sets routinely mix units; such
			// pairs are dropped rather than failing the whole request.
			continue
		}

		comparisons = append(comparisons, cmp)
	}

	writeJSON(w, http.StatusOK, comparisons)
}

// thresholdParams parses the optional threshold and threshold_z query
// parameters, writing a bad-request response on malformed input.
func (s *server) thresholdParams(
	w http.ResponseWriter, r *http.Request,
) (threshold, thresholdZ *float64, ok bool) {
	threshold, err := floatQueryParam(r, "threshold")
	if err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"threshold must be a number"})

		return nil, nil, false
	}

	thresholdZ, err = floatQueryParam(r, "threshold_z")
	if err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"threshold_z must be a number"})

		return nil, nil, false
	}

	return threshold, thresholdZ, true
}

// writeResultLookupError gives failed result lookups an ID-bearing
// not-found message.
func (s *server) writeResultLookupError(
	w http.ResponseWriter, err error, id string,
) {
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{
			"no benchmark result found with ID: '" + id + "'",
		})

		return
	}

	s.writeError(w, err)
}

// enrichAll wraps fetched rows in their request-scoped enriched views.
func enrichAll(results []store.BenchmarkResult) []*compare.Enriched {
	enriched := make([]*compare.Enriched, 0, len(results))

	for i := range results {
		enriched = append(enriched, compare.NewEnriched(&results[i]))
	}

	return enriched
}
