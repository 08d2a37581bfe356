package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/ethpandaops/regressoor/pkg/api/store"
	"github.com/ethpandaops/regressoor/pkg/compare"
	"github.com/ethpandaops/regressoor/pkg/pagination"
	"github.com/ethpandaops/regressoor/pkg/units"
	"github.com/go-chi/chi/v5"
)

// resultResponse is the JSON projection of one stored benchmark result.
type resultResponse struct {
	ID                 string            `json:"id"`
	RunID              string            `json:"run_id"`
	BatchID            string            `json:"batch_id"`
	BenchmarkName      string            `json:"benchmark_name"`
	CasePermutation    string            `json:"case_permutation"`
	Language           string            `json:"language"`
	Tags               map[string]string `json:"tags"`
	HardwareID         string            `json:"hardware_id"`
	CommitSHA          *string           `json:"commit_sha"`
	HistoryFingerprint string            `json:"history_fingerprint"`
	Unit               string            `json:"unit"`
	SingleValueSummary *float64          `json:"single_value_summary"`
	Failed             bool              `json:"failed"`
	Error              *string           `json:"error"`
	Timestamp          int64             `json:"timestamp"`
	ZScore             *float64          `json:"z_score,omitempty"`
}

func toResultResponse(e *compare.Enriched) resultResponse {
	r := e.Result

	resp := resultResponse{
		ID:                 r.ID,
		RunID:              r.RunID,
		BatchID:            r.BatchID,
		BenchmarkName:      e.DisplayName,
		CasePermutation:    e.DisplayCase,
		Language:           e.Language(),
		Tags:               r.CaseTagMap(),
		HistoryFingerprint: r.HistoryFingerprint,
		HardwareID:         r.HardwareID,
		Unit:               r.Unit,
		Failed:             r.Failed,
		Timestamp:          r.Timestamp,
	}

	if !r.Failed && !math.IsNaN(r.SVS) {
		svs := r.SVS
		resp.SingleValueSummary = &svs
	}

	if r.CommitSHA != "" {
		sha := r.CommitSHA
		resp.CommitSHA = &sha
	}

	if r.Error != "" {
		errText := r.Error
		resp.Error = &errText
	}

	if !math.IsNaN(e.ZScore) {
		z := e.ZScore
		resp.ZScore = &z
	}

	return resp
}

// listResultsResponse is one page of the result listing.
type listResultsResponse struct {
	Data     []resultResponse    `json:"data"`
	Metadata listResultsMetadata `json:"metadata"`
}

type listResultsMetadata struct {
	NextPageCursor *string `json:"next_page_cursor"`
}

// handleListResults returns a cursor-paginated page of benchmark
// results, most recent first. Not behind the admission gate.
func (s *server) handleListResults(w http.ResponseWriter, r *http.Request) {
	pageSize, err := intQueryParam(r, "page_size")
	if err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"page_size must be an integer"})

		return
	}

	params, err := pagination.NewParams(
		r.URL.Query().Get("cursor"), pageSize,
	)
	if err != nil {
		s.writeError(w, err)

		return
	}

	earliest, err := int64QueryParam(r, "earliest_timestamp")
	if err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"earliest_timestamp must be a unix timestamp"})

		return
	}

	latest, err := int64QueryParam(r, "latest_timestamp")
	if err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"latest_timestamp must be a unix timestamp"})

		return
	}

	results, err := s.store.ListResultsPage(r.Context(), store.ResultPageQuery{
		Cursor:            params.Cursor,
		PageSize:          params.PageSize,
		RunID:             r.URL.Query().Get("run_id"),
		RunReason:         r.URL.Query().Get("run_reason"),
		EarliestTimestamp: earliest,
		LatestTimestamp:   latest,
	})
	if err != nil {
		s.writeError(w, err)

		return
	}

	data := make([]resultResponse, 0, len(results))
	rowIDs := make([]string, 0, len(results))

	for i := range results {
		data = append(data, toResultResponse(
			compare.NewEnriched(&results[i]),
		))
		rowIDs = append(rowIDs, results[i].ID)
	}

	writeJSON(w, http.StatusOK, listResultsResponse{
		Data: data,
		Metadata: listResultsMetadata{
			NextPageCursor: pagination.NextCursor(params, rowIDs),
		},
	})
}

// handleGetResult returns a single benchmark result, annotated with its
// lookback z-score against its own commit when it has one.
func (s *server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := s.store.GetResult(r.Context(), id)
	if err != nil {
		s.writeResultLookupError(w, err, id)

		return
	}

	enriched := compare.NewEnriched(result)

	if result.CommitSHA != "" {
		if err := s.annotator.Annotate(
			r.Context(),
			[]*compare.Enriched{enriched},
			result.CommitSHA,
		); err != nil {
			s.writeError(w, err)

			return
		}
	}

	writeJSON(w, http.StatusOK, toResultResponse(enriched))
}

// createResultRequest submits a benchmark result within a run. If the
// run is not known yet it gets implicitly created from the run_* fields
// here; for an existing run those fields are silently ignored.
type createResultRequest struct {
	RunID       string            `json:"run_id"`
	RunName     string            `json:"run_name"`
	RunReason   string            `json:"run_reason"`
	BatchID     string            `json:"batch_id"`
	CaseName    string            `json:"case_name"`
	CaseTags    map[string]string `json:"tags"`
	ContextTags map[string]string `json:"context"`
	HardwareID  string            `json:"hardware_id"`
	CommitSHA   string            `json:"commit_sha"`
	Unit        string            `json:"unit"`
	Value       *float64          `json:"single_value_summary"`
	Failed      bool              `json:"failed"`
	Error       string            `json:"error"`
	Timestamp   int64             `json:"timestamp"`
}

// handleCreateResult ingests one benchmark result.
func (s *server) handleCreateResult(w http.ResponseWriter, r *http.Request) {
	var req createResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"invalid request body"})

		return
	}

	if req.RunID == "" {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"run_id is required"})

		return
	}

	if !req.Failed {
		if req.Unit == "" || !units.Valid(req.Unit) {
			writeJSON(w, http.StatusBadRequest,
				errorResponse{"unit must be one of s, ns, B/s, i/s"})

			return
		}

		if req.Value == nil {
			writeJSON(w, http.StatusBadRequest,
				errorResponse{"single_value_summary is required"})

			return
		}
	}

	ctx := r.Context()

	// Implicit run creation, first-write-wins on the run fields.
	if _, err := s.store.GetRun(ctx, req.RunID); errors.Is(err, store.ErrNotFound) {
		if err := s.store.CreateRun(ctx, &store.Run{
			ID:        req.RunID,
			Name:      req.RunName,
			Reason:    req.RunReason,
			CommitSHA: req.CommitSHA,
			Timestamp: req.Timestamp,
		}); err != nil {
			s.writeError(w, err)

			return
		}
	} else if err != nil {
		s.writeError(w, err)

		return
	}

	result := &store.BenchmarkResult{
		RunID:              req.RunID,
		BatchID:            req.BatchID,
		CaseName:           req.CaseName,
		CaseTags:           store.EncodeTags(req.CaseTags),
		ContextTags:        store.EncodeTags(req.ContextTags),
		HardwareID:         req.HardwareID,
		CommitSHA:          req.CommitSHA,
		HistoryFingerprint: deriveFingerprint(&req),
		Unit:               req.Unit,
		Failed:             req.Failed,
		Error:              req.Error,
		Timestamp:          req.Timestamp,
	}

	if req.Value != nil {
		result.SVS = *req.Value
	}

	if err := s.store.CreateResult(ctx, result); err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusCreated, toResultResponse(
		compare.NewEnriched(result),
	))
}

// updateResultRequest edits the mutable fields of a benchmark result.
type updateResultRequest struct {
	Failed *bool   `json:"failed"`
	Error  *string `json:"error"`
}

// handleUpdateResult edits a benchmark result. Single-row transactional
// update; no special isolation beyond the store's default.
func (s *server) handleUpdateResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := s.store.GetResult(r.Context(), id)
	if err != nil {
		s.writeResultLookupError(w, err, id)

		return
	}

	var req updateResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"invalid request body"})

		return
	}

	if req.Failed != nil {
		result.Failed = *req.Failed
	}

	if req.Error != nil {
		result.Error = *req.Error
	}

	if err := s.store.UpdateResult(r.Context(), result); err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, toResultResponse(
		compare.NewEnriched(result),
	))
}

// handleDeleteResult removes a benchmark result.
func (s *server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.store.DeleteResult(r.Context(), id); err != nil {
		s.writeResultLookupError(w, err, id)

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetRun returns a run by ID.
func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{
				"no run found with ID: '" + id + "'",
			})

			return
		}

		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, run)
}

// deriveFingerprint computes the history fingerprint grouping "the same
// measurement" across commits and runs: a hash over the case, its tags,
// the context, and the hardware — everything identity-relevant except
// the commit and the measured value.
func deriveFingerprint(req *createResultRequest) string {
	h := sha256.New()

	h.Write([]byte(req.CaseName))
	h.Write([]byte{0})
	writeSortedTags(h, req.CaseTags)
	writeSortedTags(h, req.ContextTags)
	h.Write([]byte(req.HardwareID))

	return hex.EncodeToString(h.Sum(nil))
}

func writeSortedTags(h io.Writer, tags map[string]string) {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var b strings.Builder

	for _, k := range keys {
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(tags[k])
		b.WriteString(";")
	}

	_, _ = h.Write([]byte(b.String()))
	_, _ = h.Write([]byte{0})
}
