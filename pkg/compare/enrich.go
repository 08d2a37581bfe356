package compare

import (
	"math"
	"sort"
	"strings"

	"github.com/ethpandaops/regressoor/pkg/api/store"
)

// languageTag is the context tag carrying the benchmark language.
const languageTag = "benchmark_language"

// Enriched is an immutable request-scoped view over a stored benchmark
// result, carrying the display fields and the lookback z-score. The
// underlying row is never mutated; enrichment lives and dies with one
// request.
type Enriched struct {
	Result *store.BenchmarkResult

	// DisplayName is the human-facing benchmark name.
	DisplayName string

	// DisplayCase is the human-facing case permutation.
	DisplayCase string

	// ZScore is the lookback z-score assigned by the history
	// annotator. NaN means no matching historical distribution.
	ZScore float64
}

// NewEnriched builds the enriched view for a fetched result. The
// z-score starts out absent (NaN) until an annotator assigns one.
func NewEnriched(r *store.BenchmarkResult) *Enriched {
	return &Enriched{
		Result:      r,
		DisplayName: displayName(r),
		DisplayCase: displayCasePermutation(r),
		ZScore:      math.NaN(),
	}
}

// displayName derives the benchmark name from the case.
func displayName(r *store.BenchmarkResult) string {
	if r.CaseName != "" {
		return r.CaseName
	}

	if name, ok := r.CaseTagMap()["name"]; ok && name != "" {
		return name
	}

	return "unknown"
}

// displayCasePermutation renders the case tags (minus the name, which
// is the benchmark name itself) as a stable "k=v, k=v" string.
func displayCasePermutation(r *store.BenchmarkResult) string {
	tags := r.CaseTagMap()

	keys := make([]string, 0, len(tags))

	for k := range tags {
		if k == "name" {
			continue
		}

		keys = append(keys, k)
	}

	if len(keys) == 0 {
		return "n/a"
	}

	sort.Strings(keys)

	var b strings.Builder

	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(tags[k])
	}

	return b.String()
}

// Language returns the benchmark language from the context tags,
// defaulting to "unknown".
func (e *Enriched) Language() string {
	if lang, ok := e.Result.ContextTagMap()[languageTag]; ok && lang != "" {
		return lang
	}

	return "unknown"
}
