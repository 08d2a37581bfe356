package compare

import "sort"

// Pair is one joined (baseline, contender) combination. Either side may
// be nil when the fingerprint only appears in the other result set.
type Pair struct {
	Baseline  *Enriched
	Contender *Enriched
}

// JoinResults performs a full outer join of two result sets, pairing by
// history fingerprint.
//
// For a fingerprint present on both sides the cartesian product of its
// members is emitted: duplicate fingerprints yield every combination,
// not a best-effort 1:1 match, and callers must deduplicate clientside
// if undesired. A fingerprint present on one side only is emitted
// against a nil placeholder.
//
// Fingerprints are iterated in sorted order so the output is
// deterministic, but callers must not rely on any particular order.
func JoinResults(baseline, contender []*Enriched) []Pair {
	baselineByFing := groupByFingerprint(baseline)
	contenderByFing := groupByFingerprint(contender)

	fings := make(map[string]struct{}, len(baselineByFing))

	for fing := range baselineByFing {
		fings[fing] = struct{}{}
	}

	for fing := range contenderByFing {
		fings[fing] = struct{}{}
	}

	sorted := make([]string, 0, len(fings))
	for fing := range fings {
		sorted = append(sorted, fing)
	}

	sort.Strings(sorted)

	var pairs []Pair

	for _, fing := range sorted {
		baselines := baselineByFing[fing]
		if len(baselines) == 0 {
			baselines = []*Enriched{nil}
		}

		contenders := contenderByFing[fing]
		if len(contenders) == 0 {
			contenders = []*Enriched{nil}
		}

		for _, b := range baselines {
			for _, c := range contenders {
				pairs = append(pairs, Pair{Baseline: b, Contender: c})
			}
		}
	}

	return pairs
}

func groupByFingerprint(results []*Enriched) map[string][]*Enriched {
	grouped := make(map[string][]*Enriched, len(results))

	for _, r := range results {
		fing := r.Result.HistoryFingerprint
		grouped[fing] = append(grouped[fing], r)
	}

	return grouped
}
