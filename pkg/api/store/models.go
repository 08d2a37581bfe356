package store

import "encoding/json"

// BenchmarkResult is one measured outcome for a case/context/hardware
// combination within a run. Rows are read-only for the compare
// codepaths; enrichment (display fields, z-score) is layered on top in
// pkg/compare and never written back.
type BenchmarkResult struct {
	// ID is minted monotonically at insertion time so that
	// lexicographic order matches insertion order. See NewResultID.
	ID string `gorm:"primaryKey" json:"id"`

	RunID   string `gorm:"index;not null" json:"run_id"`
	BatchID string `gorm:"index" json:"batch_id"`

	CaseName string `json:"case_name"`
	// CaseTags and ContextTags are JSON-encoded string maps.
	CaseTags    string `json:"-"`
	ContextTags string `json:"-"`
	HardwareID  string `json:"hardware_id"`

	// CommitSHA is empty when the run is not tied to a commit.
	CommitSHA string `gorm:"index" json:"commit_sha"`

	// HistoryFingerprint groups "the same measurement" across
	// commits and runs. Opaque equality key.
	HistoryFingerprint string `gorm:"index" json:"history_fingerprint"`

	Unit string `json:"unit"`

	// SVS is the single-value summary extracted from the measurement.
	// Meaningless when Failed is set.
	SVS float64 `gorm:"column:svs" json:"single_value_summary"`

	Failed bool   `json:"failed"`
	Error  string `json:"error"`

	// Timestamp is the measurement time as a unix timestamp.
	Timestamp int64 `gorm:"index" json:"timestamp"`
}

// CaseTagMap decodes CaseTags. A missing or malformed value yields an
// empty map.
func (r *BenchmarkResult) CaseTagMap() map[string]string {
	return decodeTags(r.CaseTags)
}

// ContextTagMap decodes ContextTags. A missing or malformed value
// yields an empty map.
func (r *BenchmarkResult) ContextTagMap() map[string]string {
	return decodeTags(r.ContextTags)
}

func decodeTags(raw string) map[string]string {
	tags := map[string]string{}

	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &tags)
	}

	return tags
}

// EncodeTags serializes a tag map for storage.
func EncodeTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}

	b, err := json.Marshal(tags)
	if err != nil {
		return ""
	}

	return string(b)
}

// Run is a named batch of benchmark results, optionally tied to one
// commit.
type Run struct {
	ID        string `gorm:"primaryKey" json:"id"`
	Name      string `json:"name"`
	Reason    string `gorm:"index" json:"reason"`
	CommitSHA string `json:"commit_sha"`
	Timestamp int64  `json:"timestamp"`
}
