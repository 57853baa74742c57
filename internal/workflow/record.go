package workflow

import "time"

// Record is the mutable, persisted progress of one catalog component.
type Record struct {
	ID                      string    `json:"id"`
	Gate                    Gate      `json:"gate"`
	IssueRef                *string   `json:"issue_ref"`
	LastUpdated             time.Time `json:"last_updated"`
	Notes                   []string  `json:"notes"`
	TestReviewLog           []string  `json:"test_review_log"`
	ImplementationReviewLog []string  `json:"implementation_review_log"`
	DocumentationReviewLog  []string  `json:"documentation_review_log"`
	ExamplesReviewLog       []string  `json:"examples_review_log"`
}

// NewRecord returns the initial record for a component: PENDING, no issue,
// empty logs.
func NewRecord(id string, now time.Time) Record {
	return Record{
		ID:                      id,
		Gate:                    GatePending,
		LastUpdated:             now,
		Notes:                   []string{},
		TestReviewLog:           []string{},
		ImplementationReviewLog: []string{},
		DocumentationReviewLog:  []string{},
		ExamplesReviewLog:       []string{},
	}
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	clone := r
	if r.IssueRef != nil {
		ref := *r.IssueRef
		clone.IssueRef = &ref
	}
	clone.Notes = cloneLog(r.Notes)
	clone.TestReviewLog = cloneLog(r.TestReviewLog)
	clone.ImplementationReviewLog = cloneLog(r.ImplementationReviewLog)
	clone.DocumentationReviewLog = cloneLog(r.DocumentationReviewLog)
	clone.ExamplesReviewLog = cloneLog(r.ExamplesReviewLog)
	return clone
}

// Issue returns the recorded issue reference, or "" when none is set.
func (r Record) Issue() string {
	if r.IssueRef == nil {
		return ""
	}
	return *r.IssueRef
}

// Completed reports whether the record reached the terminal gate.
func (r Record) Completed() bool {
	return r.Gate.Terminal()
}

// Log returns the review log a kind of review appends to.
func (r *Record) Log(kind ReviewLog) *[]string {
	switch kind {
	case ReviewLogTests:
		return &r.TestReviewLog
	case ReviewLogImplementation:
		return &r.ImplementationReviewLog
	case ReviewLogDocumentation:
		return &r.DocumentationReviewLog
	case ReviewLogExamples:
		return &r.ExamplesReviewLog
	default:
		return nil
	}
}

// Normalize replaces nil logs with empty ones so the state file always carries
// arrays.
func (r Record) Normalize() Record {
	if r.Notes == nil {
		r.Notes = []string{}
	}
	if r.TestReviewLog == nil {
		r.TestReviewLog = []string{}
	}
	if r.ImplementationReviewLog == nil {
		r.ImplementationReviewLog = []string{}
	}
	if r.DocumentationReviewLog == nil {
		r.DocumentationReviewLog = []string{}
	}
	if r.ExamplesReviewLog == nil {
		r.ExamplesReviewLog = []string{}
	}
	return r
}

// ReviewLog identifies one of the four review-comment logs.
type ReviewLog string

const (
	ReviewLogNone           ReviewLog = ""
	ReviewLogTests          ReviewLog = "tests"
	ReviewLogImplementation ReviewLog = "implementation"
	ReviewLogDocumentation  ReviewLog = "documentation"
	ReviewLogExamples       ReviewLog = "examples"
)

// CloneRecords deep-copies a record mapping.
func CloneRecords(records map[string]Record) map[string]Record {
	out := make(map[string]Record, len(records))
	for id, rec := range records {
		out[id] = rec.Clone()
	}
	return out
}

func cloneLog(values []string) []string {
	if values == nil {
		return []string{}
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
