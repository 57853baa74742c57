package machine

import (
	"strings"
	"time"

	"github.com/kingrea/tddflow/internal/workflow"
)

// CommentPolicy says whether an action takes a review comment.
type CommentPolicy int

const (
	CommentNone CommentPolicy = iota
	CommentOptional
	CommentRequired
)

// Transition is one row of the gate table.
type Transition struct {
	From    workflow.Gate
	Action  workflow.Action
	To      workflow.Gate
	Log     workflow.ReviewLog
	Comment CommentPolicy
	// Rollback marks the two edges that return to an earlier gate.
	Rollback bool
}

// Input carries the operator-supplied arguments of an action.
type Input struct {
	IssueRef string
	Comment  string
}

var table = []Transition{
	{From: workflow.GatePending, Action: workflow.ActionRecordIssue, To: workflow.GateIssueCreated},
	{From: workflow.GateIssueCreated, Action: workflow.ActionRecordTestsProvided, To: workflow.GateTestsProvided},
	{From: workflow.GateTestsProvided, Action: workflow.ActionApproveTests, To: workflow.GateTestsReviewed, Log: workflow.ReviewLogTests, Comment: CommentOptional},
	{From: workflow.GateTestsProvided, Action: workflow.ActionRequestTestChanges, To: workflow.GateIssueCreated, Log: workflow.ReviewLogTests, Comment: CommentRequired, Rollback: true},
	{From: workflow.GateTestsReviewed, Action: workflow.ActionRecordImplementationProvided, To: workflow.GateImplementationProvided},
	{From: workflow.GateImplementationProvided, Action: workflow.ActionApproveImplementation, To: workflow.GateImplementationReviewed, Log: workflow.ReviewLogImplementation, Comment: CommentOptional},
	{From: workflow.GateImplementationProvided, Action: workflow.ActionRequestImplementationChanges, To: workflow.GateTestsReviewed, Log: workflow.ReviewLogImplementation, Comment: CommentRequired, Rollback: true},
	{From: workflow.GateImplementationReviewed, Action: workflow.ActionRecordDocumentationProvided, To: workflow.GateDocumentationProvided},
	{From: workflow.GateDocumentationProvided, Action: workflow.ActionApproveDocumentation, To: workflow.GateDocumentationReviewed, Log: workflow.ReviewLogDocumentation, Comment: CommentOptional},
	{From: workflow.GateDocumentationReviewed, Action: workflow.ActionRecordExamplesProvided, To: workflow.GateExamplesProvided},
	{From: workflow.GateExamplesProvided, Action: workflow.ActionApproveExamples, To: workflow.GateExamplesReviewed, Log: workflow.ReviewLogExamples, Comment: CommentOptional},
	{From: workflow.GateExamplesReviewed, Action: workflow.ActionComplete, To: workflow.GateCompleted},
}

// Transitions returns a copy of the full gate table.
func Transitions() []Transition {
	out := make([]Transition, len(table))
	copy(out, table)
	return out
}

// Lookup finds the transition for action when the record sits at gate.
func Lookup(gate workflow.Gate, action workflow.Action) (Transition, bool) {
	for _, tr := range table {
		if tr.From == gate && tr.Action == action {
			return tr, true
		}
	}
	return Transition{}, false
}

// Legal lists the actions accepted at gate, forward action first.
func Legal(gate workflow.Gate) []workflow.Action {
	var actions []workflow.Action
	for _, tr := range table {
		if tr.From == gate {
			actions = append(actions, tr.Action)
		}
	}
	return actions
}

// Apply runs action against rec. On success the returned record is a deep
// copy with the new gate and a LastUpdated of max(now, rec.LastUpdated). On
// failure rec is returned unchanged together with the error.
func Apply(rec workflow.Record, action workflow.Action, in Input, now time.Time) (workflow.Record, error) {
	tr, ok := Lookup(rec.Gate, action)
	if !ok {
		return rec, &workflow.IllegalTransitionError{Gate: rec.Gate, Action: action}
	}
	comment := strings.TrimSpace(in.Comment)
	if tr.Comment == CommentRequired && comment == "" {
		return rec, workflow.ErrMissingComment
	}
	issue := strings.TrimSpace(in.IssueRef)
	if action == workflow.ActionRecordIssue && issue == "" {
		return rec, workflow.ErrMissingIssueRef
	}

	next := rec.Clone()
	next.Gate = tr.To
	if action == workflow.ActionRecordIssue {
		next.IssueRef = &issue
	}
	if tr.Comment != CommentNone && comment != "" {
		if log := next.Log(tr.Log); log != nil {
			*log = append(*log, comment)
		}
	}
	next.LastUpdated = Stamp(rec.LastUpdated, now)
	return next, nil
}

// Stamp returns the timestamp a mutation should record so LastUpdated never
// moves backwards.
func Stamp(previous, now time.Time) time.Time {
	now = now.UTC()
	if now.Before(previous) {
		return previous.UTC()
	}
	return now
}
