package machine

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/tddflow/internal/workflow"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

var forwardPath = []struct {
	action workflow.Action
	to     workflow.Gate
}{
	{workflow.ActionRecordIssue, workflow.GateIssueCreated},
	{workflow.ActionRecordTestsProvided, workflow.GateTestsProvided},
	{workflow.ActionApproveTests, workflow.GateTestsReviewed},
	{workflow.ActionRecordImplementationProvided, workflow.GateImplementationProvided},
	{workflow.ActionApproveImplementation, workflow.GateImplementationReviewed},
	{workflow.ActionRecordDocumentationProvided, workflow.GateDocumentationProvided},
	{workflow.ActionApproveDocumentation, workflow.GateDocumentationReviewed},
	{workflow.ActionRecordExamplesProvided, workflow.GateExamplesProvided},
	{workflow.ActionApproveExamples, workflow.GateExamplesReviewed},
	{workflow.ActionComplete, workflow.GateCompleted},
}

func TestApplyForwardPath(t *testing.T) {
	rec := workflow.NewRecord("a", baseTime)
	for i, step := range forwardPath {
		now := baseTime.Add(time.Duration(i+1) * time.Minute)
		next, err := Apply(rec, step.action, Input{IssueRef: "#12", Comment: "ok"}, now)
		require.NoError(t, err, step.action)
		assert.Equal(t, step.to, next.Gate)
		assert.Equal(t, now, next.LastUpdated)
		rec = next
	}
	assert.True(t, rec.Completed())
	assert.Equal(t, "#12", rec.Issue())
	assert.Equal(t, []string{"ok"}, rec.TestReviewLog)
	assert.Equal(t, []string{"ok"}, rec.ImplementationReviewLog)
	assert.Equal(t, []string{"ok"}, rec.DocumentationReviewLog)
	assert.Equal(t, []string{"ok"}, rec.ExamplesReviewLog)
	assert.Empty(t, Legal(workflow.GateCompleted))
}

func TestApplyRejectsEveryActionOutsideItsSourceGate(t *testing.T) {
	for _, gate := range workflow.Gates() {
		for _, action := range workflow.Actions() {
			if _, ok := Lookup(gate, action); ok {
				continue
			}
			issue := "#1"
			rec := workflow.NewRecord("a", baseTime)
			rec.Gate = gate
			rec.IssueRef = &issue
			rec.TestReviewLog = []string{"earlier"}
			before := rec.Clone()

			got, err := Apply(rec, action, Input{IssueRef: "#2", Comment: "c"}, baseTime.Add(time.Hour))
			require.Error(t, err)
			assert.True(t, errors.Is(err, workflow.ErrIllegalTransition))
			var illegal *workflow.IllegalTransitionError
			require.True(t, errors.As(err, &illegal))
			assert.Equal(t, gate, illegal.Gate)
			assert.Equal(t, action, illegal.Action)
			assert.Equal(t, before, rec, "input mutated for %s at %s", action, gate)
			assert.Equal(t, before, got, "result changed for %s at %s", action, gate)
		}
	}
}

func TestApplyRollbacksRequireComment(t *testing.T) {
	cases := []struct {
		gate   workflow.Gate
		action workflow.Action
		back   workflow.Gate
		log    func(workflow.Record) []string
	}{
		{workflow.GateTestsProvided, workflow.ActionRequestTestChanges, workflow.GateIssueCreated, func(r workflow.Record) []string { return r.TestReviewLog }},
		{workflow.GateImplementationProvided, workflow.ActionRequestImplementationChanges, workflow.GateTestsReviewed, func(r workflow.Record) []string { return r.ImplementationReviewLog }},
	}
	for _, tc := range cases {
		t.Run(string(tc.action), func(t *testing.T) {
			rec := workflow.NewRecord("a", baseTime)
			rec.Gate = tc.gate
			before := rec.Clone()

			for _, blank := range []string{"", "   \t"} {
				got, err := Apply(rec, tc.action, Input{Comment: blank}, baseTime.Add(time.Minute))
				require.ErrorIs(t, err, workflow.ErrMissingComment)
				assert.Equal(t, before, got)
				assert.Equal(t, tc.gate, rec.Gate)
			}

			got, err := Apply(rec, tc.action, Input{Comment: "  cover the empty series  "}, baseTime.Add(time.Minute))
			require.NoError(t, err)
			assert.Equal(t, tc.back, got.Gate)
			assert.Equal(t, []string{"cover the empty series"}, tc.log(got))
			assert.Empty(t, tc.log(rec))
		})
	}
}

func TestApplyOptionalCommentIsOnlyAppendedWhenPresent(t *testing.T) {
	rec := workflow.NewRecord("a", baseTime)
	rec.Gate = workflow.GateTestsProvided
	got, err := Apply(rec, workflow.ActionApproveTests, Input{Comment: "  "}, baseTime)
	require.NoError(t, err)
	assert.Equal(t, workflow.GateTestsReviewed, got.Gate)
	assert.Empty(t, got.TestReviewLog)

	rec.Gate = workflow.GateExamplesProvided
	got, err = Apply(rec, workflow.ActionApproveExamples, Input{Comment: "clear"}, baseTime)
	require.NoError(t, err)
	assert.Equal(t, []string{"clear"}, got.ExamplesReviewLog)
	assert.Empty(t, got.TestReviewLog)
}

func TestApplyRecordIssue(t *testing.T) {
	rec := workflow.NewRecord("a", baseTime)
	_, err := Apply(rec, workflow.ActionRecordIssue, Input{IssueRef: " "}, baseTime)
	require.ErrorIs(t, err, workflow.ErrMissingIssueRef)
	assert.Nil(t, rec.IssueRef)

	got, err := Apply(rec, workflow.ActionRecordIssue, Input{IssueRef: " 42 "}, baseTime)
	require.NoError(t, err)
	assert.Equal(t, "42", got.Issue())
	assert.Nil(t, rec.IssueRef)
}

func TestApplyNeverMovesLastUpdatedBackwards(t *testing.T) {
	rec := workflow.NewRecord("a", baseTime)
	got, err := Apply(rec, workflow.ActionRecordIssue, Input{IssueRef: "1"}, baseTime.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, baseTime, got.LastUpdated)

	local := time.FixedZone("east", 3*60*60)
	later := baseTime.Add(time.Minute).In(local)
	got, err = Apply(got, workflow.ActionRecordTestsProvided, Input{}, later)
	require.NoError(t, err)
	assert.True(t, got.LastUpdated.Equal(later))
	assert.Equal(t, time.UTC, got.LastUpdated.Location())
}

func TestLegalAndStepsCoverEveryGate(t *testing.T) {
	assert.Equal(t, []workflow.Action{workflow.ActionApproveTests, workflow.ActionRequestTestChanges}, Legal(workflow.GateTestsProvided))
	assert.Equal(t, []workflow.Action{workflow.ActionRecordIssue}, Legal(workflow.GatePending))
	for _, gate := range workflow.Gates() {
		assert.NotEmpty(t, StepFor(gate), gate)
		if !gate.Terminal() {
			assert.NotEmpty(t, Legal(gate), gate)
		}
	}
	assert.Equal(t, StepDone, StepFor(workflow.GateCompleted))
	assert.Equal(t, Step(""), StepFor(workflow.Gate("BOGUS")))
}

func TestEveryActionHasExactlyOneSourceGate(t *testing.T) {
	for _, action := range workflow.Actions() {
		sources := 0
		for _, tr := range Transitions() {
			if tr.Action == action {
				sources++
			}
		}
		assert.Equal(t, 1, sources, action)
	}
}

// Random walks over legal actions only revisit a gate by taking one of the two
// rollback edges.
func TestRandomWalksAreMonotonicOutsideRollbacks(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for walk := 0; walk < 200; walk++ {
		rec := workflow.NewRecord("a", baseTime)
		visited := map[workflow.Gate]bool{rec.Gate: true}
		for step := 0; step < 60 && !rec.Completed(); step++ {
			legal := Legal(rec.Gate)
			action := legal[rng.Intn(len(legal))]
			tr, ok := Lookup(rec.Gate, action)
			require.True(t, ok)
			next, err := Apply(rec, action, Input{IssueRef: "#1", Comment: "why"}, baseTime)
			require.NoError(t, err)
			if tr.Rollback {
				assert.Less(t, next.Gate.Ordinal(), rec.Gate.Ordinal())
				visited = map[workflow.Gate]bool{}
				for _, gate := range workflow.Gates() {
					if gate.Ordinal() <= next.Gate.Ordinal() {
						visited[gate] = true
					}
				}
			} else {
				assert.Greater(t, next.Gate.Ordinal(), rec.Gate.Ordinal())
				assert.False(t, visited[next.Gate], "revisited %s without rollback", next.Gate)
				visited[next.Gate] = true
			}
			rec = next
		}
	}
}
