package machine

import "github.com/kingrea/tddflow/internal/workflow"

// Step is the stable key for "what the operator does next" at a gate. The
// shell maps it to instructions; the engine never renders prose.
type Step string

const (
	StepCreateIssue           Step = "create_issue"
	StepRequestTests          Step = "request_tests"
	StepReviewTests           Step = "review_tests"
	StepRequestImplementation Step = "request_implementation"
	StepReviewImplementation  Step = "review_implementation"
	StepRequestDocumentation  Step = "request_documentation"
	StepReviewDocumentation   Step = "review_documentation"
	StepRequestExamples       Step = "request_examples"
	StepReviewExamples        Step = "review_examples"
	StepFinalize              Step = "finalize"
	StepDone                  Step = "done"
)

var steps = map[workflow.Gate]Step{
	workflow.GatePending:                StepCreateIssue,
	workflow.GateIssueCreated:           StepRequestTests,
	workflow.GateTestsProvided:          StepReviewTests,
	workflow.GateTestsReviewed:          StepRequestImplementation,
	workflow.GateImplementationProvided: StepReviewImplementation,
	workflow.GateImplementationReviewed: StepRequestDocumentation,
	workflow.GateDocumentationProvided:  StepReviewDocumentation,
	workflow.GateDocumentationReviewed:  StepRequestExamples,
	workflow.GateExamplesProvided:       StepReviewExamples,
	workflow.GateExamplesReviewed:       StepFinalize,
	workflow.GateCompleted:              StepDone,
}

// StepFor returns the step waiting at gate. Unknown gates map to "".
func StepFor(gate workflow.Gate) Step {
	return steps[gate]
}
