package workflow

import "fmt"

// Action names an operator command that moves a component between gates.
type Action string

const (
	ActionRecordIssue                  Action = "record_issue"
	ActionRecordTestsProvided          Action = "record_tests_provided"
	ActionApproveTests                 Action = "approve_tests"
	ActionRequestTestChanges           Action = "request_test_changes"
	ActionRecordImplementationProvided Action = "record_implementation_provided"
	ActionApproveImplementation        Action = "approve_implementation"
	ActionRequestImplementationChanges Action = "request_implementation_changes"
	ActionRecordDocumentationProvided  Action = "record_documentation_provided"
	ActionApproveDocumentation         Action = "approve_documentation"
	ActionRecordExamplesProvided       Action = "record_examples_provided"
	ActionApproveExamples              Action = "approve_examples"
	ActionComplete                     Action = "complete"
)

var actionOrder = []Action{
	ActionRecordIssue,
	ActionRecordTestsProvided,
	ActionApproveTests,
	ActionRequestTestChanges,
	ActionRecordImplementationProvided,
	ActionApproveImplementation,
	ActionRequestImplementationChanges,
	ActionRecordDocumentationProvided,
	ActionApproveDocumentation,
	ActionRecordExamplesProvided,
	ActionApproveExamples,
	ActionComplete,
}

// Actions returns every known action.
func Actions() []Action {
	out := make([]Action, len(actionOrder))
	copy(out, actionOrder)
	return out
}

// ParseAction resolves an action name.
func ParseAction(name string) (Action, error) {
	for _, action := range actionOrder {
		if string(action) == name {
			return action, nil
		}
	}
	return "", fmt.Errorf("workflow: unknown action %q", name)
}

func (a Action) String() string {
	return string(a)
}
