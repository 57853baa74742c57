// Package instructions holds the operator guidance shown for each workflow
// step. The engine only reports step keys; this catalog turns them into text.
package instructions

import "github.com/kingrea/tddflow/internal/workflow/machine"

// Instruction is what the shell renders for one step.
type Instruction struct {
	Title string
	Steps []string
	// Hint names the shell commands that move the component forward.
	Hint string
}

var catalog = map[machine.Step]Instruction{
	machine.StepCreateIssue: {
		Title: "Create GitHub Issue",
		Steps: []string{
			"Component Purpose",
			"Acceptance Criteria",
			"Expected Interfaces",
			"Performance Requirements",
			"Error Handling Requirements",
		},
		Hint: "issue <ref>",
	},
	machine.StepRequestTests: {
		Title: "Get Tests",
		Steps: []string{
			"Share the issue and the component description",
			"Ask for tests covering every acceptance criterion",
			"Save the tests at the component's test path",
		},
		Hint: "tests-received",
	},
	machine.StepReviewTests: {
		Title: "Review Tests",
		Steps: []string{
			"Check the tests compile and fail for the right reason",
			"Check edge cases and error paths are covered",
			"Check the tests only use the expected interfaces",
		},
		Hint: "run-tests, approve-tests [comment], request-test-changes <comment>",
	},
	machine.StepRequestImplementation: {
		Title: "Get Implementation",
		Steps: []string{
			"Share the approved tests",
			"Ask for an implementation that makes them pass",
			"Save the implementation at the component path",
		},
		Hint: "implementation-received",
	},
	machine.StepReviewImplementation: {
		Title: "Review Implementation",
		Steps: []string{
			"Run the tests and confirm they pass",
			"Check error handling and performance requirements",
			"Check the code matches the expected interfaces",
		},
		Hint: "run-tests, approve-implementation [comment], request-implementation-changes <comment>",
	},
	machine.StepRequestDocumentation: {
		Title: "Get Documentation",
		Steps: []string{
			"Ask for doc comments on every public item",
			"Ask for a module-level overview",
		},
		Hint: "docs-received",
	},
	machine.StepReviewDocumentation: {
		Title: "Review Documentation",
		Steps: []string{
			"Check the docs match the implemented behavior",
			"Check errors and panics are documented",
		},
		Hint: "approve-docs [comment]",
	},
	machine.StepRequestExamples: {
		Title: "Get Examples",
		Steps: []string{
			"Ask for a runnable example of the component",
			"Save it at the component's example path",
		},
		Hint: "examples-received",
	},
	machine.StepReviewExamples: {
		Title: "Review Examples",
		Steps: []string{
			"Run the example",
			"Check it shows the common use of the component",
		},
		Hint: "approve-examples [comment]",
	},
	machine.StepFinalize: {
		Title: "Component Development Completed",
		Steps: []string{
			"Close the issue",
			"Commit tests, implementation, docs and example together",
		},
		Hint: "complete",
	},
	machine.StepDone: {
		Title: "Completed",
		Hint:  "next",
	},
}

// For returns the instruction for step.
func For(step machine.Step) (Instruction, bool) {
	in, ok := catalog[step]
	if !ok {
		return Instruction{}, false
	}
	in.Steps = append([]string(nil), in.Steps...)
	return in, true
}
