package engine

import (
	"fmt"

	"github.com/kingrea/tddflow/internal/workflow"
	"github.com/kingrea/tddflow/internal/workflow/machine"
	"github.com/kingrea/tddflow/internal/workflow/registry"
)

// Descriptor tells the shell what to render for a component: the waiting step
// and which actions are legal now. It carries keys and catalog facts, never
// presentation text.
type Descriptor struct {
	ID              string
	Gate            workflow.Gate
	Step            machine.Step
	Legal           []workflow.Action
	Tier            registry.Tier
	Description     string
	TestArtifact    string
	ExampleArtifact string
	Dependencies    []string
	IssueRef        string
}

// NextAction describes the current task. It returns workflow.ErrNoCurrentTask
// once everything is complete.
func (e *Engine) NextAction() (Descriptor, error) {
	id, _, err := e.current()
	if err != nil {
		return Descriptor{}, err
	}
	return e.NextActionFor(id)
}

// NextActionFor describes any registered component.
func (e *Engine) NextActionFor(id string) (Descriptor, error) {
	entry, ok := e.registry.Entry(id)
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownComponent, id)
	}
	rec, ok := e.records[id]
	if !ok {
		return Descriptor{}, ErrNotOpened
	}
	return Descriptor{
		ID:              id,
		Gate:            rec.Gate,
		Step:            machine.StepFor(rec.Gate),
		Legal:           machine.Legal(rec.Gate),
		Tier:            entry.Tier,
		Description:     entry.Description,
		TestArtifact:    entry.TestArtifact,
		ExampleArtifact: entry.ExampleArtifact,
		Dependencies:    entry.DependsOn,
		IssueRef:        rec.Issue(),
	}, nil
}
