package scheduler

import (
	"fmt"

	"github.com/kingrea/tddflow/internal/workflow"
	"github.com/kingrea/tddflow/internal/workflow/registry"
)

// Selector exposes the minimal contract the engine needs to find the current
// task.
type Selector interface {
	Current(records map[string]workflow.Record) (string, bool)
}

// Scheduler implements Selector on top of a registry.
type Scheduler struct {
	registry *registry.Registry
}

// New wires a Scheduler to a registry.
func New(reg *registry.Registry) (*Scheduler, error) {
	if reg == nil {
		return nil, fmt.Errorf("scheduler: registry is required")
	}
	return &Scheduler{registry: reg}, nil
}

// Status classifies a component relative to the current task.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCurrent   Status = "current"
	StatusReady     Status = "ready"
	StatusBlocked   Status = "blocked"
)

// Decision explains the scheduler's view of one component.
type Decision struct {
	ID        string
	Gate      workflow.Gate
	Status    Status
	BlockedBy []string
}

// Current returns the first component in registration order that is not
// complete and has every dependency complete. ok is false only when every
// component is complete. A component without a record counts as PENDING.
func (s *Scheduler) Current(records map[string]workflow.Record) (string, bool) {
	for _, id := range s.registry.IDs() {
		if gateOf(records, id).Terminal() {
			continue
		}
		if len(s.blockers(records, id)) == 0 {
			return id, true
		}
	}
	return "", false
}

// Plan returns a decision for every component in registration order.
func (s *Scheduler) Plan(records map[string]workflow.Record) []Decision {
	ids := s.registry.IDs()
	out := make([]Decision, 0, len(ids))
	current, hasCurrent := s.Current(records)
	for _, id := range ids {
		decision := Decision{ID: id, Gate: gateOf(records, id)}
		switch {
		case decision.Gate.Terminal():
			decision.Status = StatusCompleted
		case hasCurrent && id == current:
			decision.Status = StatusCurrent
		default:
			blockers := s.blockers(records, id)
			if len(blockers) == 0 {
				decision.Status = StatusReady
			} else {
				decision.Status = StatusBlocked
				decision.BlockedBy = blockers
			}
		}
		out = append(out, decision)
	}
	return out
}

func (s *Scheduler) blockers(records map[string]workflow.Record, id string) []string {
	deps := s.registry.Dependencies(id)
	if len(deps) == 0 {
		return nil
	}
	blockers := make([]string, 0, len(deps))
	for _, dep := range deps {
		if !gateOf(records, dep).Terminal() {
			blockers = append(blockers, dep)
		}
	}
	if len(blockers) == 0 {
		return nil
	}
	return blockers
}

func gateOf(records map[string]workflow.Record, id string) workflow.Gate {
	rec, ok := records[id]
	if !ok || rec.Gate == "" {
		return workflow.GatePending
	}
	return rec.Gate
}
