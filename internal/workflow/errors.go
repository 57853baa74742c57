package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrRegistry marks catalog integrity failures. Fatal at startup.
	ErrRegistry = errors.New("workflow: invalid registry")
	// ErrCorruptState marks an unreadable or invalid state file. Fatal at startup.
	ErrCorruptState = errors.New("workflow: corrupt state")
	// ErrIllegalTransition marks an action invoked outside its source gate.
	ErrIllegalTransition = errors.New("workflow: illegal transition")
	// ErrMissingComment is returned when a rollback action has no justification.
	ErrMissingComment = errors.New("workflow: comment is required")
	// ErrMissingIssueRef is returned when record_issue has no reference.
	ErrMissingIssueRef = errors.New("workflow: issue reference is required")
	// ErrNoCurrentTask is returned when no component is eligible for work.
	ErrNoCurrentTask = errors.New("workflow: no current task")
)

// RegistryError describes why a catalog could not be turned into a registry.
type RegistryError struct {
	Component string
	Reason    string
}

func (e *RegistryError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("workflow: invalid registry: %s", e.Reason)
	}
	return fmt.Sprintf("workflow: invalid registry: %s: %s", e.Component, e.Reason)
}

func (e *RegistryError) Is(target error) bool {
	return target == ErrRegistry
}

// CorruptStateError wraps the decode or validation failure of a state file.
type CorruptStateError struct {
	Path string
	Err  error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("workflow: corrupt state %s: %v", e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error {
	return e.Err
}

func (e *CorruptStateError) Is(target error) bool {
	return target == ErrCorruptState
}

// IllegalTransitionError reports the gate a record was in when an action was
// rejected.
type IllegalTransitionError struct {
	Gate   Gate
	Action Action
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("workflow: %s is not allowed from %s", e.Action, e.Gate)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}
