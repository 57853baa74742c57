package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kingrea/tddflow/internal/workflow"
	"github.com/kingrea/tddflow/internal/workflow/machine"
	"github.com/kingrea/tddflow/internal/workflow/registry"
	"github.com/kingrea/tddflow/internal/workflow/scheduler"
)

var (
	// ErrUnknownComponent is returned for ids that are not in the registry.
	ErrUnknownComponent = errors.New("engine: unknown component")
	// ErrNotOpened is returned when the engine is used before Open.
	ErrNotOpened = errors.New("engine: state not loaded")
	// ErrEmptyNote is returned when AddNote is given blank text.
	ErrEmptyNote = errors.New("engine: note text is required")
)

// Event describes one committed mutation, for journals.
type Event struct {
	At        time.Time
	Component string
	// Action is empty for notes.
	Action  workflow.Action
	From    workflow.Gate
	To      workflow.Gate
	Comment string
}

// Journal receives committed events. Implementations must not fail the
// mutation; the state file is already written when Record is called.
type Journal interface {
	Record(Event)
}

// Engine is the single entry point the shell drives. It is not safe for
// concurrent use; one command loop owns it.
type Engine struct {
	registry  *registry.Registry
	store     StateStore
	scheduler *scheduler.Scheduler
	records   map[string]workflow.Record
	clock     func() time.Time
	logger    *zap.Logger
	journal   Journal
}

// Option customizes the engine instance.
type Option func(*Engine)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithJournal attaches a journal that is told about every committed event.
func WithJournal(journal Journal) Option {
	return func(e *Engine) {
		e.journal = journal
	}
}

// New wires an engine to a registry and a state store. Call Open before use.
func New(reg *registry.Registry, store StateStore, opts ...Option) (*Engine, error) {
	if reg == nil {
		return nil, fmt.Errorf("engine: registry is required")
	}
	if store == nil {
		return nil, fmt.Errorf("engine: state store is required")
	}
	sched, err := scheduler.New(reg)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		registry:  reg,
		store:     store,
		scheduler: sched,
		clock:     time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Open loads persisted records. Components the store does not know yet are
// seeded at PENDING and saved immediately. Records for components missing from
// the registry make the state corrupt; they are never dropped silently.
func (e *Engine) Open() error {
	loaded, err := e.store.Load()
	if err != nil {
		return err
	}
	for id := range loaded {
		if !e.registry.Contains(id) {
			return &workflow.CorruptStateError{
				Path: e.statePath(),
				Err:  fmt.Errorf("record %s is not in the registry", id),
			}
		}
	}
	records := make(map[string]workflow.Record, e.registry.Len())
	var seeded []string
	now := e.now()
	for _, id := range e.registry.IDs() {
		if rec, ok := loaded[id]; ok {
			records[id] = rec.Normalize()
			continue
		}
		records[id] = workflow.NewRecord(id, now)
		seeded = append(seeded, id)
	}
	if len(seeded) > 0 {
		if err := e.store.Save(records); err != nil {
			return fmt.Errorf("engine: persist seeded state: %w", err)
		}
		e.logger.Info("seeded workflow records", zap.Strings("components", seeded))
	}
	e.records = records
	current, _ := e.scheduler.Current(records)
	e.logger.Info("workflow state loaded",
		zap.Int("components", len(records)),
		zap.String("current", current),
	)
	return nil
}

// Registry exposes the catalog the engine was built with.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// CurrentTask returns the component eligible for the next action. ok is false
// once every component is complete.
func (e *Engine) CurrentTask() (string, bool) {
	if e.records == nil {
		return "", false
	}
	return e.scheduler.Current(e.records)
}

// Record returns a copy of one component's record.
func (e *Engine) Record(id string) (workflow.Record, bool) {
	rec, ok := e.records[id]
	if !ok {
		return workflow.Record{}, false
	}
	return rec.Clone(), true
}

// Status returns copies of every record in registration order.
func (e *Engine) Status() []workflow.Record {
	ids := e.registry.IDs()
	out := make([]workflow.Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := e.records[id]; ok {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Plan returns the scheduler's classification of every component.
func (e *Engine) Plan() []scheduler.Decision {
	return e.scheduler.Plan(e.records)
}

// RecordIssue stores the issue reference for the current task.
func (e *Engine) RecordIssue(ref string) (workflow.Record, error) {
	return e.Apply(workflow.ActionRecordIssue, machine.Input{IssueRef: ref})
}

// RecordTestsProvided marks tests as handed over.
func (e *Engine) RecordTestsProvided() (workflow.Record, error) {
	return e.Apply(workflow.ActionRecordTestsProvided, machine.Input{})
}

// ApproveTests accepts the tests; comment may be empty.
func (e *Engine) ApproveTests(comment string) (workflow.Record, error) {
	return e.Apply(workflow.ActionApproveTests, machine.Input{Comment: comment})
}

// RequestTestChanges sends the tests back; comment is mandatory.
func (e *Engine) RequestTestChanges(comment string) (workflow.Record, error) {
	return e.Apply(workflow.ActionRequestTestChanges, machine.Input{Comment: comment})
}

// RecordImplementationProvided marks the implementation as handed over.
func (e *Engine) RecordImplementationProvided() (workflow.Record, error) {
	return e.Apply(workflow.ActionRecordImplementationProvided, machine.Input{})
}

// ApproveImplementation accepts the implementation; comment may be empty.
func (e *Engine) ApproveImplementation(comment string) (workflow.Record, error) {
	return e.Apply(workflow.ActionApproveImplementation, machine.Input{Comment: comment})
}

// RequestImplementationChanges sends the implementation back; comment is
// mandatory.
func (e *Engine) RequestImplementationChanges(comment string) (workflow.Record, error) {
	return e.Apply(workflow.ActionRequestImplementationChanges, machine.Input{Comment: comment})
}

// RecordDocumentationProvided marks documentation as handed over.
func (e *Engine) RecordDocumentationProvided() (workflow.Record, error) {
	return e.Apply(workflow.ActionRecordDocumentationProvided, machine.Input{})
}

// ApproveDocumentation accepts the documentation; comment may be empty.
func (e *Engine) ApproveDocumentation(comment string) (workflow.Record, error) {
	return e.Apply(workflow.ActionApproveDocumentation, machine.Input{Comment: comment})
}

// RecordExamplesProvided marks examples as handed over.
func (e *Engine) RecordExamplesProvided() (workflow.Record, error) {
	return e.Apply(workflow.ActionRecordExamplesProvided, machine.Input{})
}

// ApproveExamples accepts the examples; comment may be empty.
func (e *Engine) ApproveExamples(comment string) (workflow.Record, error) {
	return e.Apply(workflow.ActionApproveExamples, machine.Input{Comment: comment})
}

// Complete closes out the current task.
func (e *Engine) Complete() (workflow.Record, error) {
	return e.Apply(workflow.ActionComplete, machine.Input{})
}

// Apply runs action against the current task and persists the result. On any
// error the in-memory and on-disk state are left as they were.
func (e *Engine) Apply(action workflow.Action, in machine.Input) (workflow.Record, error) {
	id, rec, err := e.current()
	if err != nil {
		return workflow.Record{}, err
	}
	next, err := machine.Apply(rec, action, in, e.now())
	if err != nil {
		e.logger.Warn("action rejected",
			zap.String("component", id),
			zap.String("action", string(action)),
			zap.String("gate", string(rec.Gate)),
			zap.Error(err),
		)
		return rec.Clone(), err
	}
	if err := e.commit(next); err != nil {
		return rec.Clone(), err
	}
	e.logger.Info("transition recorded",
		zap.String("component", id),
		zap.String("action", string(action)),
		zap.String("from", string(rec.Gate)),
		zap.String("to", string(next.Gate)),
	)
	e.emit(Event{
		At:        next.LastUpdated,
		Component: id,
		Action:    action,
		From:      rec.Gate,
		To:        next.Gate,
		Comment:   strings.TrimSpace(in.Comment),
	})
	return next.Clone(), nil
}

// AddNote appends a free-form note to the current task without changing its
// gate.
func (e *Engine) AddNote(text string) (workflow.Record, error) {
	id, rec, err := e.current()
	if err != nil {
		return workflow.Record{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return rec.Clone(), ErrEmptyNote
	}
	next := rec.Clone()
	next.Notes = append(next.Notes, text)
	next.LastUpdated = machine.Stamp(rec.LastUpdated, e.now())
	if err := e.commit(next); err != nil {
		return rec.Clone(), err
	}
	e.logger.Info("note recorded", zap.String("component", id))
	e.emit(Event{At: next.LastUpdated, Component: id, From: rec.Gate, To: next.Gate, Comment: text})
	return next.Clone(), nil
}

func (e *Engine) current() (string, workflow.Record, error) {
	if e.records == nil {
		return "", workflow.Record{}, ErrNotOpened
	}
	id, ok := e.scheduler.Current(e.records)
	if !ok {
		return "", workflow.Record{}, workflow.ErrNoCurrentTask
	}
	return id, e.records[id], nil
}

// commit writes the staged mapping and swaps it in only after the write
// succeeded.
func (e *Engine) commit(next workflow.Record) error {
	staged := make(map[string]workflow.Record, len(e.records))
	for id, rec := range e.records {
		staged[id] = rec
	}
	staged[next.ID] = next
	if err := e.store.Save(staged); err != nil {
		e.logger.Error("persist state failed", zap.String("component", next.ID), zap.Error(err))
		return fmt.Errorf("engine: persist %s: %w", next.ID, err)
	}
	e.records = staged
	return nil
}

func (e *Engine) emit(ev Event) {
	if e.journal == nil {
		return
	}
	e.journal.Record(ev)
}

func (e *Engine) statePath() string {
	if repo, ok := e.store.(*Repository); ok {
		return repo.Path()
	}
	return ""
}

func (e *Engine) now() time.Time {
	if e.clock == nil {
		return time.Now().UTC()
	}
	return e.clock().UTC()
}
