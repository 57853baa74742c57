package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/tddflow/internal/workflow"
	"github.com/kingrea/tddflow/internal/workflow/machine"
)

type argKind int

const (
	argNone argKind = iota
	argComment
	argIssueRef
	argNote
)

type command struct {
	name    string
	usage   string
	help    string
	action  workflow.Action
	arg     argKind
	builtin bool
}

var commandList = []command{
	{name: "next", help: "show the current task and what to do", builtin: true},
	{name: "status", help: "show every component and its gate", builtin: true},
	{name: "issue", usage: "<ref>", help: "record the issue for the current task", action: workflow.ActionRecordIssue, arg: argIssueRef},
	{name: "tests-received", help: "record that tests were provided", action: workflow.ActionRecordTestsProvided},
	{name: "run-tests", help: "run the current task's tests", builtin: true},
	{name: "approve-tests", usage: "[comment]", help: "approve the tests", action: workflow.ActionApproveTests, arg: argComment},
	{name: "request-test-changes", usage: "<comment>", help: "send the tests back", action: workflow.ActionRequestTestChanges, arg: argComment},
	{name: "implementation-received", help: "record that the implementation was provided", action: workflow.ActionRecordImplementationProvided},
	{name: "approve-implementation", usage: "[comment]", help: "approve the implementation", action: workflow.ActionApproveImplementation, arg: argComment},
	{name: "request-implementation-changes", usage: "<comment>", help: "send the implementation back", action: workflow.ActionRequestImplementationChanges, arg: argComment},
	{name: "docs-received", help: "record that documentation was provided", action: workflow.ActionRecordDocumentationProvided},
	{name: "approve-docs", usage: "[comment]", help: "approve the documentation", action: workflow.ActionApproveDocumentation, arg: argComment},
	{name: "examples-received", help: "record that examples were provided", action: workflow.ActionRecordExamplesProvided},
	{name: "approve-examples", usage: "[comment]", help: "approve the examples", action: workflow.ActionApproveExamples, arg: argComment},
	{name: "complete", help: "mark the current task completed", action: workflow.ActionComplete},
	{name: "note", usage: "<text>", help: "attach a note to the current task", arg: argNote, builtin: true},
	{name: "history", usage: "[n]", help: "show recent journal entries", builtin: true},
	{name: "help", help: "list commands", builtin: true},
	{name: "quit", help: "leave the shell", builtin: true},
	{name: "exit", help: "leave the shell", builtin: true},
}

var commandIndex = func() map[string]command {
	idx := make(map[string]command, len(commandList))
	for _, c := range commandList {
		idx[c.name] = c
	}
	return idx
}()

// pendingPrompt remembers a command waiting for its missing argument.
type pendingPrompt struct {
	cmd   command
	label string
}

// execute handles one submitted line.
func (a *App) execute(line string) tea.Cmd {
	line = strings.TrimSpace(line)
	if a.pending != nil {
		p := a.pending
		a.pending = nil
		a.echo(promptStyle.Render(p.label) + " " + line)
		return a.dispatch(p.cmd, line, false)
	}
	a.echo(promptStyle.Render("tdd>") + " " + line)
	if line == "" {
		return a.showNext("")
	}
	name, rest, _ := strings.Cut(line, " ")
	c, ok := commandIndex[strings.ToLower(name)]
	if !ok {
		a.print(errorStyle.Render(fmt.Sprintf("unknown command %q, type help", name)))
		return nil
	}
	return a.dispatch(c, strings.TrimSpace(rest), true)
}

// dispatch runs c. When allowPrompt is set and a mandatory argument is
// missing, the shell asks for it instead of failing.
func (a *App) dispatch(c command, arg string, allowPrompt bool) tea.Cmd {
	if allowPrompt && arg == "" {
		if label, ok := a.promptFor(c); ok {
			a.pending = &pendingPrompt{cmd: c, label: label}
			a.input.Placeholder = label
			return nil
		}
	}
	a.input.Placeholder = defaultPlaceholder
	if c.builtin {
		return a.runBuiltin(c.name, arg)
	}
	in := machine.Input{}
	switch c.arg {
	case argIssueRef:
		in.IssueRef = arg
	case argComment:
		in.Comment = arg
	}
	rec, err := a.engine.Apply(c.action, in)
	if err != nil {
		a.reportError(err)
		return nil
	}
	a.print(successStyle.Render(fmt.Sprintf("%s: %s -> %s", rec.ID, c.action, rec.Gate)))
	switch c.action {
	case workflow.ActionRecordTestsProvided, workflow.ActionRecordImplementationProvided:
		if a.runner != nil {
			a.print(hintStyle.Render("type run-tests to run them now"))
		}
	}
	return a.showNext("")
}

// promptFor returns the prompt label for a missing mandatory argument. Actions
// that are illegal at the current gate never prompt; the engine rejects them.
func (a *App) promptFor(c command) (string, bool) {
	if c.arg == argNote {
		return "Note:", true
	}
	if c.arg == argNone || c.builtin {
		return "", false
	}
	desc, err := a.engine.NextAction()
	if err != nil {
		return "", false
	}
	tr, ok := machine.Lookup(desc.Gate, c.action)
	if !ok {
		return "", false
	}
	switch {
	case c.arg == argIssueRef:
		return "Issue reference:", true
	case tr.Comment == machine.CommentRequired:
		return "Comment (required):", true
	}
	return "", false
}

func (a *App) reportError(err error) {
	var illegal *workflow.IllegalTransitionError
	switch {
	case errors.As(err, &illegal):
		msg := fmt.Sprintf("%s is not allowed at %s", illegal.Action, illegal.Gate)
		if legal := machine.Legal(illegal.Gate); len(legal) > 0 {
			names := make([]string, 0, len(legal))
			for _, act := range legal {
				names = append(names, commandFor(act))
			}
			msg += "; try " + strings.Join(names, " or ")
		}
		a.print(warnStyle.Render(msg))
	case errors.Is(err, workflow.ErrMissingComment):
		a.print(warnStyle.Render("a comment is required; nothing changed"))
	case errors.Is(err, workflow.ErrMissingIssueRef):
		a.print(warnStyle.Render("an issue reference is required; nothing changed"))
	case errors.Is(err, workflow.ErrNoCurrentTask):
		a.print(successStyle.Render("All components completed."))
	default:
		a.print(errorStyle.Render(err.Error()))
	}
}

func (a *App) runBuiltin(name, arg string) tea.Cmd {
	switch name {
	case "next":
		return a.showNext(arg)
	case "status":
		return a.showStatus(arg)
	case "run-tests":
		return a.runTests(arg)
	case "note":
		return a.addNote(arg)
	case "history":
		return a.showHistory(arg)
	case "help":
		return a.showHelp(arg)
	case "quit", "exit":
		return a.quit(arg)
	}
	return nil
}

func commandFor(action workflow.Action) string {
	for _, c := range commandList {
		if c.action == action {
			return c.name
		}
	}
	return string(action)
}
