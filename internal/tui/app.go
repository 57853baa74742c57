// internal/tui/app.go
//
// This is the interactive shell for tddflow. It uses bubbletea, which follows
// The Elm Architecture:
//
// 1. Model: the engine plus the scrollback and prompt
// 2. Update: one submitted line runs one command
// 3. View: header, scrollback viewport, prompt
//
// The engine is only touched from Update, so it never sees concurrent calls.
// Test runs happen in a tea.Cmd and report back with testsFinishedMsg.

package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kingrea/tddflow/internal/testrunner"
	"github.com/kingrea/tddflow/internal/workflow"
	"github.com/kingrea/tddflow/internal/workflow/engine"
)

const (
	defaultPlaceholder = "command (help for a list, enter for next)"
	defaultHistory     = 20
	resultTailLines    = 40
	maxScrollback      = 2000
)

// TestRunner runs a component's tests.
type TestRunner interface {
	Run(ctx context.Context, testArtifact string) (testrunner.Result, error)
}

// History returns the most recent journal lines and the total line count.
type History interface {
	Tail(maxLines int) ([]string, int)
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithRunner sets the test runner used by run-tests.
func WithRunner(runner TestRunner) AppOption {
	return func(a *App) {
		a.runner = runner
	}
}

// WithHistory sets the journal read by the history command.
func WithHistory(history History) AppOption {
	return func(a *App) {
		a.history = history
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) AppOption {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithContext sets the parent context for test runs. Quitting cancels it.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.parent = ctx
		}
	}
}

type testsFinishedMsg struct {
	component string
	result    testrunner.Result
	err       error
}

// App is the shell model. In bubbletea, this holds ALL the state.
type App struct {
	engine  *engine.Engine
	runner  TestRunner
	history History
	logger  *zap.Logger

	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc

	input   textinput.Model
	output  viewport.Model
	lines   []string
	pending *pendingPrompt
	running bool
	done    bool

	width  int
	height int
}

// NewApp creates a shell over an opened engine.
func NewApp(eng *engine.Engine, opts ...AppOption) (*App, error) {
	if eng == nil {
		return nil, fmt.Errorf("tui: engine is required")
	}
	a := &App{
		engine: eng,
		logger: zap.NewNop(),
		parent: context.Background(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ctx, a.cancel = context.WithCancel(a.parent)

	a.input = textinput.New()
	a.input.Prompt = promptStyle.Render("tdd>") + " "
	a.input.Placeholder = defaultPlaceholder
	a.input.CharLimit = 512
	a.input.Focus()
	a.output = viewport.New(100, 20)

	a.print(headerStyle.Render("⬡ TDDFLOW") + mutedStyle.Render(fmt.Sprintf("  %d components", eng.Registry().Len())))
	a.showNext("")
	return a, nil
}

// Init starts the cursor blinking.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.output.Width = max(20, msg.Width)
		a.output.Height = max(3, msg.Height-4)
		a.input.Width = max(10, msg.Width-8)
		a.refresh()
		return a, nil

	case testsFinishedMsg:
		a.running = false
		a.handleTestsFinished(msg)
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			return a, a.quit("")
		case "enter":
			line := a.input.Value()
			a.input.SetValue("")
			return a, a.execute(line)
		case "pgup", "pgdown", "ctrl+u":
			var cmd tea.Cmd
			a.output, cmd = a.output.Update(msg)
			return a, cmd
		case "esc":
			if a.pending != nil {
				a.pending = nil
				a.input.Placeholder = defaultPlaceholder
				a.print(mutedStyle.Render("cancelled"))
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// View renders the header, scrollback and prompt.
func (a *App) View() string {
	if a.done {
		return ""
	}
	status := mutedStyle.Render("all components completed")
	if id, ok := a.engine.CurrentTask(); ok {
		rec, _ := a.engine.Record(id)
		status = titleStyle.Render(id) + mutedStyle.Render(" · "+string(rec.Gate))
	}
	if a.running {
		status += warnStyle.Render(" · running tests")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, headerStyle.Render("⬡ TDDFLOW "), status)
	prompt := a.input.View()
	if a.pending != nil {
		prompt = promptStyle.Render(a.pending.label) + " " + a.input.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, a.output.View(), prompt)
}

// Output returns the plain scrollback, mostly for tests.
func (a *App) Output() string {
	return strings.Join(a.lines, "\n")
}

func (a *App) print(text string) {
	a.lines = append(a.lines, strings.Split(text, "\n")...)
	if len(a.lines) > maxScrollback {
		a.lines = a.lines[len(a.lines)-maxScrollback:]
	}
	a.refresh()
}

func (a *App) echo(text string) {
	a.print("")
	a.print(text)
}

func (a *App) refresh() {
	a.output.SetContent(strings.Join(a.lines, "\n"))
	a.output.GotoBottom()
}

func (a *App) showNext(string) tea.Cmd {
	desc, err := a.engine.NextAction()
	if err != nil {
		a.reportError(err)
		return nil
	}
	a.print(boxStyle.Render(RenderDescriptor(desc)))
	return nil
}

func (a *App) showStatus(string) tea.Cmd {
	a.print(RenderStatus(a.engine.Plan(), a.engine.Status()))
	return nil
}

func (a *App) showHelp(string) tea.Cmd {
	a.print(renderHelp())
	return nil
}

func (a *App) showHistory(arg string) tea.Cmd {
	if a.history == nil {
		a.print(mutedStyle.Render("no journal configured"))
		return nil
	}
	n := defaultHistory
	if arg != "" {
		parsed, err := strconv.Atoi(arg)
		if err != nil || parsed <= 0 {
			a.print(warnStyle.Render("history takes a positive line count"))
			return nil
		}
		n = parsed
	}
	lines, total := a.history.Tail(n)
	if total == 0 {
		a.print(mutedStyle.Render("journal is empty"))
		return nil
	}
	a.print(titleStyle.Render(fmt.Sprintf("History (%d of %d)", len(lines), total)))
	a.print(strings.Join(lines, "\n"))
	return nil
}

func (a *App) addNote(text string) tea.Cmd {
	rec, err := a.engine.AddNote(text)
	if err != nil {
		a.reportError(err)
		return nil
	}
	a.print(successStyle.Render(fmt.Sprintf("note added to %s (%d notes)", rec.ID, len(rec.Notes))))
	return nil
}

func (a *App) runTests(arg string) tea.Cmd {
	if a.runner == nil {
		a.print(warnStyle.Render("no test runner configured"))
		return nil
	}
	if a.running {
		a.print(warnStyle.Render("tests are already running"))
		return nil
	}
	artifact := arg
	component := ""
	if desc, err := a.engine.NextAction(); err == nil {
		component = desc.ID
		if artifact == "" {
			artifact = desc.TestArtifact
		}
	}
	a.running = true
	runner, ctx := a.runner, a.ctx
	target := artifact
	if target == "" {
		target = "all tests"
	}
	a.print(mutedStyle.Render("running " + target + "..."))
	a.logger.Info("running tests", zap.String("component", component), zap.String("artifact", artifact))
	return func() tea.Msg {
		res, err := runner.Run(ctx, artifact)
		return testsFinishedMsg{component: component, result: res, err: err}
	}
}

func (a *App) handleTestsFinished(msg testsFinishedMsg) {
	if msg.err != nil {
		a.logger.Warn("test run failed", zap.String("component", msg.component), zap.Error(msg.err))
		a.print(errorStyle.Render(msg.err.Error()))
		return
	}
	a.logger.Info("tests finished",
		zap.String("component", msg.component),
		zap.Bool("passed", msg.result.Passed),
		zap.Int("exit_code", msg.result.ExitCode),
		zap.Duration("duration", msg.result.Duration),
	)
	a.print(RenderResult(msg.result, resultTailLines))
	if msg.result.Passed {
		return
	}
	if desc, err := a.engine.NextAction(); err == nil && desc.Gate == workflow.GateImplementationProvided {
		a.print(hintStyle.Render("send the implementation back with request-implementation-changes <comment>"))
	}
}

func (a *App) quit(string) tea.Cmd {
	a.done = true
	a.pending = nil
	if a.cancel != nil {
		a.cancel()
	}
	return tea.Quit
}
