package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/tddflow/internal/instructions"
	"github.com/kingrea/tddflow/internal/testrunner"
	"github.com/kingrea/tddflow/internal/workflow"
	"github.com/kingrea/tddflow/internal/workflow/engine"
	"github.com/kingrea/tddflow/internal/workflow/scheduler"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	bulletStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	depStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

var statusStyles = map[scheduler.Status]lipgloss.Style{
	scheduler.StatusCompleted: successStyle,
	scheduler.StatusCurrent:   titleStyle,
	scheduler.StatusReady:     bulletStyle,
	scheduler.StatusBlocked:   mutedStyle,
}

func bullet(text string) string {
	return fmt.Sprintf("%s %s", bulletStyle.Render("•"), text)
}

// RenderDescriptor renders the guidance for the component described by d.
func RenderDescriptor(d engine.Descriptor) string {
	var b strings.Builder
	in, ok := instructions.For(d.Step)
	title := string(d.Step)
	if ok {
		title = in.Title
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(bullet("Component: " + d.ID))
	b.WriteString("\n")
	if d.Description != "" {
		b.WriteString(bullet("Description: " + d.Description))
		b.WriteString("\n")
	}
	b.WriteString(bullet(fmt.Sprintf("Gate: %s", d.Gate)))
	b.WriteString("\n")
	if d.IssueRef != "" {
		b.WriteString(bullet("Issue: " + d.IssueRef))
		b.WriteString("\n")
	}
	if d.TestArtifact != "" {
		b.WriteString(bullet("Tests: " + d.TestArtifact))
		b.WriteString("\n")
	}
	if d.ExampleArtifact != "" {
		b.WriteString(bullet("Example: " + d.ExampleArtifact))
		b.WriteString("\n")
	}
	if ok && len(in.Steps) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Steps"))
		b.WriteString("\n")
		for _, step := range in.Steps {
			b.WriteString(bullet(step))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Dependencies"))
	b.WriteString("\n")
	if len(d.Dependencies) == 0 {
		b.WriteString("  " + depStyle.Render("None"))
		b.WriteString("\n")
	}
	for _, dep := range d.Dependencies {
		b.WriteString(fmt.Sprintf("  %s %s\n", depStyle.Render("•"), dep))
	}
	if ok && in.Hint != "" {
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("Next: " + in.Hint))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderStatus renders one line per component in registration order, followed
// by its last update and the latest entry of every non-empty log.
func RenderStatus(plan []scheduler.Decision, records []workflow.Record) string {
	byID := make(map[string]workflow.Record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	width := 0
	for _, d := range plan {
		width = max(width, len(d.ID))
	}
	lines := []string{headerStyle.Render("Workflow status")}
	for _, d := range plan {
		style, ok := statusStyles[d.Status]
		if !ok {
			style = mutedStyle
		}
		line := fmt.Sprintf("%-*s  %-24s %s", width, d.ID, d.Gate, style.Render(string(d.Status)))
		rec, ok := byID[d.ID]
		if ok && rec.Issue() != "" {
			line += mutedStyle.Render(" issue " + rec.Issue())
		}
		if len(d.BlockedBy) > 0 {
			line += mutedStyle.Render(" waiting on " + strings.Join(d.BlockedBy, ", "))
		}
		lines = append(lines, line)
		if ok {
			lines = append(lines, recordDetails(rec)...)
		}
	}
	return strings.Join(lines, "\n")
}

func recordDetails(rec workflow.Record) []string {
	details := []string{mutedStyle.Render("    Last Updated: " + rec.LastUpdated.UTC().Format(time.RFC3339))}
	latest := []struct {
		label string
		log   []string
	}{
		{"Latest Note", rec.Notes},
		{"Latest Test Review", rec.TestReviewLog},
		{"Latest Implementation Review", rec.ImplementationReviewLog},
		{"Latest Documentation Review", rec.DocumentationReviewLog},
		{"Latest Examples Review", rec.ExamplesReviewLog},
	}
	for _, entry := range latest {
		if len(entry.log) == 0 {
			continue
		}
		details = append(details, fmt.Sprintf("    %s %s", mutedStyle.Render(entry.label+":"), entry.log[len(entry.log)-1]))
	}
	return details
}

// RenderResult renders a finished test run, keeping only the tail of long
// output.
func RenderResult(res testrunner.Result, maxLines int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Test Results"))
	b.WriteString("\n")
	if out := tailLines(res.Stdout, maxLines); out != "" {
		b.WriteString(out)
		b.WriteString("\n")
	}
	if errOut := tailLines(res.Stderr, maxLines); errOut != "" {
		b.WriteString(warnStyle.Render(errOut))
		b.WriteString("\n")
	}
	if res.Passed {
		b.WriteString(successStyle.Render(res.Summary()))
	} else {
		b.WriteString(errorStyle.Render(res.Summary()))
	}
	return b.String()
}

func renderHelp() string {
	lines := []string{titleStyle.Render("Commands")}
	for _, c := range commandList {
		usage := c.name
		if c.usage != "" {
			usage += " " + c.usage
		}
		lines = append(lines, fmt.Sprintf("  %-40s %s", usage, mutedStyle.Render(c.help)))
	}
	return strings.Join(lines, "\n")
}

func tailLines(text string, maxLines int) string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		skipped := len(lines) - maxLines
		lines = append([]string{mutedStyle.Render(fmt.Sprintf("... %d lines omitted", skipped))}, lines[skipped:]...)
	}
	return strings.Join(lines, "\n")
}
