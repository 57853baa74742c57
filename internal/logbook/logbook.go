// Package logbook keeps the human-readable journal of workflow progress that
// the shell's history command reads back.
package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/tddflow/internal/workflow/engine"
)

// FileName is the journal file created inside the log directory.
const FileName = "journal.log"

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logbook persists workflow progress to a simple text file.
type Logbook struct {
	path    string
	session string
	clock   func() time.Time
	mu      sync.Mutex
}

// Option customizes a logbook.
type Option func(*Logbook)

// WithSession overrides the generated session id.
func WithSession(id string) Option {
	return func(l *Logbook) {
		if strings.TrimSpace(id) != "" {
			l.session = strings.TrimSpace(id)
		}
	}
}

// WithClock injects the clock used for entries that carry no timestamp.
func WithClock(clock func() time.Time) Option {
	return func(l *Logbook) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// New creates a logbook that writes to the provided path.
func New(path string, opts ...Option) (*Logbook, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("logbook: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure dir: %w", err)
	}
	l := &Logbook{path: path, session: uuid.NewString(), clock: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Session returns the id stamped on every line this logbook writes.
func (l *Logbook) Session() string {
	if l == nil {
		return ""
	}
	return l.session
}

// Append writes a single entry to the logbook.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	l.write(l.clock(), level, message)
}

// Record implements engine.Journal.
func (l *Logbook) Record(ev engine.Event) {
	if l == nil {
		return
	}
	l.write(ev.At, LevelInfo, FormatEvent(ev))
}

// FormatEvent renders an event as "component action from -> to [comment]".
// Notes have no action and render as "component note: text".
func FormatEvent(ev engine.Event) string {
	if ev.Action == "" {
		return fmt.Sprintf("%s note: %s", ev.Component, ev.Comment)
	}
	line := fmt.Sprintf("%s %s %s -> %s", ev.Component, ev.Action, ev.From, ev.To)
	if ev.Comment != "" {
		line += fmt.Sprintf(" [%s]", ev.Comment)
	}
	return line
}

func (l *Logbook) write(at time.Time, level Level, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if at.IsZero() {
		at = time.Now()
	}
	message = strings.Join(strings.Fields(message), " ")
	line := fmt.Sprintf("%s %-5s %s %s\n",
		at.UTC().Format(time.RFC3339),
		string(level),
		shortSession(l.session),
		message,
	)
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(line)
}

// Tail returns up to maxLines of the most recent log entries along with the
// total number of lines in the file.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	total := len(lines)
	if total == 0 {
		return nil, 0
	}
	if total > maxLines {
		lines = lines[total-maxLines:]
	}
	return lines, total
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}

func shortSession(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var _ engine.Journal = (*Logbook)(nil)
