// internal/config/config.go
//
// This package handles configuration and the .tddflow directory structure.
// Every project driven by tddflow gets a .tddflow/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectDirName is the name of the directory we create in each project
	ProjectDirName = ".tddflow"

	// DefaultStateFile is where workflow records live, relative to the project root.
	DefaultStateFile = ".workflow_status.json"

	defaultLogLevel    = "info"
	defaultTestTimeout = "10m"
)

const defaultProjectConfigYAML = `# tddflow project configuration
version: 1

# Component catalog. Leave empty to use the built-in qtools catalog.
catalog: ""

# Workflow state file, relative to the project root.
state_file: .workflow_status.json

log:
  # debug, info, warn or error
  level: info

# Command used by run-tests. {test} is the component's test artifact and
# {stem} its file name without extension.
test_runner:
  command: [cargo, test, --test, "{stem}"]
  all: [cargo, test]
  timeout: 10m
`

// LogConfig controls the structured log.
type LogConfig struct {
	Level string `yaml:"level"`
}

// TestRunnerConfig describes how run-tests invokes the project's test suite.
type TestRunnerConfig struct {
	Command []string `yaml:"command"`
	All     []string `yaml:"all"`
	Timeout string   `yaml:"timeout"`
}

// ProjectConfig models .tddflow/config.yaml.
type ProjectConfig struct {
	Version    int              `yaml:"version"`
	Catalog    string           `yaml:"catalog"`
	StateFile  string           `yaml:"state_file"`
	Log        LogConfig        `yaml:"log"`
	TestRunner TestRunnerConfig `yaml:"test_runner"`
}

// Overrides carries command-line values that win over the config file.
// Empty fields leave the file value alone. Relative paths are resolved against
// the working directory, unlike paths in config.yaml which are relative to the
// project root.
type Overrides struct {
	Catalog   string
	StateFile string
	LogLevel  string
}

// Config holds the runtime configuration for tddflow.
type Config struct {
	// ProjectDir is the directory the operator is working in
	ProjectDir string

	// FlowDir is ProjectDir/.tddflow
	FlowDir string

	Project ProjectConfig
}

// InitProjectDir creates the .tddflow directory structure in the given project
// directory and writes a default config.yaml when none exists.
//
// Structure created:
// .tddflow/
// ├── config.yaml
// └── logs/         <- structured log and transition journal
func InitProjectDir(projectDir string) error {
	flowDir := filepath.Join(projectDir, ProjectDirName)
	if err := os.MkdirAll(filepath.Join(flowDir, "logs"), 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", flowDir, err)
	}
	return ensureProjectConfig(filepath.Join(flowDir, "config.yaml"))
}

// Load initializes the project directory, reads config.yaml and applies the
// overrides.
func Load(projectDir string, ovr Overrides) (*Config, error) {
	abs, err := filepath.Abs(strings.TrimSpace(projectDir))
	if err != nil {
		return nil, fmt.Errorf("config: resolve project dir: %w", err)
	}
	if err := InitProjectDir(abs); err != nil {
		return nil, err
	}
	cfg := NewConfig(abs)
	if err := cfg.loadProjectConfig(ovr); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewConfig returns a config with defaults for projectDir without touching disk.
func NewConfig(projectDir string) *Config {
	cfg := &Config{
		ProjectDir: projectDir,
		FlowDir:    filepath.Join(projectDir, ProjectDirName),
		Project:    defaultProjectConfig(),
	}
	cfg.Project.normalize(projectDir)
	return cfg
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.FlowDir, "logs")
}

// JournalPath returns the transition journal file.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journal.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.FlowDir, "config.yaml")
}

// StatePath returns the resolved workflow state file.
func (c *Config) StatePath() string {
	return c.Project.StateFile
}

// CatalogPath returns the resolved catalog file, or "" for the built-in one.
func (c *Config) CatalogPath() string {
	return c.Project.Catalog
}

// LogLevel returns the configured structured log level.
func (c *Config) LogLevel() string {
	return c.Project.Log.Level
}

// TestTimeout returns the per-run limit for run-tests.
func (c *Config) TestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Project.TestRunner.Timeout)
	if err != nil {
		return 0
	}
	return d
}

func (c *Config) loadProjectConfig(ovr Overrides) error {
	path := c.ProjectConfigPath()
	parsed := defaultProjectConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		parsed = ProjectConfig{}
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed.applyOverrides(ovr)
	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:   1,
		StateFile: DefaultStateFile,
		Log:       LogConfig{Level: defaultLogLevel},
		TestRunner: TestRunnerConfig{
			Command: []string{"cargo", "test", "--test", "{stem}"},
			All:     []string{"cargo", "test"},
			Timeout: defaultTestTimeout,
		},
	}
}

func (pc *ProjectConfig) applyOverrides(ovr Overrides) {
	if v := strings.TrimSpace(ovr.Catalog); v != "" {
		pc.Catalog = absFromWorkingDir(v)
	}
	if v := strings.TrimSpace(ovr.StateFile); v != "" {
		pc.StateFile = absFromWorkingDir(v)
	}
	if v := strings.TrimSpace(ovr.LogLevel); v != "" {
		pc.Log.Level = v
	}
}

func (pc *ProjectConfig) applyDefaults() {
	defaults := defaultProjectConfig()
	if pc.Version == 0 {
		pc.Version = defaults.Version
	}
	if strings.TrimSpace(pc.StateFile) == "" {
		pc.StateFile = defaults.StateFile
	}
	if strings.TrimSpace(pc.Log.Level) == "" {
		pc.Log.Level = defaults.Log.Level
	}
	if len(pc.TestRunner.Command) == 0 {
		pc.TestRunner.Command = defaults.TestRunner.Command
	}
	if len(pc.TestRunner.All) == 0 {
		pc.TestRunner.All = defaults.TestRunner.All
	}
	if strings.TrimSpace(pc.TestRunner.Timeout) == "" {
		pc.TestRunner.Timeout = defaults.TestRunner.Timeout
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Catalog = resolvePath(base, pc.Catalog)
	pc.StateFile = resolvePath(base, pc.StateFile)
	pc.Log.Level = strings.ToLower(strings.TrimSpace(pc.Log.Level))
	pc.TestRunner.Command = trimArgs(pc.TestRunner.Command)
	pc.TestRunner.All = trimArgs(pc.TestRunner.All)
	pc.TestRunner.Timeout = strings.TrimSpace(pc.TestRunner.Timeout)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.StateFile == "" {
		return fmt.Errorf("state_file is required")
	}
	switch pc.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	if len(pc.TestRunner.Command) == 0 {
		return fmt.Errorf("test_runner.command is required")
	}
	if len(pc.TestRunner.All) == 0 {
		return fmt.Errorf("test_runner.all is required")
	}
	d, err := time.ParseDuration(pc.TestRunner.Timeout)
	if err != nil {
		return fmt.Errorf("test_runner.timeout: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("test_runner.timeout must not be negative")
	}
	return nil
}

func trimArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if arg = strings.TrimSpace(arg); arg != "" {
			out = append(out, arg)
		}
	}
	return out
}

func absFromWorkingDir(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
