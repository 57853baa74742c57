package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProjectConfig(t *testing.T, projectDir, body string) {
	t.Helper()
	flowDir := filepath.Join(projectDir, ProjectDirName)
	require.NoError(t, os.MkdirAll(flowDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(flowDir, "config.yaml"), []byte(strings.TrimSpace(body)), 0o644))
}

func TestLoadCreatesDirectoryAndDefaults(t *testing.T) {
	projectDir := t.TempDir()
	cfg, err := Load(projectDir, Overrides{})
	require.NoError(t, err)

	assert.DirExists(t, cfg.LogsDir())
	assert.FileExists(t, cfg.ProjectConfigPath())
	assert.Equal(t, filepath.Join(projectDir, DefaultStateFile), cfg.StatePath())
	assert.Equal(t, "", cfg.CatalogPath())
	assert.Equal(t, "info", cfg.LogLevel())
	assert.Equal(t, []string{"cargo", "test", "--test", "{stem}"}, cfg.Project.TestRunner.Command)
	assert.Equal(t, []string{"cargo", "test"}, cfg.Project.TestRunner.All)
	assert.Equal(t, 10*time.Minute, cfg.TestTimeout())
	assert.Equal(t, filepath.Join(projectDir, ProjectDirName, "logs", "journal.log"), cfg.JournalPath())
}

func TestDefaultConfigFileMatchesBuiltInDefaults(t *testing.T) {
	projectDir := t.TempDir()
	require.NoError(t, InitProjectDir(projectDir))
	cfg := NewConfig(projectDir)
	require.NoError(t, cfg.loadProjectConfig(Overrides{}))
	assert.Equal(t, NewConfig(projectDir).Project, cfg.Project)
}

func TestInitProjectDirKeepsExistingConfig(t *testing.T) {
	projectDir := t.TempDir()
	writeProjectConfig(t, projectDir, "version: 1\nstate_file: custom.json\n")
	require.NoError(t, InitProjectDir(projectDir))
	data, err := os.ReadFile(filepath.Join(projectDir, ProjectDirName, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "custom.json")
}

func TestLoadParsesYAMLAndResolvesPaths(t *testing.T) {
	projectDir := t.TempDir()
	writeProjectConfig(t, projectDir, `
version: 1
catalog: catalogs/qtools.yaml
state_file: state/status.json
log:
  level: DEBUG
test_runner:
  command: [go, test, "./{stem}"]
  all: [go, test, ./...]
  timeout: 30s
`)
	cfg, err := Load(projectDir, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(projectDir, "catalogs", "qtools.yaml"), cfg.CatalogPath())
	assert.Equal(t, filepath.Join(projectDir, "state", "status.json"), cfg.StatePath())
	assert.Equal(t, "debug", cfg.LogLevel())
	assert.Equal(t, []string{"go", "test", "./{stem}"}, cfg.Project.TestRunner.Command)
	assert.Equal(t, 30*time.Second, cfg.TestTimeout())
}

func TestOverridesWinOverFile(t *testing.T) {
	projectDir := t.TempDir()
	writeProjectConfig(t, projectDir, "version: 1\nstate_file: a.json\nlog:\n  level: warn\n")
	abs := filepath.Join(t.TempDir(), "b.json")
	cfg, err := Load(projectDir, Overrides{StateFile: abs, Catalog: "c.yaml", LogLevel: "error"})
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.StatePath())
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "c.yaml"), cfg.CatalogPath())
	assert.Equal(t, "error", cfg.LogLevel())
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"bad level":   "log:\n  level: loud\n",
		"bad timeout": "test_runner:\n  timeout: soon\n",
		"negative":    "test_runner:\n  timeout: -1s\n",
		"version":     "version: -2\n",
		"bad yaml":    "log: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			projectDir := t.TempDir()
			writeProjectConfig(t, projectDir, body)
			_, err := Load(projectDir, Overrides{})
			require.Error(t, err)
		})
	}
}

func TestRelativeOverridesResolveAgainstWorkingDir(t *testing.T) {
	projectDir := t.TempDir()
	workDir := t.TempDir()
	writeProjectConfig(t, projectDir, "version: 1\nstate_file: in-project.json\n")
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(workDir))
	t.Cleanup(func() { _ = os.Chdir(prev) })

	cfg, err := Load(projectDir, Overrides{StateFile: filepath.Join("state", "flow.json")})
	require.NoError(t, err)
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "state", "flow.json"), cfg.StatePath())

	fromFile, err := Load(projectDir, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(projectDir, "in-project.json"), fromFile.StatePath())
}
