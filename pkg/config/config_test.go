package config_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmezou/lappupdate/pkg/config"
)

const sampleConfig = `
core:
  store: %q
  log_level: info
  pulling_report:
    stream: stdout
applications:
  dummy: true
  makemkv: false
sets:
  __all__: [appstore, dev]
  front: [appstore]
apps:
  dummy:
    set: front
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	store := t.TempDir()
	path := writeConfig(t, sprintfConfig(store))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, store, cfg.Core.Store)
	assert.Equal(t, "info", cfg.Core.LogLevel)
	assert.Equal(t, "stdout", cfg.Core.PullingReport.Stream)
	assert.True(t, cfg.Applications["dummy"])
	assert.False(t, cfg.Applications["makemkv"])
}

func TestLoadFillsDefaults(t *testing.T) {
	store := t.TempDir()
	cfg, err := config.Load(writeConfig(t, sprintfConfig(store)))
	require.NoError(t, err)

	// The dummy application declares only its set; the handler and the path
	// come from the defaults.
	dummy := cfg.Apps["dummy"]
	assert.Equal(t, "cots.dummy.DummyHandler", dummy.Handler)
	assert.Equal(t, filepath.Join(store, "dummy"), dummy.Path)
	assert.Equal(t, "front", dummy.Set)

	// The makemkv application declares nothing at all.
	makemkv := cfg.Apps["makemkv"]
	assert.Equal(t, "cots.makemkv.MakemkvHandler", makemkv.Handler)
	assert.Equal(t, config.DefaultSet, makemkv.Set)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformed(t *testing.T) {
	_, err := config.Load(writeConfig(t, "core: [not, a, mapping"))
	assert.Error(t, err)
}

// TestValidateCollectsErrors checks that a broken configuration reports all
// its errors in one pass, the way --testconf needs it.
func TestValidateCollectsErrors(t *testing.T) {
	cfg := &config.Configuration{
		Applications: map[string]bool{"dummy": true},
		Sets:         map[string][]string{"empty": {}, "blank": {" "}},
		Apps: map[string]config.AppSettings{
			"dummy": {Set: "undeclared"},
		},
	}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "store")
	assert.Contains(t, msg, "undeclared")
	assert.Contains(t, msg, `"empty"`)
	assert.Contains(t, msg, `"blank"`)
}

// TestValidateDefaultSetMustBeDeclared checks that an application falling
// back to the default set is rejected when that set is not declared, instead
// of its products silently missing from every applist file later on.
func TestValidateDefaultSetMustBeDeclared(t *testing.T) {
	cfg := &config.Configuration{
		Applications: map[string]bool{"dummy": true},
		Sets:         map[string][]string{"front": {"appstore"}},
	}
	cfg.Core.Store = t.TempDir()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.DefaultSet)
	assert.Contains(t, err.Error(), `"dummy"`)
}

func TestDefaultHandlerName(t *testing.T) {
	assert.Equal(t, "cots.firefoxwin.FirefoxwinHandler",
		config.DefaultHandlerName("firefoxwin"))
}

func TestPaths(t *testing.T) {
	cfg := &config.Configuration{}
	cfg.Core.Store = filepath.Join("var", "store")
	assert.Equal(t, filepath.Join("var", "store", "catalog.json"), cfg.CatalogPath())
	assert.Equal(t, filepath.Join("var", "store", "logs"), cfg.LogDir())
}

func sprintfConfig(store string) string {
	return fmt.Sprintf(sampleConfig, store)
}
