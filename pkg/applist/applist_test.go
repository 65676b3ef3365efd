package applist_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmezou/lappupdate/pkg/applist"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

var sample = applist.Record{
	Target:         "unified",
	DisplayName:    "Dummy Product v1.0.1",
	Version:        "1.0.1",
	Installer:      `store\dummy\dummy_v1.0.1_unified.exe`,
	SilentInstArgs: "/S",
}

func TestRecordString(t *testing.T) {
	assert.Equal(t,
		`unified;Dummy Product v1.0.1;1.0.1;store\dummy\dummy_v1.0.1_unified.exe;/S`,
		sample.String())
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "applist-appstore.txt", applist.Filename("appstore"))
}

func TestWriter(t *testing.T) {
	dir := t.TempDir()
	sets := map[string][]string{
		"__all__": {"appstore", "dev"},
		"front":   {"appstore"},
	}

	w, err := applist.NewWriter(dir, sets)
	require.NoError(t, err)

	require.NoError(t, w.Add("__all__", sample))
	other := sample
	other.DisplayName = "Other Product v2.0.0"
	require.NoError(t, w.Add("front", other))
	require.NoError(t, w.Close())

	// A record added for a set lands in the file of every component of the
	// set, and only there.
	appstore := readFile(t, filepath.Join(dir, applist.Filename("appstore")))
	assert.Contains(t, appstore, sample.String())
	assert.Contains(t, appstore, other.String())

	dev := readFile(t, filepath.Join(dir, applist.Filename("dev")))
	assert.Contains(t, dev, sample.String())
	assert.NotContains(t, dev, other.String())

	assert.True(t, strings.HasPrefix(appstore, "# "), "applist files start with a header")
}

func TestAddUnknownSet(t *testing.T) {
	dir := t.TempDir()
	w, err := applist.NewWriter(dir, map[string][]string{"front": {"appstore"}})
	require.NoError(t, err)
	defer w.Close()

	err = w.Add("__all__", sample)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "__all__")

	// The known set still works on the same writer.
	require.NoError(t, w.Add("front", sample))
}

func TestWriterCleansStaleFiles(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, applist.Filename("gone"))
	require.NoError(t, os.WriteFile(stale, []byte("old content"), 0o644))
	unrelated := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0o644))

	w, err := applist.NewWriter(dir, map[string][]string{"__all__": {"appstore"}})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale applist files are deleted")
	_, err = os.Stat(unrelated)
	assert.NoError(t, err, "unrelated files are kept")
}

func TestWriterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	w, err := applist.NewWriter(dir, map[string][]string{"__all__": {"appstore"}})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(dir, applist.Filename("appstore")))
	assert.NoError(t, err)
}

func TestParse(t *testing.T) {
	dir := t.TempDir()
	w, err := applist.NewWriter(dir, map[string][]string{"__all__": {"appstore"}})
	require.NoError(t, err)
	require.NoError(t, w.Add("__all__", sample))
	require.NoError(t, w.Close())

	records, err := applist.Parse(filepath.Join(dir, applist.Filename("appstore")))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, sample, records[0])
}

func TestParseMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), applist.Filename("appstore"))
	content := "# comment\n\nunified;too;few\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := applist.Parse(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":3:")
}

func TestFilter(t *testing.T) {
	records := []applist.Record{
		{DisplayName: "Alpha", Version: "2.0.0"},
		{DisplayName: "Beta", Version: "1.0.0"},
		{DisplayName: "Gamma", Version: "1.0.0"},
		{DisplayName: "Delta", Version: "weird"},
	}
	installed := map[string]string{
		"Alpha": "1.0.0", // older than the record: kept
		"Beta":  "1.0.0", // same version: dropped
		"Delta": "1.0.0", // comparison unknown: kept
	}

	kept := applist.Filter(records, installed)
	names := make([]string, 0, len(kept))
	for _, r := range kept {
		names = append(names, r.DisplayName)
	}
	assert.Equal(t, []string{"Alpha", "Gamma", "Delta"}, names)
}
