// Package applist reads and writes applist files, the semicolon-separated
// deployment lists consumed by the deployment scripts, and filters them
// against an installed-application inventory.
package applist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmezou/lappupdate/pkg/logging"
	"github.com/fmezou/lappupdate/pkg/semver"
)

const (
	// Prefix and Ext frame the applist file names: "applist-<name>.txt".
	Prefix = "applist-"
	Ext    = ".txt"

	separator  = ";"
	fieldCount = 5
)

// Record is one applist line.
type Record struct {
	Target         string
	DisplayName    string
	Version        string
	Installer      string
	SilentInstArgs string
}

// String renders the record as an applist line.
func (r Record) String() string {
	return strings.Join([]string{
		r.Target, r.DisplayName, r.Version, r.Installer, r.SilentInstArgs,
	}, separator)
}

// Filename returns the applist file name of a deployment component.
func Filename(component string) string {
	return Prefix + component + Ext
}

// Writer produces one applist file per deployment component. Records added
// for a set land in the file of every component of that set.
type Writer struct {
	dir   string
	sets  map[string][]string
	files map[string]*os.File
}

// NewWriter deletes the stale applist files of dir and creates a fresh,
// headed applist file for every component named in sets.
func NewWriter(dir string, sets map[string][]string) (*Writer, error) {
	if err := cleanup(dir); err != nil {
		return nil, err
	}

	w := &Writer{dir: dir, sets: sets, files: make(map[string]*os.File)}
	now := time.Now().Truncate(time.Second).Format(time.RFC3339)

	for set, components := range sets {
		for _, component := range components {
			component = strings.TrimSpace(component)
			if component == "" {
				logging.Warn("Set contains an empty component name", "set", set)
				continue
			}
			if _, ok := w.files[component]; ok {
				continue
			}
			path := filepath.Join(dir, Filename(component))
			f, err := os.Create(path)
			if err != nil {
				w.Close()
				return nil, fmt.Errorf("failed to create the applist file %s: %w", path, err)
			}
			if _, err := fmt.Fprint(f, header(now, component)); err != nil {
				w.Close()
				return nil, fmt.Errorf("failed to write the applist file %s: %w", path, err)
			}
			w.files[component] = f
		}
	}
	return w, nil
}

// Add appends the record to the applist file of each component of the set.
// An undeclared set is an error: dropping the record silently would make the
// product vanish from every applist file.
func (w *Writer) Add(set string, r Record) error {
	components, ok := w.sets[set]
	if !ok {
		return fmt.Errorf("unknown deployment set %q", set)
	}
	for _, component := range components {
		component = strings.TrimSpace(component)
		f, ok := w.files[component]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintln(f, r.String()); err != nil {
			return fmt.Errorf("failed to write the applist file of %q: %w", component, err)
		}
	}
	return nil
}

// Close closes every applist file.
func (w *Writer) Close() error {
	var firstErr error
	for _, f := range w.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	w.files = make(map[string]*os.File)
	return firstErr
}

// cleanup deletes the obsolete applist files of a directory.
func cleanup(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return fmt.Errorf("failed to list the applist directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() &&
			strings.HasPrefix(name, Prefix) && strings.HasSuffix(name, Ext) {
			logging.Debug("Deleting obsolete applist file", "name", name)
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				return fmt.Errorf("failed to delete the applist file %s: %w", name, err)
			}
		}
	}
	return nil
}

func header(timestamp, component string) string {
	line := "# " + strings.Repeat("-", 78) + "\n"
	return line +
		fmt.Sprintf("# This applist file generated on %s for '%s'.\n", timestamp, component) +
		"# This file is automatically generated, and must not be manually modified.\n" +
		"# Please modify the configuration file instead (lapptrack.yaml by default).\n" +
		line
}

// Parse reads an applist file. Comment and blank lines are skipped; a line
// with the wrong number of fields is an error naming the line.
func Parse(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	for lineno := 1; scanner.Scan(); lineno++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, separator)
		if len(fields) != fieldCount {
			return nil, fmt.Errorf("%s:%d: expected %d fields, got %d",
				path, lineno, fieldCount, len(fields))
		}
		records = append(records, Record{
			Target:         fields[0],
			DisplayName:    fields[1],
			Version:        fields[2],
			Installer:      fields[3],
			SilentInstArgs: fields[4],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}

// Filter keeps the records that need deployment against an installed
// inventory, keyed by display name. A record is kept when its application is
// not installed, when its version is newer than the installed one, or when
// the comparison is unknown (deciding is left to the deployment side).
func Filter(records []Record, installed map[string]string) []Record {
	var kept []Record
	for _, r := range records {
		deployed, ok := installed[r.DisplayName]
		if !ok {
			kept = append(kept, r)
			continue
		}
		switch semver.CompareID(r.Version, deployed) {
		case semver.ResultNewer, semver.ResultUnknown:
			kept = append(kept, r)
		}
	}
	return kept
}
