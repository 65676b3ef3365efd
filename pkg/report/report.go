// Package report accumulates per-product sections during an operation and
// publishes them as a rendered text report to a file, a stream, or both.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/fmezou/lappupdate/pkg/logging"
)

// Config describes where and how a report is published. The zero value
// publishes nowhere, so an unconfigured report is a no-op.
type Config struct {
	Template string `yaml:"template"` // template file; empty uses the built-in one
	File     string `yaml:"file"`     // append the rendered report to this file
	MaxSize  int64  `yaml:"max_size"` // rotate File above this size, in bytes
	Stream   string `yaml:"stream"`   // "stdout" or "stderr"
}

// defaultTemplate renders a plain text report: a header, one block per
// section, and a tail.
const defaultTemplate = `{{define "report" -}}
================================================================================
{{.Title}} report - {{.Date}}
{{len .Sections}} product(s)
================================================================================
{{range .Sections}}
{{.Name}} {{.Version}}
  published: {{.Published}}
  installer: {{if .Installer}}{{.Installer}}{{else}}{{.Location}}{{end}}
{{end -}}
================================================================================
{{end}}`

// Section is the per-product payload of a report entry.
type Section struct {
	Name      string
	Version   string
	Published string
	Location  string
	Installer string
}

// Report accumulates sections and publishes them. Publishing resets the
// section list, so one report instance serves several operation runs.
type Report struct {
	title    string
	cfg      Config
	sections []Section
}

// New returns a report with the given title and publication settings.
func New(title string, cfg Config) *Report {
	return &Report{title: title, cfg: cfg}
}

// AddSection appends a product section to the pending report.
func (r *Report) AddSection(s Section) {
	r.sections = append(r.sections, s)
}

// Len returns the number of pending sections.
func (r *Report) Len() int { return len(r.sections) }

// Publish renders the pending sections to every configured handler and
// resets the section list. A report with no pending section publishes
// nothing.
func (r *Report) Publish() error {
	if len(r.sections) == 0 {
		return nil
	}
	defer func() { r.sections = nil }()

	text, err := r.render()
	if err != nil {
		return err
	}

	if r.cfg.File != "" {
		if err := r.publishFile(text); err != nil {
			return err
		}
	}
	if r.cfg.Stream != "" {
		if err := r.publishStream(text); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) render() (string, error) {
	tmpl := template.New("report")

	var err error
	if r.cfg.Template != "" {
		tmpl, err = tmpl.ParseFiles(r.cfg.Template)
	} else {
		tmpl, err = tmpl.Parse(defaultTemplate)
	}
	if err != nil {
		return "", fmt.Errorf("failed to parse the report template: %w", err)
	}

	data := struct {
		Title    string
		Date     string
		Sections []Section
	}{
		Title:    r.title,
		Date:     time.Now().Truncate(time.Second).Format(time.RFC3339),
		Sections: r.sections,
	}

	var sb strings.Builder
	if err := tmpl.ExecuteTemplate(&sb, "report", data); err != nil {
		return "", fmt.Errorf("failed to render the report: %w", err)
	}
	return sb.String(), nil
}

// publishFile appends the report to the configured file, rotating it first
// when it exceeds the configured size.
func (r *Report) publishFile(text string) error {
	if r.cfg.MaxSize > 0 {
		if info, err := os.Stat(r.cfg.File); err == nil && info.Size() >= r.cfg.MaxSize {
			rotated := r.cfg.File + ".1"
			if err := os.Rename(r.cfg.File, rotated); err != nil {
				return fmt.Errorf("failed to rotate the report file: %w", err)
			}
			logging.Debug("Report file rotated", "file", r.cfg.File, "rotated", rotated)
		}
	}

	f, err := os.OpenFile(r.cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open the report file: %w", err)
	}
	defer f.Close()

	if _, err := io.WriteString(f, text); err != nil {
		return fmt.Errorf("failed to write the report file: %w", err)
	}
	logging.Info("Report published", "title", r.title, "file", r.cfg.File)
	return nil
}

func (r *Report) publishStream(text string) error {
	var w io.Writer
	switch r.cfg.Stream {
	case "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		return fmt.Errorf("unknown report stream %q", r.cfg.Stream)
	}
	_, err := io.WriteString(w, text)
	return err
}
