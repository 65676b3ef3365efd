// Package tracker drives the update lifecycle of the tracked applications:
// pull the latest product information, fetch the installers, approve them for
// deployment, and make the applist files the deployment scripts consume.
package tracker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/fmezou/lappupdate/pkg/applist"
	"github.com/fmezou/lappupdate/pkg/catalog"
	"github.com/fmezou/lappupdate/pkg/config"
	"github.com/fmezou/lappupdate/pkg/cots"
	"github.com/fmezou/lappupdate/pkg/logging"
	"github.com/fmezou/lappupdate/pkg/report"
)

// Tracker ties the configuration, the products catalog and the operation
// reports together. One instance serves one invocation of the tool.
type Tracker struct {
	cfg *config.Configuration
	cat *catalog.Catalog

	pulling   *report.Report
	fetching  *report.Report
	approving *report.Report

	// Prompt asks the operator a yes/no question and reports the answer.
	// It defaults to reading stdin; tests and the --yes flag replace it.
	Prompt func(question string) bool
}

// New returns a tracker bound to a validated configuration. The products
// catalog is loaded from the store, which is created on first use.
func New(cfg *config.Configuration) (*Tracker, error) {
	if err := cfg.EnsureStore(); err != nil {
		return nil, err
	}

	cat, err := catalog.Load(cfg.CatalogPath())
	if err != nil {
		return nil, err
	}

	t := &Tracker{
		cfg:       cfg,
		cat:       cat,
		pulling:   report.New("Pulling", reportConfig(cfg.Core.PullingReport)),
		fetching:  report.New("Fetching", reportConfig(cfg.Core.FetchingReport)),
		approving: report.New("Approving", reportConfig(cfg.Core.ApprovingReport)),
		Prompt:    stdinPrompt,
	}
	return t, nil
}

// publish sends an operation report. A publication failure does not fail the
// operation itself: the catalog is already saved at this point.
func publish(r *report.Report) {
	if err := r.Publish(); err != nil {
		logging.Error("Failed to publish the report", "error", err)
	}
}

func reportConfig(s config.ReportSettings) report.Config {
	return report.Config{
		Template: s.Template,
		File:     s.File,
		MaxSize:  s.MaxSize,
		Stream:   s.Stream,
	}
}

// Pull queries the editor channel of every enabled application and records
// the available updates in the pulled bucket of the catalog. A failing
// application is reported and skipped, it never aborts the whole run.
func (t *Tracker) Pull(ctx context.Context) error {
	logging.Info("Pulling the latest product information")
	var errs *multierror.Error

	for _, name := range t.enabledApps() {
		app := t.cfg.Apps[name]
		if err := t.pullApp(ctx, name, app); err != nil {
			logging.Error("Failed to pull the product information",
				"application", name, "error", err)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if err := t.cat.Save(t.cfg.CatalogPath()); err != nil {
		errs = multierror.Append(errs, err)
	}
	publish(t.pulling)
	return errs.ErrorOrNil()
}

func (t *Tracker) pullApp(ctx context.Context, name string, app config.AppSettings) error {
	h, err := cots.Get(app.Handler)
	if err != nil {
		return err
	}

	var deployed *cots.Product
	if entry, ok := t.cat.Lookup(name); ok {
		deployed = entry.Approved
	}
	if deployed != nil {
		// Resume the tracking from the deployed product.
		*h.Product() = *deployed.Clone()
	}

	since := h.Product().Version
	if err := h.GetOrigin(ctx, since); err != nil {
		return err
	}

	if deployed != nil && !h.IsUpdate(deployed) {
		logging.Info("No update available", "application", name,
			"deployed", deployed.Version)
		return nil
	}

	p := h.Product()
	// A channel may report nothing at all; a product without an installer
	// location cannot be fetched and is not an update.
	if p.Location == "" {
		logging.Info("No update available", "application", name,
			"version", p.Version)
		return nil
	}
	t.cat.Entry(name).RecordPulled(p)
	t.pulling.AddSection(report.Section{
		Name:      p.Name,
		Version:   p.Version,
		Published: p.Published,
		Location:  p.Location,
	})
	logging.Info("Update pulled", "application", name, "version", p.Version)
	return nil
}

// Fetch downloads the installer of every pulled product and promotes it to
// the fetched bucket. A failing application leaves its pulled product in
// place so a later run can retry.
func (t *Tracker) Fetch(ctx context.Context) error {
	logging.Info("Fetching the pulled installers")
	var errs *multierror.Error

	for _, name := range t.enabledApps() {
		app := t.cfg.Apps[name]
		entry, ok := t.cat.Lookup(name)
		if !ok || entry.Pulled == nil {
			continue
		}
		if err := t.fetchApp(ctx, name, app, entry); err != nil {
			logging.Error("Failed to fetch the installer",
				"application", name, "error", err)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if err := t.cat.Save(t.cfg.CatalogPath()); err != nil {
		errs = multierror.Append(errs, err)
	}
	publish(t.fetching)
	return errs.ErrorOrNil()
}

func (t *Tracker) fetchApp(ctx context.Context, name string, app config.AppSettings,
	entry *catalog.Entry) error {
	h, err := cots.Get(app.Handler)
	if err != nil {
		return err
	}
	*h.Product() = *entry.Pulled.Clone()

	if err := os.MkdirAll(app.Path, 0o755); err != nil {
		return fmt.Errorf("failed to create the installer directory: %w", err)
	}
	if err := h.Fetch(ctx, app.Path); err != nil {
		return err
	}

	p := h.Product()
	if err := entry.PromotePulled(p); err != nil {
		return err
	}
	t.fetching.AddSection(report.Section{
		Name:      p.Name,
		Version:   p.Version,
		Published: p.Published,
		Location:  p.Location,
		Installer: p.Installer,
	})
	logging.Info("Installer fetched", "application", name, "installer", p.Installer)
	return nil
}

// Approve promotes the fetched products to the approved bucket. Unless force
// is set, each product is submitted to the operator, and only the accepted
// ones are promoted.
func (t *Tracker) Approve(force bool) error {
	logging.Info("Approving the fetched products", "force", force)
	var errs *multierror.Error

	for _, name := range t.enabledApps() {
		entry, ok := t.cat.Lookup(name)
		if !ok || entry.Fetched == nil {
			continue
		}

		p := entry.Fetched
		if !force {
			q := fmt.Sprintf("Approve %s version %s (installer %s)?",
				p.Name, p.Version, p.Installer)
			if !t.Prompt(q) {
				logging.Info("Approval declined", "application", name)
				continue
			}
		}

		if err := entry.PromoteFetched(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		t.approving.AddSection(report.Section{
			Name:      p.Name,
			Version:   p.Version,
			Published: p.Published,
			Location:  p.Location,
			Installer: p.Installer,
		})
		logging.Info("Product approved", "application", name, "version", p.Version)
	}

	if err := t.cat.Save(t.cfg.CatalogPath()); err != nil {
		errs = multierror.Append(errs, err)
	}
	publish(t.approving)
	return errs.ErrorOrNil()
}

// Make writes the applist files of every deployment component from the
// approved products.
func (t *Tracker) Make() error {
	logging.Info("Making the applist files")

	w, err := applist.NewWriter(t.cfg.Core.Store, t.cfg.Sets)
	if err != nil {
		return err
	}
	defer w.Close()

	var errs *multierror.Error
	for _, name := range t.enabledApps() {
		app := t.cfg.Apps[name]
		entry, ok := t.cat.Lookup(name)
		if !ok || entry.Approved == nil {
			continue
		}
		p := entry.Approved
		rec := applist.Record{
			Target:         p.Target,
			DisplayName:    p.DisplayName,
			Version:        p.Version,
			Installer:      p.Installer,
			SilentInstArgs: p.SilentInstArgs,
		}
		if err := w.Add(app.Set, rec); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if err := w.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

// Run executes the whole lifecycle in one pass: pull, fetch, approve and
// make. Each step runs on the outcome of the previous one, and a partial
// failure in one step does not prevent the next from processing the
// applications that succeeded.
func (t *Tracker) Run(ctx context.Context, forceApprove bool) error {
	var errs *multierror.Error
	if err := t.Pull(ctx); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := t.Fetch(ctx); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := t.Approve(forceApprove); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := t.Make(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

// TestConfig checks that every enabled application resolves to a registered
// handler. The configuration itself was validated at load time; this adds the
// checks that need the handler registry.
func (t *Tracker) TestConfig(w io.Writer) error {
	var errs *multierror.Error

	for _, name := range t.enabledApps() {
		app := t.cfg.Apps[name]
		if _, err := cots.Get(app.Handler); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		fmt.Fprintf(w, "%s: handler %s, path %s, set %s\n",
			name, app.Handler, app.Path, app.Set)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return err
	}
	fmt.Fprintln(w, "The configuration file is valid.")
	return nil
}

// enabledApps returns the enabled application names in a stable order.
func (t *Tracker) enabledApps() []string {
	names := make([]string, 0, len(t.cfg.Applications))
	for name, enabled := range t.cfg.Applications {
		if enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func stdinPrompt(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
