// pkg/config/config.go - configuration settings for lapptrack.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is the configuration file looked up in the working
// directory when no --configfile flag is given.
const DefaultFilename = "lapptrack.yaml"

// DefaultSet is the deployment set assigned to applications that declare
// none.
const DefaultSet = "__all__"

// Configuration holds the configurable options for lapptrack in YAML format.
type Configuration struct {
	Core         CoreSettings           `yaml:"core"`
	Applications map[string]bool        `yaml:"applications"`
	Sets         map[string][]string    `yaml:"sets"`
	Apps         map[string]AppSettings `yaml:"apps"`
}

// CoreSettings holds the general options of the tracker.
type CoreSettings struct {
	Store           string         `yaml:"store"`
	LogLevel        string         `yaml:"log_level"`
	PullingReport   ReportSettings `yaml:"pulling_report"`
	FetchingReport  ReportSettings `yaml:"fetching_report"`
	ApprovingReport ReportSettings `yaml:"approving_report"`
}

// ReportSettings describes where an operation report is published. An empty
// value disables the report.
type ReportSettings struct {
	Template string `yaml:"template"` // template file; empty uses the built-in one
	File     string `yaml:"file"`     // append the report to this file
	MaxSize  int64  `yaml:"max_size"` // rotate the report file above this size, in bytes
	Stream   string `yaml:"stream"`   // "stdout" or "stderr"
}

// AppSettings holds the per-application overrides. Missing values are filled
// in with defaults during validation.
type AppSettings struct {
	Handler string `yaml:"handler"` // qualified handler name
	Path    string `yaml:"path"`    // installer store directory
	Set     string `yaml:"set"`     // deployment set name
}

// Load reads and validates a configuration file. Validation collects every
// error it finds so that a single run of --testconf reports them all.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var cfg Configuration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error in %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the configuration for internal correctness and fills in
// the defaults, so a validated Configuration is complete.
func (c *Configuration) Validate() error {
	var errs *multierror.Error

	if strings.TrimSpace(c.Core.Store) == "" {
		errs = multierror.Append(errs,
			fmt.Errorf("missing mandatory key 'store' in 'core' section"))
	}

	if c.Applications == nil {
		errs = multierror.Append(errs, fmt.Errorf("the 'applications' section is missing"))
	}
	if c.Sets == nil {
		errs = multierror.Append(errs, fmt.Errorf("the 'sets' section is missing"))
	}
	if c.Apps == nil {
		c.Apps = make(map[string]AppSettings)
	}

	for name := range c.Applications {
		app := c.Apps[name]
		if app.Handler == "" {
			app.Handler = DefaultHandlerName(name)
		}
		if app.Path == "" {
			app.Path = filepath.Join(c.Core.Store, name)
		}
		if app.Set == "" {
			app.Set = DefaultSet
		}
		// The effective set is checked after defaulting, so an application
		// silently falling back to the default set still needs it declared.
		if _, ok := c.Sets[app.Set]; !ok {
			errs = multierror.Append(errs,
				fmt.Errorf("'set' value %q is not declared in the 'sets' section (see %q application)",
					app.Set, name))
		}
		c.Apps[name] = app
	}

	for set, components := range c.Sets {
		empty := true
		for _, comp := range components {
			if strings.TrimSpace(comp) != "" {
				empty = false
				break
			}
		}
		if len(components) == 0 || empty {
			errs = multierror.Append(errs,
				fmt.Errorf("set %q contains no component names", set))
		}
	}

	return errs.ErrorOrNil()
}

// EnsureStore creates the store directory tree.
func (c *Configuration) EnsureStore() error {
	if err := os.MkdirAll(c.Core.Store, 0o755); err != nil {
		return fmt.Errorf("failed to create the store directory: %w", err)
	}
	return nil
}

// CatalogPath returns the path of the product catalog inside the store.
func (c *Configuration) CatalogPath() string {
	return filepath.Join(c.Core.Store, "catalog.json")
}

// LogDir returns the log directory inside the store.
func (c *Configuration) LogDir() string {
	return filepath.Join(c.Core.Store, "logs")
}

// DefaultHandlerName returns the conventional qualified handler name of an
// application: "cots.<app>.<App>Handler".
func DefaultHandlerName(app string) string {
	return fmt.Sprintf("cots.%s.%sHandler", app, capitalize(app))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
