// Package catalog persists the products database of the tracker: a flat
// JSON file recording, for each handled application, the latest pulled,
// fetched and approved product.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fmezou/lappupdate/pkg/cots"
	"github.com/fmezou/lappupdate/pkg/logging"
)

// Filename is the catalog file name inside the store directory.
const Filename = "catalog.json"

// SchemaVersion is the current version of the catalog scheme.
const SchemaVersion = "0.2.0"

const warningText = "This file is automatically generated, and must not be " +
	"manually modified. It contains the applications database and specifies " +
	"for each application its properties. The lapptrack tool uses this " +
	"database to build the applist files used by the deployment scripts."

// Catalog is the products database. Product identifiers are the map keys,
// which makes them unique by construction.
type Catalog struct {
	Warning  string            `json:"__warning__"`
	Version  string            `json:"__version__"`
	Modified string            `json:"modified"`
	Products map[string]*Entry `json:"products"`
}

// Entry tracks one application through its three lifecycle buckets. A nil
// bucket is an empty one.
type Entry struct {
	Pulled   *cots.Product `json:"pulled,omitempty"`
	Fetched  *cots.Product `json:"fetched,omitempty"`
	Approved *cots.Product `json:"approved,omitempty"`
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		Warning:  warningText,
		Version:  SchemaVersion,
		Products: make(map[string]*Entry),
	}
}

// Load reads the catalog from path. A missing file is not an error: a fresh
// catalog is returned, matching the first run of the tracker. A malformed
// file is an error.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logging.Warn("The products catalog does not exist, a new one will be created",
			"path", path)
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read the catalog: %w", err)
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse the catalog %s: %w", path, err)
	}
	if c.Products == nil {
		c.Products = make(map[string]*Entry)
	}
	// Force the current scheme version; there is no need for an upgrade
	// function yet.
	c.Version = SchemaVersion
	c.Warning = warningText

	logging.Info("Products catalog loaded", "path", path, "products", len(c.Products))
	return &c, nil
}

// Save writes the catalog to path, stamping the modification date. The write
// is atomic: the file is fully written next to the destination and renamed
// into place.
func (c *Catalog) Save(path string) error {
	c.Modified = time.Now().Truncate(time.Second).Format(time.RFC3339)

	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to serialize the catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create the catalog directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write the catalog: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write the catalog: %w", err)
	}

	logging.Info("Products catalog saved", "path", path)
	return nil
}

// Entry returns the entry of an application, creating an empty one on first
// use.
func (c *Catalog) Entry(appID string) *Entry {
	e, ok := c.Products[appID]
	if !ok {
		e = &Entry{}
		c.Products[appID] = e
	}
	return e
}

// Lookup returns the entry of an application without creating it.
func (c *Catalog) Lookup(appID string) (*Entry, bool) {
	e, ok := c.Products[appID]
	return e, ok
}

// RecordPulled stores the latest available product in the pulled bucket.
func (e *Entry) RecordPulled(p *cots.Product) {
	e.Pulled = p.Clone()
}

// PromotePulled moves the pulled product to the fetched bucket, clearing
// pulled. The moved product carries the fetch outcome, so the caller passes
// it explicitly.
func (e *Entry) PromotePulled(fetched *cots.Product) error {
	if e.Pulled == nil {
		return fmt.Errorf("no pulled product to promote")
	}
	e.Fetched = fetched.Clone()
	e.Pulled = nil
	return nil
}

// PromoteFetched moves the fetched product to the approved bucket, clearing
// fetched.
func (e *Entry) PromoteFetched() error {
	if e.Fetched == nil {
		return fmt.Errorf("no fetched product to promote")
	}
	e.Approved = e.Fetched
	e.Fetched = nil
	return nil
}
