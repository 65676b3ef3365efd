// Package cots tracks commercial off-the-shelf products: the product model
// stored in the catalog and the handlers that query each editor's
// information channel.
package cots

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fmezou/lappupdate/pkg/download"
	"github.com/fmezou/lappupdate/pkg/logging"
)

// Deployment targets of an installer.
const (
	TargetX86     = "x86"
	TargetX64     = "x64"
	TargetUnified = "unified"
)

// SecureHash is the secure hash of an installer file.
type SecureHash struct {
	Algo  string `json:"algo"`
	Value string `json:"value"`
}

// Product holds the properties of a tracked application version. It is the
// payload of the catalog buckets, so the JSON keys are part of the catalog
// format.
type Product struct {
	Name                string      `json:"name"`
	DisplayName         string      `json:"display_name"`
	Version             string      `json:"version"`
	Published           string      `json:"published"`
	Target              string      `json:"target"`
	Description         string      `json:"description"`
	Editor              string      `json:"editor"`
	WebSiteLocation     string      `json:"web_site_location"`
	Location            string      `json:"location"`
	Icon                string      `json:"icon"`
	AnnounceLocation    string      `json:"announce_location"`
	FeedLocation        string      `json:"feed_location"`
	ReleaseNoteLocation string      `json:"release_note_location"`
	ChangeSummary       string      `json:"change_summary"`
	Installer           string      `json:"installer"`
	FileSize            int64       `json:"file_size"`
	SecureHash          *SecureHash `json:"secure_hash"`
	StdInstArgs         string      `json:"std_inst_args"`
	SilentInstArgs      string      `json:"silent_inst_args"`
}

// Clone returns an independent copy of the product.
func (p *Product) Clone() *Product {
	c := *p
	if p.SecureHash != nil {
		h := *p.SecureHash
		c.SecureHash = &h
	}
	return &c
}

// FetchInstaller downloads the product installer into dir and updates the
// installer path, file size and secure hash members. The retrieved file is
// renamed "<name>_v<version>_<target><ext>". On failure the members are left
// unchanged.
func (p *Product) FetchInstaller(ctx context.Context, dir string) error {
	opts := download.Options{}
	if p.FileSize > 0 {
		opts.ExpectedLength = p.FileSize
	}
	if p.SecureHash != nil {
		opts.HashAlgo = p.SecureHash.Algo
		opts.ExpectedHash = p.SecureHash.Value
	}

	result, err := download.FetchWithOptions(ctx, p.Location, dir, opts)
	if err != nil {
		return fmt.Errorf("failed to fetch the installer of %q: %w", p.Name, err)
	}

	ext := filepath.Ext(result.Filename)
	target := filepath.Join(dir, fmt.Sprintf("%s_v%s_%s%s", p.Name, p.Version, p.Target, ext))
	if err := os.Rename(result.Filename, target); err != nil {
		return fmt.Errorf("failed to rename the installer of %q: %w", p.Name, err)
	}

	p.Installer = target
	p.FileSize = result.Length
	p.SecureHash = &SecureHash{Algo: result.HashAlgo, Value: result.HashValue}
	logging.Info("Installer downloaded", "product", p.Name, "installer", p.Installer)
	return nil
}
