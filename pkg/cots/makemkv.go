package cots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fmezou/lappupdate/pkg/logging"
	"github.com/fmezou/lappupdate/pkg/pad"
	"github.com/fmezou/lappupdate/pkg/version"
)

func init() {
	Register("cots.makemkv.MakemkvHandler", func() Handler { return NewMakeMKVHandler() })
}

// MakeMKVHandler tracks the MakeMKV video transcoder. The editor publishes
// its release information as a PAD file, which carries the latest version,
// the release date and the installer location.
type MakeMKVHandler struct {
	product Product
	// CatalogURL overrides the PAD file location, mainly for tests.
	CatalogURL string

	client *http.Client
}

// NewMakeMKVHandler returns a MakeMKV handler with its product defaults.
// Only the name and the catalog location are known before GetOrigin runs.
func NewMakeMKVHandler() *MakeMKVHandler {
	return &MakeMKVHandler{
		product: Product{
			Name:                "MakeMKV",
			Version:             "0.0.0",
			Target:              TargetUnified,
			WebSiteLocation:     "http://www.makemkv.com/",
			ReleaseNoteLocation: "http://www.makemkv.com/download/history.html",
			SilentInstArgs:      "/S",
			FileSize:            -1,
		},
		CatalogURL: "http://www.makemkv.com/makemkv.xml",
	}
}

// Product implements Handler.
func (h *MakeMKVHandler) Product() *Product { return &h.product }

// SetClient overrides the HTTP client, mainly for tests.
func (h *MakeMKVHandler) SetClient(c *http.Client) { h.client = c }

// GetOrigin implements Handler by parsing the editor's PAD file.
func (h *MakeMKVHandler) GetOrigin(ctx context.Context, sinceVersion string) error {
	logging.Info("Fetching the latest product information",
		"product", h.product.Name, "since", h.product.Version)

	client := h.client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.CatalogURL, nil)
	if err != nil {
		return fmt.Errorf("failed to prepare the catalog request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("inaccessible resource %q: %w", h.CatalogURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status code %d for %q", resp.StatusCode, h.CatalogURL)
	}

	doc, err := pad.Parse(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	h.product.Name = doc.ProgramInfo.Name
	h.product.Version = doc.ProgramInfo.Version
	h.product.DisplayName = fmt.Sprintf("%s v%s", h.product.Name, h.product.Version)
	h.product.Published = doc.ReleaseDate()
	h.product.Description = doc.Descriptions.English.CharDesc250
	h.product.Editor = doc.CompanyInfo.CompanyName
	h.product.Location = doc.WebInfo.DownloadURLs.PrimaryDownloadURL
	h.product.Icon = doc.WebInfo.ApplicationURLs.IconURL
	// The PAD file declares a file size which does not match the real
	// installer size, so the size check is disabled.
	h.product.FileSize = -1

	logging.Info("Latest product information fetched",
		"version", h.product.Version, "published", h.product.Published)
	return nil
}

// Fetch implements Handler.
func (h *MakeMKVHandler) Fetch(ctx context.Context, dir string) error {
	return h.product.FetchInstaller(ctx, dir)
}

// IsUpdate implements Handler. MakeMKV version numbers comply with the
// semantic versioning rules.
func (h *MakeMKVHandler) IsUpdate(deployed *Product) bool {
	return IsSemVerUpdate(&h.product, deployed)
}
