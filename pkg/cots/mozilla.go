package cots

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fmezou/lappupdate/pkg/logging"
	"github.com/fmezou/lappupdate/pkg/semver"
	"github.com/fmezou/lappupdate/pkg/version"
)

func init() {
	Register("cots.mozilla.FirefoxWinHandler", func() Handler { return NewFirefoxWinHandler() })
	Register("cots.mozilla.FirefoxWin64Handler", func() Handler { return NewFirefoxWin64Handler() })
	Register("cots.mozilla.ThunderbirdWinHandler", func() Handler { return NewThunderbirdWinHandler() })
}

// ausServer hosts the Mozilla application update service (version 6 of the
// update request).
const ausServer = "aus5.mozilla.org"

// downloadServer resolves product/version/os/lang tuples to installers.
const downloadServer = "download.mozilla.org"

// buildTarget maps a deployment target to its AUS build target identifier
// and display form.
var buildTarget = map[string]struct{ id, display string }{
	"win":   {"WINNT_x86-msvc", TargetX86},
	"win64": {"WINNT_x86_64-msvc-x64", TargetX64},
}

// ausManifest mirrors the update manifest served by the AUS: an <updates>
// root with zero or more <update> elements. An empty manifest means no
// update is available.
type ausManifest struct {
	XMLName xml.Name    `xml:"updates"`
	Updates []ausUpdate `xml:"update"`
}

type ausUpdate struct {
	AppVersion string `xml:"appVersion,attr"`
	BuildID    string `xml:"buildID,attr"`
	DetailsURL string `xml:"detailsURL,attr"`
}

// MozHandler implements the common tracking mechanism of Mozilla products.
// It is not usable as is: the concrete constructors set the product name,
// version, target, locale and build ID it needs.
type MozHandler struct {
	product Product
	// Locale of the tracked application, as listed in the Mozilla locale
	// codes registry.
	Locale string
	// BuildID of the deployed application, part of the update request.
	BuildID string
	// Server overrides the update service host, mainly for tests. Empty
	// uses the Mozilla AUS.
	Server string

	client *http.Client
}

// Product implements Handler.
func (h *MozHandler) Product() *Product { return &h.product }

// SetClient overrides the HTTP client, mainly for tests.
func (h *MozHandler) SetClient(c *http.Client) { h.client = c }

// GetOrigin implements Handler. It downloads the AUS update manifest and,
// when an update is published, rewrites the product from it. The manifest
// carries no release date, so the publication date is derived from the
// build ID (YYYYMMDDHHMMSS).
func (h *MozHandler) GetOrigin(ctx context.Context, sinceVersion string) error {
	bt, ok := buildTarget[h.product.Target]
	if !ok {
		return fmt.Errorf("%q is not a supported target", h.product.Target)
	}

	logging.Info("Fetching the latest product information",
		"product", h.product.Name, "since", h.product.Version)

	manifest, err := h.fetchManifest(ctx, h.updateURL(bt.id))
	if err != nil {
		return err
	}
	if len(manifest.Updates) == 0 {
		logging.Info("No available update",
			"product", h.product.Name, "version", h.product.Version)
		return nil
	}

	update := manifest.Updates[0]
	published, err := time.Parse("20060102150405", update.BuildID)
	if err != nil {
		return fmt.Errorf("invalid build ID %q in the update manifest: %w", update.BuildID, err)
	}

	h.product.Version = update.AppVersion
	h.BuildID = update.BuildID
	h.product.ReleaseNoteLocation = update.DetailsURL
	h.product.Location = fmt.Sprintf("https://%s/?product=%s-%s&os=%s&lang=%s",
		downloadServer, h.product.Name, h.product.Version, h.product.Target, h.Locale)
	h.product.DisplayName = fmt.Sprintf("Mozilla %s %s (%s %s)",
		capitalizeName(h.product.Name), h.product.Version, bt.display, h.Locale)
	h.product.Published = published.Format(time.RFC3339)
	h.product.ChangeSummary = ""
	h.product.FileSize = -1
	h.product.SecureHash = nil
	h.product.StdInstArgs = ""
	h.product.SilentInstArgs = "-ms"

	logging.Info("Latest product information fetched",
		"version", h.product.Version, "published", h.product.Published)
	return nil
}

// Fetch implements Handler.
func (h *MozHandler) Fetch(ctx context.Context, dir string) error {
	return h.product.FetchInstaller(ctx, dir)
}

// IsUpdate implements Handler. Mozilla version numbers are short dotted
// forms such as "43.0", not strict semantic versions, so the general
// identifier comparison is used.
func (h *MozHandler) IsUpdate(deployed *Product) bool {
	return semver.IsNewer(h.product.Version, deployed.Version)
}

// updateURL builds the version 6 update request for the AUS.
func (h *MozHandler) updateURL(buildTargetID string) string {
	const (
		channel      = "release"
		osVersion    = "Windows_NT%206.1"
		systemCaps   = "%20"
		distribution = "default"
		distVersion  = "default"
	)
	server := h.Server
	if server == "" {
		server = "https://" + ausServer
	}
	return fmt.Sprintf("%s/update/6/%s/%s/%s/%s/%s/%s/%s/%s/%s/%s/update.xml?force=1",
		server, h.product.Name, h.product.Version, h.BuildID, buildTargetID,
		h.Locale, channel, osVersion, systemCaps, distribution, distVersion)
}

func (h *MozHandler) fetchManifest(ctx context.Context, url string) (*ausManifest, error) {
	client := h.client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare the update request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inaccessible resource %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected HTTP status code %d for %q", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read the update manifest: %w", err)
	}

	var manifest ausManifest
	if err := xml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse the update manifest: %w", err)
	}
	return &manifest, nil
}

func capitalizeName(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// NewFirefoxWinHandler tracks Mozilla Firefox for Windows 32 bits.
func NewFirefoxWinHandler() *MozHandler {
	return &MozHandler{
		product: Product{
			Name:    "firefox",
			Version: "42.0",
			Target:  "win",
			Description: "Firefox is a free and open-source web browser " +
				"available under the Mozilla Public License",
			Editor:          "Mozilla Foundation",
			WebSiteLocation: "https://www.mozilla.org/firefox",
			FileSize:        -1,
			SilentInstArgs:  "-ms",
		},
		Locale:  "fr",
		BuildID: "20151029151421",
	}
}

// NewFirefoxWin64Handler tracks Mozilla Firefox for Windows 64 bits,
// published since 42.0.
func NewFirefoxWin64Handler() *MozHandler {
	h := NewFirefoxWinHandler()
	h.product.Target = "win64"
	return h
}

// NewThunderbirdWinHandler tracks Mozilla Thunderbird for Windows.
func NewThunderbirdWinHandler() *MozHandler {
	return &MozHandler{
		product: Product{
			Name:    "thunderbird",
			Version: "1.0",
			Target:  "win",
			Description: "Thunderbird is a free and open-source email client " +
				"available under the Mozilla Public License",
			Editor:          "Mozilla Foundation",
			WebSiteLocation: "https://www.mozilla.org/thunderbird",
			FileSize:        -1,
			SilentInstArgs:  "-ms",
		},
		Locale:  "fr",
		BuildID: "0",
	}
}
