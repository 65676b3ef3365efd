package cots

import (
	"context"
	"time"

	"github.com/fmezou/lappupdate/pkg/logging"
	"github.com/fmezou/lappupdate/pkg/semver"
)

func init() {
	Register("cots.dummy.DummyHandler", func() Handler { return NewDummyHandler() })
}

// DummyHandler is a trivial example of a Handler implementation. Its origin
// is synthetic, which also makes it convenient for exercising the tracker
// without network access.
type DummyHandler struct {
	product Product
}

// NewDummyHandler returns a dummy handler with its product defaults. Only
// the name is known before GetOrigin runs.
func NewDummyHandler() *DummyHandler {
	return &DummyHandler{
		product: Product{
			Name:    "Dummy Product",
			Version: "0.0.0",
			Target:  TargetUnified,
		},
	}
}

// Product implements Handler.
func (h *DummyHandler) Product() *Product { return &h.product }

// GetOrigin implements Handler with a fixed synthetic origin.
func (h *DummyHandler) GetOrigin(ctx context.Context, sinceVersion string) error {
	logging.Info("Fetching the latest product information",
		"product", h.product.Name, "since", sinceVersion)

	h.product = Product{
		Name:                "Dummy Product",
		Version:             "1.0.1",
		DisplayName:         "Dummy Product v1.0.1",
		Published:           time.Now().Truncate(time.Second).Format(time.RFC3339),
		Target:              TargetUnified,
		Description:         "This dummy handler is a trivial example of a Handler implementation.",
		Editor:              "Example. inc",
		WebSiteLocation:     "http://www.example.com/index.html",
		Location:            "http://www.example.com/dist.zip",
		AnnounceLocation:    "http://www.example.com/news.txt",
		FeedLocation:        "http://www.example.com/feed.rss",
		ReleaseNoteLocation: "http://www.example.com/release_note.txt",
		ChangeSummary:       "<ul><li>version 1.0.1</li><li>initial release</li></ul>",
		FileSize:            -1,
		SilentInstArgs:      "/silent",
	}

	logging.Info("Latest product information fetched",
		"version", h.product.Version, "published", h.product.Published)
	return nil
}

// Fetch implements Handler.
func (h *DummyHandler) Fetch(ctx context.Context, dir string) error {
	return h.product.FetchInstaller(ctx, dir)
}

// IsUpdate implements Handler. Dummy versions follow the semantic
// versioning rules.
func (h *DummyHandler) IsUpdate(deployed *Product) bool {
	return IsSemVerUpdate(&h.product, deployed)
}

// IsSemVerUpdate compares two products whose versions follow the semantic
// versioning rules. Unparseable versions are logged and reported as not an
// update.
func IsSemVerUpdate(candidate, deployed *Product) bool {
	a, err := semver.New(candidate.Version)
	if err != nil {
		logging.Error("Invalid candidate product version",
			"product", candidate.Name, "version", candidate.Version, "error", err)
		return false
	}
	b, err := semver.New(deployed.Version)
	if err != nil {
		logging.Error("Invalid deployed product version",
			"product", deployed.Name, "version", deployed.Version, "error", err)
		return false
	}

	result := a.GreaterThan(b)
	if result {
		logging.Info("It is an update",
			"candidate", candidate.Version, "deployed", deployed.Version)
	} else {
		logging.Info("It is not an update",
			"candidate", candidate.Version, "deployed", deployed.Version)
	}
	return result
}
