package cots

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

func init() {
	Register("cots.mock.MockHandler", func() Handler { return NewMockHandler() })
}

// NewMockHandler returns a mock handler with its product defaults.
func NewMockHandler() *MockHandler {
	return &MockHandler{
		product: Product{
			Name:    "Mock Product",
			Version: "1.0.0",
			Target:  TargetUnified,
		},
	}
}

// MockHandler is a scriptable handler used by the test suites. GetOrigin and
// Fetch touch no network: the origin is whatever the test (or the default
// script) says it is, and Fetch writes a placeholder installer file.
type MockHandler struct {
	product Product

	// Origin is the product reported by the editor channel. When nil, a
	// default origin one minor version ahead of the deployed product is
	// used.
	Origin *Product
	// OriginErr makes GetOrigin fail.
	OriginErr error
	// FetchErr makes Fetch fail.
	FetchErr error
}

// Product implements Handler.
func (h *MockHandler) Product() *Product { return &h.product }

// GetOrigin implements Handler.
func (h *MockHandler) GetOrigin(ctx context.Context, sinceVersion string) error {
	if h.OriginErr != nil {
		return h.OriginErr
	}
	if h.Origin != nil {
		h.product = *h.Origin.Clone()
		return nil
	}
	h.product = Product{
		Name:           "Mock Product",
		DisplayName:    "Mock Product v1.1.0",
		Version:        "1.1.0",
		Published:      "2016-02-02T00:00:00Z",
		Target:         TargetUnified,
		Location:       "http://localhost/mock/dist.zip",
		FileSize:       -1,
		SilentInstArgs: "/S",
	}
	return nil
}

// Fetch implements Handler by writing a placeholder installer file.
func (h *MockHandler) Fetch(ctx context.Context, dir string) error {
	if h.FetchErr != nil {
		return h.FetchErr
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("%s_v%s_%s.exe", h.product.Name, h.product.Version, h.product.Target)
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte("mock installer"), 0o644); err != nil {
		return err
	}
	h.product.Installer = target
	h.product.FileSize = int64(len("mock installer"))
	return nil
}

// IsUpdate implements Handler.
func (h *MockHandler) IsUpdate(deployed *Product) bool {
	return IsSemVerUpdate(&h.product, deployed)
}
