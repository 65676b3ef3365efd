package cots_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmezou/lappupdate/pkg/cots"
)

func TestRegistry(t *testing.T) {
	names := cots.Handlers()
	assert.Contains(t, names, "cots.dummy.DummyHandler")
	assert.Contains(t, names, "cots.mock.MockHandler")
	assert.Contains(t, names, "cots.makemkv.MakemkvHandler")
	assert.Contains(t, names, "cots.mozilla.FirefoxWinHandler")
	assert.Contains(t, names, "cots.mozilla.FirefoxWin64Handler")
	assert.Contains(t, names, "cots.mozilla.ThunderbirdWinHandler")
	assert.IsIncreasing(t, names)
}

func TestGetUnknownHandler(t *testing.T) {
	_, err := cots.Get("cots.nope.NopeHandler")
	assert.Error(t, err)
}

func TestGetReturnsFreshInstances(t *testing.T) {
	a, err := cots.Get("cots.dummy.DummyHandler")
	require.NoError(t, err)
	b, err := cots.Get("cots.dummy.DummyHandler")
	require.NoError(t, err)

	a.Product().Version = "9.9.9"
	assert.NotEqual(t, a.Product().Version, b.Product().Version)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	factory := func() cots.Handler { return cots.NewDummyHandler() }
	assert.Panics(t, func() {
		cots.Register("cots.dummy.DummyHandler", factory)
	})
	assert.Panics(t, func() {
		cots.Register("cots.test.NilHandler", nil)
	})
}

func TestDummyHandler(t *testing.T) {
	h := cots.NewDummyHandler()
	assert.Equal(t, "0.0.0", h.Product().Version)

	require.NoError(t, h.GetOrigin(context.Background(), "0.0.0"))
	p := h.Product()
	assert.Equal(t, "1.0.1", p.Version)
	assert.Equal(t, "Dummy Product v1.0.1", p.DisplayName)
	assert.NotEmpty(t, p.Published)

	deployed := &cots.Product{Name: "Dummy Product", Version: "1.0.0"}
	assert.True(t, h.IsUpdate(deployed))
	deployed.Version = "1.0.1"
	assert.False(t, h.IsUpdate(deployed))
}

func TestIsSemVerUpdate(t *testing.T) {
	candidate := &cots.Product{Name: "a", Version: "1.1.0"}
	deployed := &cots.Product{Name: "a", Version: "1.0.0"}
	assert.True(t, cots.IsSemVerUpdate(candidate, deployed))
	assert.False(t, cots.IsSemVerUpdate(deployed, candidate))

	// An unparseable version on either side is not an update.
	broken := &cots.Product{Name: "a", Version: "1.0"}
	assert.False(t, cots.IsSemVerUpdate(broken, deployed))
	assert.False(t, cots.IsSemVerUpdate(candidate, broken))
}
