package semver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmezou/lappupdate/pkg/semver"
)

func TestNew(t *testing.T) {
	v, err := semver.New("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Major())
	assert.Equal(t, 2, v.Minor())
	assert.Equal(t, 3, v.Patch())
	assert.Empty(t, v.PreRelease())
	assert.False(t, v.Unstable())
}

func TestNewPreRelease(t *testing.T) {
	v, err := semver.New("1.0.0-alpha.1+20130313144700")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "1"}, v.PreRelease())
	assert.True(t, v.Unstable())
	assert.Equal(t, "1.0.0-alpha.1+20130313144700", v.String())
}

func TestNewUnstableMajorZero(t *testing.T) {
	v, err := semver.New("0.9.0")
	require.NoError(t, err)
	assert.True(t, v.Unstable())
}

func TestNewInvalid(t *testing.T) {
	invalid := []string{
		"",
		"1",
		"1.0",
		"01.0.0",
		"1.00.0",
		"1.0.0-",
		"1.0.0-alpha..1",
		"1.0.0+",
		"1.0.0 ",
		"v1.0.0",
		"1.0.0-alpha_beta",
	}
	for _, s := range invalid {
		_, err := semver.New(s)
		assert.Error(t, err, "identifier %q", s)
	}
}

// TestComparePrecedence walks the precedence chain of the specification:
// each identifier ranks strictly below the next one.
func TestComparePrecedence(t *testing.T) {
	chain := []string{
		"1.0.0-alpha",
		"1.0.0-alpha.1",
		"1.0.0-alpha.beta",
		"1.0.0-beta",
		"1.0.0-beta.2",
		"1.0.0-beta.11",
		"1.0.0-rc.1",
		"1.0.0",
		"2.0.0",
		"2.1.0",
		"2.1.1",
	}
	for i := 0; i < len(chain)-1; i++ {
		lo, err := semver.New(chain[i])
		require.NoError(t, err)
		hi, err := semver.New(chain[i+1])
		require.NoError(t, err)

		assert.True(t, lo.LessThan(hi), "%s < %s", chain[i], chain[i+1])
		assert.True(t, hi.GreaterThan(lo), "%s > %s", chain[i+1], chain[i])
		assert.False(t, lo.Equal(hi))
	}
}

func TestCompareBuildMetadataIgnored(t *testing.T) {
	a, err := semver.New("1.0.0+build.1")
	require.NoError(t, err)
	b, err := semver.New("1.0.0+build.2")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestCompareSelf(t *testing.T) {
	v, err := semver.New("1.0.0-alpha.1")
	require.NoError(t, err)
	assert.True(t, v.Equal(v))
	assert.False(t, v.LessThan(v))
	assert.False(t, v.GreaterThan(v))
}
