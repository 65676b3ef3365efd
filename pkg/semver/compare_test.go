package semver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fmezou/lappupdate/pkg/semver"
)

func TestCompareID(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want semver.Result
	}{
		{"semver equal", "1.0.0", "1.0.0", semver.ResultEqual},
		{"semver newer", "1.0.1", "1.0.0", semver.ResultNewer},
		{"semver older", "1.0.0-rc.1", "1.0.0", semver.ResultOlder},
		{"two segments", "43.0", "42.0", semver.ResultNewer},
		{"four segments", "1.2.3.4", "1.2.3.5", semver.ResultOlder},
		{"mixed depth", "1.2", "1.2.0", semver.ResultEqual},
		{"not a version", "latest", "1.0.0", semver.ResultUnknown},
		{"empty left", "", "1.0.0", semver.ResultUnknown},
		{"both garbage", "abc", "def", semver.ResultUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, semver.CompareID(tt.a, tt.b))
		})
	}
}

func TestIsNewer(t *testing.T) {
	assert.True(t, semver.IsNewer("2.0.0", "1.9.9"))
	assert.False(t, semver.IsNewer("1.9.9", "2.0.0"))
	assert.False(t, semver.IsNewer("2.0.0", "2.0.0"))
	// An identifier that fits no convention is never an update.
	assert.False(t, semver.IsNewer("unknown", "1.0.0"))
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "older", semver.ResultOlder.String())
	assert.Equal(t, "equal", semver.ResultEqual.String())
	assert.Equal(t, "newer", semver.ResultNewer.String())
	assert.Equal(t, "unknown", semver.ResultUnknown.String())
}
