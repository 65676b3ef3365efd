package version_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fmezou/lappupdate/pkg/version"
)

func TestVersion(t *testing.T) {
	info := version.Version()
	assert.NotEmpty(t, info.Version)
}

func TestString(t *testing.T) {
	s := version.String()
	assert.True(t, strings.HasPrefix(s, "lapptrack "), s)
}

func TestFullString(t *testing.T) {
	s := version.FullString()
	assert.True(t, strings.HasPrefix(s, version.String()+"\n"), s)
	assert.Contains(t, s, "branch:")
	assert.Contains(t, s, "revision:")
	assert.Contains(t, s, "build date:")
	assert.Contains(t, s, "go version:")
}

func TestUserAgent(t *testing.T) {
	ua := version.UserAgent()
	assert.True(t, strings.HasPrefix(ua, "lappupdate/"), ua)
	// Only major.minor is sent, not the full version string.
	assert.Equal(t, 1, strings.Count(strings.TrimPrefix(ua, "lappupdate/"), "."))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "1.2", version.Normalize("1.2.0"))
	assert.Equal(t, "1.2", version.Normalize("1.2.0.0"))
	assert.Equal(t, "1.2.3", version.Normalize("1.2.3"))
	assert.Equal(t, "1", version.Normalize("1.0"))
	assert.Equal(t, "0", version.Normalize("0"))
}
