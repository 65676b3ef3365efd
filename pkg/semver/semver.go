// Package semver implements version identifier parsing and comparison.
//
// The SemVer type matches the Semantic Versioning 2.0.0 specification
// (https://semver.org/spec/v2.0.0.html). The CompareID function extends the
// comparison to the other textual conventions found in the wild, falling back
// to an explicit unknown result when an identifier fits no known convention.
package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// semRe matches the semantic versioning rules. The expression is fixed, so it
// is compiled once at package load.
var semRe = regexp.MustCompile(
	`^(?P<major>0|[1-9][0-9]*)` +
		`\.(?P<minor>0|[1-9][0-9]*)` +
		`\.(?P<patch>0|[1-9][0-9]*)` +
		`(?:-(?P<prerelease>[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?` +
		`(?:\+(?P<build>[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?$`)

// SemVer is a parsed semantic version identifier. The zero value is not a
// valid version; use New to build one.
type SemVer struct {
	major      int
	minor      int
	patch      int
	preRelease []string
	build      string
}

// New parses a version string per the semantic versioning specification.
// Build metadata is retained for String but ignored in precedence.
func New(s string) (SemVer, error) {
	m := semRe.FindStringSubmatch(s)
	if m == nil {
		return SemVer{}, fmt.Errorf("%q is not a valid semantic version identifier", s)
	}

	var v SemVer
	v.major, _ = strconv.Atoi(m[semRe.SubexpIndex("major")])
	v.minor, _ = strconv.Atoi(m[semRe.SubexpIndex("minor")])
	v.patch, _ = strconv.Atoi(m[semRe.SubexpIndex("patch")])
	if pre := m[semRe.SubexpIndex("prerelease")]; pre != "" {
		v.preRelease = strings.Split(pre, ".")
	}
	v.build = m[semRe.SubexpIndex("build")]
	return v, nil
}

// Major returns the major version number.
func (v SemVer) Major() int { return v.major }

// Minor returns the minor version number.
func (v SemVer) Minor() int { return v.minor }

// Patch returns the patch version number.
func (v SemVer) Patch() int { return v.patch }

// PreRelease returns the dot-separated pre-release identifiers, which may be
// empty.
func (v SemVer) PreRelease() []string { return v.preRelease }

// Unstable reports whether the version is unstable: either the major version
// is zero or a pre-release identifier is present.
func (v SemVer) Unstable() bool {
	return v.major == 0 || len(v.preRelease) > 0
}

// String returns the version identifier in its canonical textual form.
func (v SemVer) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
	if len(v.preRelease) > 0 {
		s += "-" + strings.Join(v.preRelease, ".")
	}
	if v.build != "" {
		s += "+" + v.build
	}
	return s
}

// Compare returns -1, 0 or 1 according to the precedence rules of the
// specification (rule #11). Build metadata does not figure in precedence.
func (v SemVer) Compare(o SemVer) int {
	if c := compareInt(v.major, o.major); c != 0 {
		return c
	}
	if c := compareInt(v.minor, o.minor); c != 0 {
		return c
	}
	if c := compareInt(v.patch, o.patch); c != 0 {
		return c
	}
	return comparePreRelease(v.preRelease, o.preRelease)
}

// LessThan reports whether v has lower precedence than o.
func (v SemVer) LessThan(o SemVer) bool { return v.Compare(o) < 0 }

// GreaterThan reports whether v has higher precedence than o.
func (v SemVer) GreaterThan(o SemVer) bool { return v.Compare(o) > 0 }

// Equal reports whether v and o have the same precedence. Versions differing
// only in build metadata are equal.
func (v SemVer) Equal(o SemVer) bool { return v.Compare(o) == 0 }

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// comparePreRelease applies the pre-release precedence rules: a version
// without pre-release identifiers ranks above one with them, identifiers are
// compared pairwise, and a shorter identifier list ranks below a longer one
// when all shared identifiers are equal.
func comparePreRelease(a, b []string) int {
	switch {
	case len(a) == 0 && len(b) == 0:
		return 0
	case len(a) == 0:
		return 1
	case len(b) == 0:
		return -1
	}

	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareIdentifier(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareInt(len(a), len(b))
}

// compareIdentifier compares two pre-release identifiers, numerically when
// both consist only of digits and lexically in ASCII order otherwise. Numeric
// identifiers always have lower precedence than alphanumeric ones.
func compareIdentifier(a, b string) int {
	aNum, aErr := strconv.Atoi(a)
	bNum, bErr := strconv.Atoi(b)
	aIsNum := aErr == nil && isDigits(a)
	bIsNum := bErr == nil && isDigits(b)

	switch {
	case aIsNum && bIsNum:
		return compareInt(aNum, bNum)
	case aIsNum:
		return -1
	case bIsNum:
		return 1
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
