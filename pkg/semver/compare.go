package semver

import (
	goversion "github.com/hashicorp/go-version"
)

// Result is the outcome of comparing two version identifiers.
type Result int

const (
	// ResultUnknown means at least one identifier fits no recognized
	// convention. It is a regular outcome, not an error.
	ResultUnknown Result = iota
	// ResultOlder means the left identifier denotes an older version.
	ResultOlder
	// ResultEqual means both identifiers denote the same version.
	ResultEqual
	// ResultNewer means the left identifier denotes a newer version.
	ResultNewer
)

// String returns the result name.
func (r Result) String() string {
	switch r {
	case ResultOlder:
		return "older"
	case ResultEqual:
		return "equal"
	case ResultNewer:
		return "newer"
	default:
		return "unknown"
	}
}

// CompareID compares two version identifiers written in any recognized
// textual convention.
//
// Strict semantic versions are compared with the full precedence rules.
// Otherwise both identifiers are parsed as general segmented versions
// (dotted numeric forms such as "1.2", "1.2.3.4", underscore separators,
// trailing pre-release suffixes), which covers the version formats used by
// installer metadata. When either identifier fits no convention the result
// is ResultUnknown; CompareID never panics on malformed input.
func CompareID(a, b string) Result {
	if va, err := New(a); err == nil {
		if vb, err := New(b); err == nil {
			return resultFromCompare(va.Compare(vb))
		}
	}

	va, errA := goversion.NewVersion(a)
	vb, errB := goversion.NewVersion(b)
	if errA != nil || errB != nil {
		return ResultUnknown
	}
	return resultFromCompare(va.Compare(vb))
}

// IsNewer reports whether candidate denotes a strictly newer version than
// deployed. An unknown comparison is not an update.
func IsNewer(candidate, deployed string) bool {
	return CompareID(candidate, deployed) == ResultNewer
}

func resultFromCompare(c int) Result {
	switch {
	case c < 0:
		return ResultOlder
	case c > 0:
		return ResultNewer
	}
	return ResultEqual
}
