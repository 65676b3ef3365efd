// pkg/version/version.go - functions for displaying version information about a Go application.

package version

import (
	"fmt"
	"strings"
)

// These values are private which ensures they can only be set with the build flags.
var (
	version   = "0.1.0-dev"
	branch    = "unknown"
	revision  = "unknown"
	goVersion = "unknown"
	buildDate = "unknown"
	appName   = "lapptrack"
)

// Info is a structure with version build information about the current application.
type Info struct {
	Version   string `json:"version"`
	Branch    string `json:"branch"`
	Revision  string `json:"revision"`
	GoVersion string `json:"go_version"`
	BuildDate string `json:"build_date"`
}

// Version returns a structure with the current version information.
func Version() Info {
	return Info{
		Version:   version,
		Branch:    branch,
		Revision:  revision,
		GoVersion: goVersion,
		BuildDate: buildDate,
	}
}

// String returns the application name and version string.
func String() string {
	return fmt.Sprintf("%s %s", appName, version)
}

// FullString returns the application name and the detailed build
// information, one line per field.
func FullString() string {
	v := Version()
	return String() + "\n" +
		fmt.Sprintf("  branch: \t%s\n", v.Branch) +
		fmt.Sprintf("  revision: \t%s\n", v.Revision) +
		fmt.Sprintf("  build date: \t%s\n", v.BuildDate) +
		fmt.Sprintf("  go version: \t%s", v.GoVersion)
}

// Print outputs the application name and version string.
func Print() {
	fmt.Println(String())
}

// PrintFull prints the application name and detailed version information.
func PrintFull() {
	fmt.Println(FullString())
}

// UserAgent returns the HTTP User-Agent header value used by the download
// package. Some servers refuse requests coming from generic library user
// agents, so the project name with a short version is sent instead.
func UserAgent() string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return fmt.Sprintf("lappupdate/%s", version)
	}
	return fmt.Sprintf("lappupdate/%s.%s", parts[0], parts[1])
}

// Normalize trims trailing ".0" segments from version strings.
func Normalize(version string) string {
	parts := strings.Split(version, ".")
	for len(parts) > 1 && parts[len(parts)-1] == "0" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}
