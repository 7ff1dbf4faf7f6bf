// Package version provides information about the build version of the service.
package version

// BuildInfo holds version information about the service build.
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information stamped at link time:
// -ldflags "-X 'almgetl/internal/core/version.version=v0.1.0' -X 'almgetl/internal/core/version.commit=abcd'"
func Info() BuildInfo {
	return BuildInfo{
		Service: "almgetl",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
