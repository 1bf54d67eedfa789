// Package version holds build information set at link time with
// -ldflags "-X github.com/Norgate-AV/lessbuild/internal/version.Version=...".
package version

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// String formats the build information for --version output.
func String() string {
	return Version + " (" + Commit + ") " + BuildTime
}
