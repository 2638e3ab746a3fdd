package sgmail

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Version information injected at build time via ldflags.
// The values below are fallbacks for development builds.
var (
	// Version is the semantic version of the library.
	Version = "dev"

	// GitCommit is the git commit hash when the binary was built.
	GitCommit = "unknown"

	// BuildDate is the date when the binary was built.
	BuildDate = "unknown"
)

// VersionInfo contains detailed version information.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns detailed version information.
func GetVersionInfo() *VersionInfo {
	info := &VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" {
				info.GitCommit = setting.Value
				if len(info.GitCommit) > 12 {
					info.GitCommit = info.GitCommit[:12]
				}
			}
		case "vcs.time":
			if info.BuildDate == "unknown" {
				info.BuildDate = setting.Value
			}
		case "vcs.modified":
			if setting.Value == "true" && !strings.HasSuffix(info.GitCommit, "-dirty") {
				info.GitCommit += "-dirty"
			}
		}
	}

	return info
}

// String returns a human-readable version string.
func (v *VersionInfo) String() string {
	parts := []string{"Version: " + v.Version}

	if v.GitCommit != "unknown" && v.GitCommit != "" {
		parts = append(parts, "Commit: "+v.GitCommit)
	}

	if v.BuildDate != "unknown" && v.BuildDate != "" {
		parts = append(parts, "Built: "+v.BuildDate)
	}

	parts = append(parts, "Go: "+v.GoVersion, "Platform: "+v.Platform)

	return strings.Join(parts, ", ")
}

// UserAgent returns the user agent sent with provider HTTP requests.
func (v *VersionInfo) UserAgent() string {
	return fmt.Sprintf("lattiq-sgmail/%s (%s)", v.Version, v.Platform)
}
