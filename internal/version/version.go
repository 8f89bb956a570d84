package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set at build time with -ldflags "-X leasemeter/internal/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info represents version information
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns version information
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns a string representation of version information
func (i Info) String() string {
	return fmt.Sprintf("leasemeter %s (commit %s, built %s, %s %s)",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}

// SSHClientVersion returns the identification string sent during the SSH
// handshake. RFC 4253 forbids spaces and '-' in the software version.
func SSHClientVersion() string {
	v := strings.NewReplacer(" ", "_", "-", "_").Replace(Version)
	return "SSH-2.0-leasemeter_" + v
}
