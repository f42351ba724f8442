package version

import (
	"fmt"
	"runtime"
)

var (
	version = "v0.0.1"
	// gitCommit is the git sha1 + dirty if build from a dirty git
	gitCommit = "none"
)

func GetVersion() string {
	return version
}

// BuildInfo describes the compiled time information.
type BuildInfo struct {
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
	GitCommit string `json:"git_commit,omitempty" yaml:"git_commit,omitempty"`
	GoVersion string `json:"go_version,omitempty" yaml:"go_version,omitempty"`
}

// String is the one-line form shown by --version.
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit %s, %s)", b.Version, b.GitCommit, b.GoVersion)
}

// Get returns build info
func Get() BuildInfo {
	return BuildInfo{
		Version:   GetVersion(),
		GitCommit: gitCommit,
		GoVersion: runtime.Version(),
	}
}
