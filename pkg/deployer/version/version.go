package version

import "strings"

var (
	Version = "v0.1.0"
	Meta    = "dev"
)

// Format joins the version with the build metadata, e.g.
// v0.1.0-a1b2c3d4-1718000000 for a commit build or v0.1.0-dev for a local one.
func Format(version, gitCommit, gitDate, meta string) string {
	v := version
	if gitCommit != "" {
		if len(gitCommit) > 8 {
			gitCommit = gitCommit[:8]
		}
		v += "-" + gitCommit
	}
	if gitDate != "" {
		v += "-" + gitDate
	}
	if meta != "" && !strings.HasSuffix(v, "-"+meta) {
		v += "-" + meta
	}
	return v
}
