// Package version tells which build of tabalchi is running.
package version

import (
	"runtime/debug"
	"strings"
)

// Version can be set at build time, e.g.
// go build -ldflags "-X github.com/shreyanmitra/tabalchi/version.Version=$(git describe --dirty)"
var Version string

// Hash is the short VCS revision the binary was built from, with a "-dirty"
// suffix for a modified work tree, or "" if the build has no VCS info.
var Hash = vcsHash()

// VersionOrHash is Version if it was set, Hash otherwise.
var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	return Hash
}()

func vcsHash() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var revision string
	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if revision == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(revision)
	if modified {
		b.WriteString("-dirty")
	}
	return b.String()
}
