// Package version reports the version of the zrythm tools.
package version

import (
	"fmt"
	"runtime/debug"
)

// You can set the version at build time using something like:
// go build -ldflags "-X github.com/zrythm/zrythm-sub015/version.Version=$(git describe --dirty)"

var Version string

// Hash is the short VCS revision the binary was built from, with a -dirty
// suffix for modified working trees.
var Hash = func() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return vcsHash(info.Settings)
	}
	return ""
}()

var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	return Hash
}()

func vcsHash(settings []debug.BuildSetting) string {
	var revision string
	modified := false
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if revision == "" {
		return ""
	}
	revision = revision[:min(len(revision), 7)]
	if modified {
		return revision + "-dirty"
	}
	return revision
}

// String formats the version line printed by the -v flag of the tools.
func String(tool string) string {
	v := VersionOrHash
	if v == "" {
		v = "(devel)"
	}
	return fmt.Sprintf("%s %s", tool, v)
}
