package log

import (
	"os"
	"runtime/debug"
)

// VersionLogKey is the key Version is logged under.
const VersionLogKey = "v"

// VersionEnv is the environment variable Version falls back to.
const VersionEnv = "POSIXMQ_VERSION"

// Version tags every log line (as VersionLogKey) and every sentry event
// (as release and the "version" tag) once the logger or sentry is initialized.
//
// It can be stamped at build time:
//
//	go build -ldflags "-X github.com/reddit/posixmq.go/log.Version=$(git rev-parse HEAD)"
//
// Otherwise it's read from the vcs info of the binary, then the tagged main
// module version, then $POSIXMQ_VERSION.
// Changing it after Init* calls has no effect until they are called again.
var Version string

func init() {
	info, _ := debug.ReadBuildInfo()
	Version = resolveVersion(Version, info, os.Getenv)
}

func resolveVersion(stamped string, info *debug.BuildInfo, getenv func(string) string) string {
	if stamped != "" {
		return stamped
	}
	if info != nil {
		var revision string
		var dirty bool
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				revision = s.Value
			case "vcs.modified":
				dirty = s.Value == "true"
			}
		}
		if revision != "" {
			if dirty {
				return revision + "-dirty"
			}
			return revision
		}
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return getenv(VersionEnv)
}
