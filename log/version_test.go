package log

import (
	"runtime/debug"
	"testing"
)

func TestResolveVersion(t *testing.T) {
	revision := func(modified string) []debug.BuildSetting {
		settings := []debug.BuildSetting{{Key: "vcs.revision", Value: "deadbeef"}}
		if modified != "" {
			settings = append(settings, debug.BuildSetting{Key: "vcs.modified", Value: modified})
		}
		return settings
	}
	env := map[string]string{VersionEnv: "from-env"}

	for _, c := range []struct {
		label   string
		stamped string
		info    *debug.BuildInfo
		env     map[string]string
		want    string
	}{
		{
			label:   "stamped",
			stamped: "v9",
			info:    &debug.BuildInfo{Settings: revision("true")},
			env:     env,
			want:    "v9",
		},
		{
			label: "clean",
			info:  &debug.BuildInfo{Settings: revision("false")},
			want:  "deadbeef",
		},
		{
			label: "dirty",
			info:  &debug.BuildInfo{Settings: revision("true")},
			want:  "deadbeef-dirty",
		},
		{
			label: "dirty-before-revision",
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.modified", Value: "true"},
				{Key: "vcs.revision", Value: "deadbeef"},
			}},
			want: "deadbeef-dirty",
		},
		{
			label: "revision-over-tag",
			info: &debug.BuildInfo{
				Main:     debug.Module{Version: "v1.0"},
				Settings: revision(""),
			},
			want: "deadbeef",
		},
		{
			label: "tag",
			info:  &debug.BuildInfo{Main: debug.Module{Version: "v1.0"}},
			env:   env,
			want:  "v1.0",
		},
		{
			label: "devel-falls-back-to-env",
			info:  &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			env:   env,
			want:  "from-env",
		},
		{
			label: "no-build-info",
			env:   env,
			want:  "from-env",
		},
		{
			label: "nothing",
			info:  &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			want:  "",
		},
	} {
		t.Run(c.label, func(t *testing.T) {
			getenv := func(key string) string { return c.env[key] }
			if got := resolveVersion(c.stamped, c.info, getenv); got != c.want {
				t.Errorf("got %q, want %q", got, c.want)
			}
		})
	}
}
