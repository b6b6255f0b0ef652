package version

import (
	"runtime/debug"
	"strings"
)

// String builds the one-line version banner printed by -version. Values
// injected via -ldflags win; unset or placeholder values fall back to Go
// module build info when available.
func String(version, commit, date string) string {
	v := strings.TrimSpace(version)
	c := strings.TrimSpace(commit)
	d := strings.TrimSpace(date)

	if info, ok := debug.ReadBuildInfo(); ok {
		if isPlaceholder(v, "dev", "(devel)") {
			if mv := strings.TrimSpace(info.Main.Version); mv != "" && mv != "(devel)" {
				v = mv
			}
		}
		if isPlaceholder(c, "unknown") {
			c = setting(info, "vcs.revision")
		}
		if isPlaceholder(d, "unknown") {
			d = setting(info, "vcs.time")
		}
	}

	if v == "" {
		v = "dev"
	}
	out := v
	if c != "" && c != "unknown" {
		out += " (" + c + ")"
	}
	if d != "" && d != "unknown" {
		out += " " + d
	}
	return out
}

func isPlaceholder(v string, placeholders ...string) bool {
	if v == "" {
		return true
	}
	for _, p := range placeholders {
		if v == p {
			return true
		}
	}
	return false
}

func setting(info *debug.BuildInfo, key string) string {
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}
