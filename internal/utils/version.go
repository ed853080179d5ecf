package utils

import "runtime/debug"

// BuildVersion is set at link time with -ldflags "-X playout-engine/internal/utils.BuildVersion=..."
var BuildVersion = ""

type BuildInfo struct {
	Version  string `json:"version"`
	Revision string `json:"revision,omitempty"`
	Modified bool   `json:"modified,omitempty"`
}

// ReadBuildInfo combines BuildVersion with the VCS stamp of the binary.
func ReadBuildInfo() BuildInfo {
	build := BuildInfo{Version: BuildVersion}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		if build.Version == "" {
			build.Version = "unknown"
		}
		return build
	}

	if build.Version == "" {
		build.Version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			build.Revision = setting.Value
		case "vcs.modified":
			build.Modified = setting.Value == "true"
		}
	}
	if build.Modified && BuildVersion == "" {
		build.Version += "-dirty"
	}
	return build
}
