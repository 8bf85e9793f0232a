// Package version reports build information for the gones NES emulator.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// These are set at build time via -ldflags.
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// buildInfo is the set of fields PrintBuildInfo reports; unlike the
// teacher's BuildInfo, it carries no BuildUser or CGOEnabled field and
// no JSON tags, since nothing here serializes it.
type buildInfo struct {
	version   string
	gitCommit string
	buildTime string
	goVersion string
	platform  string
	arch      string
}

// currentBuildInfo fills buildInfo from the -ldflags vars, falling back
// to the VCS stamp embedded by the Go toolchain when they're unset.
func currentBuildInfo() buildInfo {
	info := buildInfo{
		version:   Version,
		gitCommit: GitCommit,
		buildTime: BuildTime,
		goVersion: runtime.Version(),
		platform:  runtime.GOOS,
		arch:      runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.gitCommit == "unknown" {
					info.gitCommit = setting.Value
				}
			case "vcs.time":
				if info.buildTime == "unknown" {
					info.buildTime = setting.Value
				}
			}
		}
	}

	return info
}

// PrintBuildInfo prints formatted build information for the -version
// flag.
func PrintBuildInfo() {
	info := currentBuildInfo()

	fmt.Printf("gones - Go NES Emulator\n")
	fmt.Printf("Version:    %s\n", info.version)
	fmt.Printf("Git Commit: %s\n", info.gitCommit)
	fmt.Printf("Build Time: %s\n", info.buildTime)
	fmt.Printf("Go Version: %s\n", info.goVersion)
	fmt.Printf("Platform:   %s/%s\n", info.platform, info.arch)
}
