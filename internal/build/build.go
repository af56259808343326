// Package build provides variables that are set at build-time
// with the -X ldflag. If the values are not given at build-time,
// they will be determined from [debug.BuildInfo].
package build

import (
	"regexp"
	"runtime/debug"
	"strings"
	"sync"
)

var (
	pkg       string
	version   string
	buildTime string
)

var (
	once      sync.Once
	semverExp = regexp.MustCompile(`v?\d+(\.\d+){0,2}`)
)

func semver(v string) string {
	loc := semverExp.FindStringIndex(v)
	if loc == nil {
		return v
	}
	return v[loc[0]:loc[1]]
}

func load() {
	if version != "" {
		version = semver(version)
	}
	if pkg != "" && version != "" && buildTime != "" {
		return
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	fromInfo(info)
}

func fromInfo(info *debug.BuildInfo) {
	if pkg == "" {
		pkg = info.Main.Path
	}
	if version == "" {
		version = info.Main.Version
	}
	if buildTime != "" {
		return
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.time" {
			buildTime = s.Value
			if t, ok := strings.CutSuffix(buildTime, "Z"); ok {
				buildTime = t + "+00:00"
			}
			break
		}
	}
}

// Package returns the main module path.
func Package() string {
	once.Do(load)
	return pkg
}

// Version returns the semantic version of the build, or "(devel)".
func Version() string {
	once.Do(load)
	return version
}

// BuildTime returns the commit time of the build, if known.
func BuildTime() string {
	once.Do(load)
	return buildTime
}
