package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

// Set at build time with -ldflags -X.
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Info is the build metadata of the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var buildInfo = sync.OnceValue(func() *debug.BuildInfo {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return bi
})

// Get returns the build metadata. Values set through ldflags win over the
// VCS stamps the toolchain embeds.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi := buildInfo(); bi != nil {
		applyVCS(&info, bi.Settings)
	}
	if len(info.Commit) > 7 {
		info.Commit = info.Commit[:7]
	}
	return info
}

func applyVCS(info *Info, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
}

// IsRelease reports whether the binary carries a real version.
func (i Info) IsRelease() bool {
	return i.Version != "dev" && i.Version != "" && !i.Modified
}

// Short is the version plus the commit when known, e.g. "1.2.0-abc1234".
func (i Info) Short() string {
	parts := []string{i.Version}
	if i.Commit != "" {
		parts = append(parts, i.Commit)
	}
	if i.Modified {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "-")
}

// String is Short plus the build time.
func (i Info) String() string {
	if i.BuildTime == "" {
		return i.Short()
	}
	return i.Short() + " (built " + i.BuildTime + ")"
}
