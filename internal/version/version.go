package version

import "fmt"

// Set at build time via -ldflags.
var (
	Version   = "0.1.0"
	BuildTime = "development"
	GitCommit = "unknown"
)

// Info is the shape returned by the version endpoint.
type Info struct {
	Version   string `json:"version"`
	BuildTime string `json:"buildTime"`
	GitCommit string `json:"gitCommit"`
}

func String() string {
	return fmt.Sprintf("v%s", Version)
}

func Get() Info {
	return Info{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}
}
