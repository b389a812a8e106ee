// Package version carries build metadata, set with -ldflags -X at release time.
package version

import (
	"fmt"
	"runtime"
	"time"
)

var (
	Version   = "dev"                           // ex: v0.1.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version()
)

// String summarizes the build for the startup log.
func String() string {
	return fmt.Sprintf("BookmarkPack %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}

// UserAgent returns the User-Agent sent on outbound requests.
func UserAgent() string {
	return "BookmarkPack/" + Version + " (+https://github.com/MrSnakeDoc/bookmarkpack)"
}
