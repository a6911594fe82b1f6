package version

import (
	"fmt"
	"strings"
	"sync"
)

// buildCharset lists the characters allowed in appBuild.
const buildCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-."

const (
	appMajor uint = 0
	appMinor uint = 3
	appPatch uint = 0
)

// appBuild may be set at link time with
// -ldflags "-X github.com/chainsnap/chainsnapd/version.appBuild=foo".
var appBuild string

var (
	versionOnce sync.Once
	version     string
)

// Version returns the semantic version of the node, with the build metadata
// appended when it is well formed.
func Version() string {
	versionOnce.Do(func() {
		version = fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
		if build := sanitizeBuild(appBuild); build != "" {
			version = version + "-" + build
		}
	})
	return version
}

// Numeric returns the version encoded as major*10000 + minor*100 + patch, the
// form reported by getnetworkinfo.
func Numeric() int {
	return int(appMajor*10000 + appMinor*100 + appPatch)
}

func sanitizeBuild(build string) string {
	for _, r := range build {
		if !strings.ContainsRune(buildCharset, r) {
			return ""
		}
	}
	return build
}
