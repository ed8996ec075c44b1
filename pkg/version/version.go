// Package version holds the build version, overridden at link time with
// -ldflags "-X github.com/getpup/polestar-search/pkg/version.Version=...".
package version

// Version is the released version of polestar-search.
var Version = "0.1.0-dev"
