// Package version holds the build version, overridable with -ldflags "-X narrascroll/pkg/version.Version=...".
package version

// Version is the application version.
var Version = "v0.3.0"
