// Package consts holds build-time constants, mirroring the narrow role
// go.k6.io/k6/lib/consts plays for printing a version string.
package consts

// Version is the chrome-cli release version. Overridden at build time
// with -ldflags "-X .../internal/consts.Version=...".
var Version = "0.1.0"

// FullVersion returns the version string shown by `chrome-cli version`.
func FullVersion() string {
	return Version
}
