// Package version exposes the build version of the newsbatch binary.
package version

// Version is set at build time via -ldflags "-X .../pkg/version.Version=v1.2.3".
var Version = "dev" //nolint:gochecknoglobals // Set by the linker at build time

// GetVersion returns the version string embedded in the binary.
func GetVersion() string {
	return Version
}
