// Package version holds build metadata, set at link time with -ldflags "-X".
package version

//nolint:gochecknoglobals // set by the linker
var (
	name    = "afesim"
	version = "dev"
	commit  = "unknown"
)

// Name of the binary.
func Name() string {
	return name
}

// Version is the release tag.
func Version() string {
	return version
}

// Commit is the git commit the binary was built from.
func Commit() string {
	return commit
}
