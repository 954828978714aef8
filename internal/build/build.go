// Package build carries version information stamped at build time.
package build

// Version is overridden by the linker for release builds, eg
//
//	go build -ldflags "-X github.com/drummonds/goPDFTools/internal/build.Version=v1.2.0"
var Version = "dev"
