// Package buildinfo carries version metadata stamped at build time.
package buildinfo

// Version is overridden by the linker on release builds:
//
//	go build -ldflags "-X fleetwatch/internal/support/buildinfo.Version=v1.2.3"
var Version = "dev"
