// Package version exposes build-time version metadata.
package version

// Name is the tool name embedded in every generated artifact.
const Name = "sinkhole"

// Version is the semantic version string embedded at build time.
var Version = "0.0.0-src"

// Set version at compile time with
// go build -ldflags "-X sinkhole/pkg/version.Version=1.0.0" -o sinkhole

// For a release build with version and optimization flags:
// go build -ldflags "-s -w -X sinkhole/pkg/version.Version=1.0.0" -o sinkhole
