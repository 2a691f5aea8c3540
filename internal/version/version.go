// Package version holds the build version string, overridden at link time.
package version

var Version = "dev"
