// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// StreamHub is the canonical application identifier used for filesystem paths and CLI branding.
	StreamHub = "streamhub"

	// Version is the current application semantic version string.
	Version = "0.3.0"

	// UserAgent is sent with every request to the video hosting API.
	UserAgent = StreamHub + "/" + Version
)

// Build metadata, overridden at link time via -ldflags.
var (
	BuiltAt  string
	BuiltBy  string
	Revision string
)
