package version

// Version is set at build time with
// -ldflags "-X github.com/wallarm/wafpresence/internal/version.Version=...".
var Version = "unknown"
