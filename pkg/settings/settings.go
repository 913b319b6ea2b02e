// Package settings provides build metadata, per-invocation parameters, and
// context helpers used across the jqx CLI.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "jqx"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build, including the commit hash,
// build version, and build timestamp.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Run holds the parameters of a single jqx invocation as parsed from the
// command line. Zero values mean "use the configured default".
type Run struct {
	MinLogLevel int8
	// Files are the JSON inputs handed to jq. Empty means stdin.
	Files []string
	// Command is the initial jq filter.
	Command string
	Slurp   bool
	// MaxCellWidth overrides the configured maximum cell width when > 0.
	MaxCellWidth  int
	ConfigPath    string
	LogFile       string
	JQBinary      string
	StartAtPrompt bool
	NoColor       bool
}

// NewCliParams returns the parameters of an invocation with no flags.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Command:     ".",
	}
}
