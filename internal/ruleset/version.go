package ruleset

const (
	// FormatVersion is the rule set file format version. A rule set may
	// declare it with a top-level "format" field.
	FormatVersion = "1"

	// ToolVersion is the version rule set "requires" constraints are
	// checked against unless overridden with WithToolVersion.
	ToolVersion = "0.1.0"
)
