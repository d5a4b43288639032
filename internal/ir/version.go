package ir

// Version constants for the wire format and the tool.
const (
	// SnapshotVersion is the version of the exported store envelope.
	SnapshotVersion = "1"

	// ToolVersion is the specstore release.
	ToolVersion = "0.1.0"
)
