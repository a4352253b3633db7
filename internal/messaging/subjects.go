package messaging

// Subject constants for the runbridge message bus.
// Follow the pattern: {domain}.{resource}.{action}
const (
	// SubjectAssetsMaterialized carries one materialization event per message.
	SubjectAssetsMaterialized = "runbridge.assets.materialized"

	// SubjectChecksRequested carries the asset checks to run after a tick.
	SubjectChecksRequested = "runbridge.checks.requested"
)
