// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldComponent = "component"
	FieldEvent     = "event"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldAction   = "action"

	// Signal fields
	FieldPressure = "pressure"
	FieldNetwork  = "network"
	FieldStrategy = "strategy"
	FieldBitrate  = "bitrate"
	FieldReason   = "reason"

	// Cleanup fields
	FieldCleaner    = "cleaner"
	FieldPriority   = "priority"
	FieldBytesFreed = "bytes_freed"
)
