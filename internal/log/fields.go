// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldService   = "service"
	FieldVersion   = "version"
	FieldRequestID = "request_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Capability fields
	FieldMime      = "mime"
	FieldContainer = "container"
	FieldCodec     = "codec"
	FieldVerdict   = "verdict"
	FieldReason    = "reason"
	FieldFlag      = "flag"
	FieldBackend   = "backend"

	// HTTP fields
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
	FieldRemote   = "remote_addr"
)
