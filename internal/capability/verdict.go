// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package capability resolves canPlayType-style queries against static
// container and codec tables plus runtime feature flags.
package capability

// Verdict is the three-valued answer to a capability query.
type Verdict string

const (
	Probably    Verdict = "probably"
	Maybe       Verdict = "maybe"
	Unsupported Verdict = ""
)

// String returns a printable name; Unsupported prints as "unsupported".
func (v Verdict) String() string {
	if v == Unsupported {
		return "unsupported"
	}
	return string(v)
}

type Reason string

const (
	ReasonContainerUnknown  Reason = "container_unknown"
	ReasonContainerDisabled Reason = "container_disabled"
	ReasonNoCodecs          Reason = "no_codecs"
	ReasonCodecUnknown      Reason = "codec_unknown"
	ReasonCodecDisabled     Reason = "codec_disabled"
	ReasonCodecsSupported   Reason = "codecs_supported"
)

// Result is the diagnostic form of a verdict.
type Result struct {
	Verdict  Verdict
	Reason   Reason
	Query    MimeQuery
	Family   string
	// Rejected is the first codec token that failed validation, if any.
	Rejected string
}
