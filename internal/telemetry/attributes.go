// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"context"

	"github.com/ManuGH/canplay/internal/capability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on canplay spans.
const (
	MimeKey       = "canplay.mime"
	ContainerKey  = "canplay.container"
	CodecCountKey = "canplay.codec_count"
	VerdictKey    = "canplay.verdict"
	ReasonKey     = "canplay.reason"
	RejectedKey   = "canplay.rejected"
	BatchSizeKey  = "canplay.batch_size"

	FlagNameKey    = "flag.name"
	FlagValueKey   = "flag.value"
	FlagBackendKey = "flag.backend"
)

// SpanResolve names the span wrapping one capability query.
const SpanResolve = "capability.resolve"

// ResolveAttributes describes a resolver result.
func ResolveAttributes(mime string, res capability.Result) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(MimeKey, mime),
		attribute.String(ContainerKey, res.Query.Container),
		attribute.Int(CodecCountKey, len(res.Query.Codecs)),
		attribute.String(VerdictKey, res.Verdict.String()),
		attribute.String(ReasonKey, string(res.Reason)),
	}
	if res.Rejected != "" {
		attrs = append(attrs, attribute.String(RejectedKey, res.Rejected))
	}
	return attrs
}

// FlagAttributes describes a flag write.
func FlagAttributes(backend, name string, value bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(FlagBackendKey, backend),
		attribute.String(FlagNameKey, name),
		attribute.Bool(FlagValueKey, value),
	}
}

// TraceResolve runs Explain inside a capability.resolve span.
func TraceResolve(ctx context.Context, r *capability.Resolver, mime string) capability.Result {
	_, span := Tracer().Start(ctx, SpanResolve, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	res := r.Explain(mime)
	span.SetAttributes(ResolveAttributes(mime, res)...)
	return res
}
