// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capability

// QueryCache memoises ParseQuery. Parsing does not depend on flags, so a
// cached query never carries a stale verdict.
type QueryCache interface {
	GetQuery(raw string) (MimeQuery, bool)
	SetQuery(raw string, q MimeQuery)
}

// Resolver answers capability queries. It holds no mutable state of its own
// and may be shared between goroutines.
type Resolver struct {
	reg   *Registry
	flags Flags
	cache QueryCache
}

type Option func(*Resolver)

// WithQueryCache memoises parsing through c.
func WithQueryCache(c QueryCache) Option {
	return func(r *Resolver) { r.cache = c }
}

// NewResolver builds a resolver over reg reading flags at call time.
// A nil registry selects DefaultRegistry; nil flags read the registry defaults.
func NewResolver(reg *Registry, flags Flags, opts ...Option) *Resolver {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if flags == nil {
		flags = StaticFlags(reg.DefaultFlags())
	}
	r := &Resolver{reg: reg, flags: flags}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the tables the resolver consults.
func (r *Resolver) Registry() *Registry { return r.reg }

// Resolve returns the verdict for a MIME string.
func (r *Resolver) Resolve(mime string) Verdict {
	return r.Explain(mime).Verdict
}

// Explain resolves a MIME string and reports why.
func (r *Resolver) Explain(mime string) Result {
	return r.ExplainQuery(r.parse(mime))
}

// ExplainQuery resolves an already parsed query.
func (r *Resolver) ExplainQuery(q MimeQuery) Result {
	res := Result{Query: q}

	container, ok := r.reg.Container(q.Container)
	if !ok {
		res.Reason = ReasonContainerUnknown
		return res
	}
	res.Family = container.Family
	if container.Flag != "" && !r.flags.Flag(container.Flag) {
		res.Reason = ReasonContainerDisabled
		return res
	}

	if !q.HasCodecs {
		res.Verdict = Maybe
		res.Reason = ReasonNoCodecs
		return res
	}

	for _, token := range q.Codecs {
		if reason := r.checkCodec(token); reason != "" {
			res.Reason = reason
			res.Rejected = token
			return res
		}
	}

	res.Verdict = Probably
	res.Reason = ReasonCodecsSupported
	return res
}

// checkCodec validates one token. Audio and video tokens are accepted by
// every alias of the family. It returns the failure reason, or "" when the
// token is accepted.
func (r *Resolver) checkCodec(token string) Reason {
	codec, ok := r.reg.Codec(token)
	if !ok {
		return ReasonCodecUnknown
	}
	if codec.Flag != "" && !r.flags.Flag(codec.Flag) {
		return ReasonCodecDisabled
	}
	return ""
}

func (r *Resolver) parse(mime string) MimeQuery {
	if r.cache == nil {
		return ParseQuery(mime)
	}
	if q, ok := r.cache.GetQuery(mime); ok {
		return q
	}
	q := ParseQuery(mime)
	r.cache.SetQuery(mime, q)
	return q
}
