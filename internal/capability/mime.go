// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capability

import "strings"

// MimeQuery is a parsed container type with its optional codec list.
type MimeQuery struct {
	Container string   `json:"container"`
	Codecs    []string `json:"codecs"`
	// HasCodecs is true only when a codecs parameter yielded at least one token.
	HasCodecs bool `json:"hasCodecs"`
}

// ParseQuery splits a MIME string of the form
//
//	type/subtype[; codecs="tok[, tok]*"]
//
// into a MimeQuery. It never fails: irregular parameter syntax degrades to
// "no codec hint".
func ParseQuery(s string) MimeQuery {
	container, params, _ := strings.Cut(s, ";")
	q := MimeQuery{Container: strings.TrimSpace(container)}

	value, ok := codecsParam(params)
	if !ok {
		return q
	}
	q.Codecs = splitCodecs(value)
	q.HasCodecs = len(q.Codecs) > 0
	return q
}

// codecsParam returns the raw value of the first codecs parameter.
// An unterminated quoted value is reported as absent.
func codecsParam(params string) (string, bool) {
	rest := params
	for rest != "" {
		rest = strings.TrimLeft(rest, " \t;")
		if rest == "" {
			break
		}
		idx := strings.IndexAny(rest, "=;")
		if idx < 0 {
			return "", false
		}
		if rest[idx] == ';' {
			// bare attribute without a value
			rest = rest[idx+1:]
			continue
		}
		key := strings.TrimSpace(rest[:idx])
		after := strings.TrimLeft(rest[idx+1:], " \t")

		var value string
		if strings.HasPrefix(after, `"`) {
			end := strings.IndexByte(after[1:], '"')
			if end < 0 {
				return "", false
			}
			value = after[1 : end+1]
			rest = after[end+2:]
		} else {
			value, rest, _ = strings.Cut(after, ";")
		}

		if strings.EqualFold(key, "codecs") {
			return value, true
		}
	}
	return "", false
}

func splitCodecs(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// String renders the query back into canonical MIME form.
func (q MimeQuery) String() string {
	if !q.HasCodecs {
		return q.Container
	}
	return q.Container + `; codecs="` + strings.Join(q.Codecs, ", ") + `"`
}
