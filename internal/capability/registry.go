// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capability

import (
	"sort"
	"strings"
)

type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// Flag names consulted by the default tables.
const (
	FlagMatroskaEnabled = "media.mkv.enabled"
	FlagAV1Enabled      = "media.av1.enabled"
)

const FamilyMatroska = "matroska"

// ContainerEntry maps one MIME alias to a container family.
type ContainerEntry struct {
	Alias  string `json:"alias"`
	Family string `json:"family"`
	// Video marks the video/* form of an alias. Codec acceptance does not depend on it.
	Video bool `json:"video"`
	// Flag, when set, gates the whole alias.
	Flag             string `json:"flag,omitempty"`
	EnabledByDefault bool   `json:"enabledByDefault"`
}

// CodecEntry describes one recognised codec token.
type CodecEntry struct {
	Token string `json:"token"`
	Kind  Kind   `json:"kind"`
	// Profiled entries also match "<token>.<profile>" forms such as mp4a.40.2.
	Profiled         bool   `json:"profiled"`
	Flag             string `json:"flag,omitempty"`
	EnabledByDefault bool   `json:"enabledByDefault"`
}

func (c CodecEntry) matches(token string) bool {
	if token == c.Token {
		return true
	}
	return c.Profiled && strings.HasPrefix(token, c.Token+".")
}

// Registry holds the immutable container and codec tables.
type Registry struct {
	containers map[string]ContainerEntry
	exact      map[string]CodecEntry
	profiled   []CodecEntry
	codecs     []CodecEntry
}

// NewRegistry indexes the given tables. Later duplicates of an alias or a
// token replace earlier ones.
func NewRegistry(containers []ContainerEntry, codecs []CodecEntry) *Registry {
	r := &Registry{
		containers: make(map[string]ContainerEntry, len(containers)),
		exact:      make(map[string]CodecEntry, len(codecs)),
	}
	for _, c := range containers {
		r.containers[c.Alias] = c
	}
	for _, c := range codecs {
		if _, dup := r.exact[c.Token]; !dup {
			r.codecs = append(r.codecs, c)
		}
		r.exact[c.Token] = c
	}
	for _, c := range r.codecs {
		c = r.exact[c.Token]
		if c.Profiled {
			r.profiled = append(r.profiled, c)
		}
	}
	return r
}

var defaultContainers = []ContainerEntry{
	{Alias: "video/x-matroska", Family: FamilyMatroska, Video: true, Flag: FlagMatroskaEnabled, EnabledByDefault: true},
	{Alias: "audio/x-matroska", Family: FamilyMatroska, Flag: FlagMatroskaEnabled, EnabledByDefault: true},
	{Alias: "video/mkv", Family: FamilyMatroska, Video: true, Flag: FlagMatroskaEnabled, EnabledByDefault: true},
	{Alias: "audio/mkv", Family: FamilyMatroska, Flag: FlagMatroskaEnabled, EnabledByDefault: true},
}

var defaultCodecs = []CodecEntry{
	{Token: "vp8", Kind: KindVideo},
	{Token: "vp8.0", Kind: KindVideo},
	{Token: "vp08", Kind: KindVideo, Profiled: true},
	{Token: "vp9", Kind: KindVideo},
	{Token: "vp9.0", Kind: KindVideo},
	{Token: "vp09", Kind: KindVideo, Profiled: true},
	{Token: "avc1", Kind: KindVideo, Profiled: true},
	{Token: "h264", Kind: KindVideo, Profiled: true},
	{Token: "hvc1", Kind: KindVideo, Profiled: true},
	{Token: "hev1", Kind: KindVideo, Profiled: true},
	{Token: "hevc", Kind: KindVideo, Profiled: true},
	{Token: "av01", Kind: KindVideo, Profiled: true, Flag: FlagAV1Enabled, EnabledByDefault: true},

	{Token: "vorbis", Kind: KindAudio},
	{Token: "opus", Kind: KindAudio},
	{Token: "mp4a", Kind: KindAudio, Profiled: true},
	{Token: "aac", Kind: KindAudio, Profiled: true},
}

var defaultRegistry = NewRegistry(defaultContainers, defaultCodecs)

// DefaultRegistry returns the built-in Matroska tables.
func DefaultRegistry() *Registry { return defaultRegistry }

// Container looks up an alias. Matching is case-sensitive.
func (r *Registry) Container(alias string) (ContainerEntry, bool) {
	c, ok := r.containers[alias]
	return c, ok
}

// Codec finds the entry for a token: exact match first, then the
// longest profiled prefix.
func (r *Registry) Codec(token string) (CodecEntry, bool) {
	if c, ok := r.exact[token]; ok {
		return c, true
	}
	var best CodecEntry
	found := false
	for _, c := range r.profiled {
		if c.matches(token) && (!found || len(c.Token) > len(best.Token)) {
			best, found = c, true
		}
	}
	return best, found
}

// Containers returns the alias table sorted by alias.
func (r *Registry) Containers() []ContainerEntry {
	out := make([]ContainerEntry, 0, len(r.containers))
	for _, c := range r.containers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}

// Codecs returns the codec table in declaration order.
func (r *Registry) Codecs() []CodecEntry {
	out := make([]CodecEntry, len(r.codecs))
	for i, c := range r.codecs {
		out[i] = r.exact[c.Token]
	}
	return out
}

// DefaultFlags reports the default value of every flag named by the tables.
// A flag shared by several entries is enabled if any entry enables it.
func (r *Registry) DefaultFlags() map[string]bool {
	out := make(map[string]bool)
	for _, c := range r.containers {
		if c.Flag != "" {
			out[c.Flag] = out[c.Flag] || c.EnabledByDefault
		}
	}
	for _, c := range r.exact {
		if c.Flag != "" {
			out[c.Flag] = out[c.Flag] || c.EnabledByDefault
		}
	}
	return out
}

// KnownFlag reports whether name is consulted by any table entry.
func (r *Registry) KnownFlag(name string) bool {
	_, ok := r.DefaultFlags()[name]
	return ok
}
