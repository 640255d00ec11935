// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capability

import (
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	videoTokens = []string{"vp8", "vp8.0", "vp9", "vp9.0", "avc1", "h264", "hvc1", "hevc"}
	audioTokens = []string{"vorbis", "opus", "mp4a", "aac"}
	allAliases  = []string{"video/x-matroska", "audio/x-matroska", "video/mkv", "audio/mkv"}
	videoAlias  = []string{"video/x-matroska", "video/mkv"}
)

func enabledFlags() StaticFlags {
	return StaticFlags{FlagMatroskaEnabled: true, FlagAV1Enabled: true}
}

func TestResolve_MatroskaMatrix(t *testing.T) {
	t.Parallel()
	r := NewResolver(nil, enabledFlags())

	for _, alias := range allAliases {
		assert.Equal(t, Maybe, r.Resolve(alias), alias)
		for _, a := range audioTokens {
			mime := alias + "; codecs=" + a
			assert.Equal(t, Probably, r.Resolve(mime), mime)
		}
		for _, v := range append(videoTokens, "av01") {
			mime := alias + "; codecs=" + v
			assert.Equal(t, Probably, r.Resolve(mime), mime)
		}
	}

	for _, alias := range videoAlias {
		for _, v := range videoTokens {
			for _, a := range audioTokens {
				va := alias + `; codecs="` + v + ", " + a + `"`
				av := alias + `; codecs="` + a + ", " + v + `"`
				assert.Equal(t, Probably, r.Resolve(va), va)
				assert.Equal(t, Probably, r.Resolve(av), av)
			}
		}
	}
}

func TestResolve_UnknownCodecPoisonsQuery(t *testing.T) {
	t.Parallel()
	r := NewResolver(nil, enabledFlags())

	for _, alias := range videoAlias {
		for _, suffix := range []string{"codecs=xyz", "codecs=xyz,vorbis", "codecs=vorbis,xyz"} {
			mime := alias + "; " + suffix
			res := r.Explain(mime)
			assert.Equal(t, Unsupported, res.Verdict, mime)
			assert.Equal(t, ReasonCodecUnknown, res.Reason, mime)
			assert.Equal(t, "xyz", res.Rejected, mime)
		}
	}
}

func TestResolve_AV1FlagRoundTrip(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	av1 := true
	flags := FlagFunc(func(name string) bool {
		mu.Lock()
		defer mu.Unlock()
		switch name {
		case FlagAV1Enabled:
			return av1
		case FlagMatroskaEnabled:
			return true
		}
		return false
	})
	r := NewResolver(nil, flags)

	for _, alias := range videoAlias {
		assert.Equal(t, Probably, r.Resolve(alias+`; codecs="av01"`))
	}

	mu.Lock()
	av1 = false
	mu.Unlock()

	for _, alias := range videoAlias {
		res := r.Explain(alias + `; codecs="av01"`)
		assert.Equal(t, Unsupported, res.Verdict)
		assert.Equal(t, ReasonCodecDisabled, res.Reason)
	}
	// ungated codecs are unaffected
	assert.Equal(t, Probably, r.Resolve(`video/mkv; codecs="vp9, opus"`))
}

func TestResolve_ContainerFlag(t *testing.T) {
	t.Parallel()
	r := NewResolver(nil, StaticFlags{FlagAV1Enabled: true})

	for _, alias := range allAliases {
		res := r.Explain(alias)
		assert.Equal(t, Unsupported, res.Verdict, alias)
		assert.Equal(t, ReasonContainerDisabled, res.Reason, alias)
		assert.Equal(t, Unsupported, r.Resolve(alias+"; codecs=opus"), alias)
	}
}

func TestResolve_EdgeCases(t *testing.T) {
	t.Parallel()
	r := NewResolver(nil, enabledFlags())

	tests := []struct {
		mime       string
		wantV      Verdict
		wantReason Reason
	}{
		{"video/unknown", Unsupported, ReasonContainerUnknown},
		{`video/unknown; codecs="vp8"`, Unsupported, ReasonContainerUnknown},
		{"Video/MKV", Unsupported, ReasonContainerUnknown},
		{"video/webm", Unsupported, ReasonContainerUnknown},
		{`video/mkv; codecs=""`, Maybe, ReasonNoCodecs},
		{`video/mkv; codecs="vp8`, Maybe, ReasonNoCodecs},
		{`video/mkv; codecs="opus, opus"`, Probably, ReasonCodecsSupported},
		{`audio/mkv; codecs=vp9`, Probably, ReasonCodecsSupported},
		{`audio/x-matroska; codecs="opus, vp8"`, Probably, ReasonCodecsSupported},
		{`audio/mkv; codecs="av01"`, Probably, ReasonCodecsSupported},
		{`video/mkv; codecs="mp4a.40.2, avc1.42E01E"`, Probably, ReasonCodecsSupported},
		{`video/mkv; codecs="vp09.00.10.08"`, Probably, ReasonCodecsSupported},
		{`video/mkv; codecs="hev1.1.6.L93.B0"`, Probably, ReasonCodecsSupported},
		{`video/mkv; codecs="av01.0.04M.08"`, Probably, ReasonCodecsSupported},
		{`video/mkv; codecs="vp8.1"`, Unsupported, ReasonCodecUnknown},
		{`video/mkv; codecs="mp4ax"`, Unsupported, ReasonCodecUnknown},
		{`video/mkv; codecs="OPUS"`, Unsupported, ReasonCodecUnknown},
	}

	for _, tt := range tests {
		res := r.Explain(tt.mime)
		assert.Equal(t, tt.wantV, res.Verdict, tt.mime)
		assert.Equal(t, tt.wantReason, res.Reason, tt.mime)
	}
}

func TestResolve_NilFlagsUseRegistryDefaults(t *testing.T) {
	r := NewResolver(nil, nil)
	assert.Equal(t, Maybe, r.Resolve("video/mkv"))
	assert.Equal(t, Probably, r.Resolve(`audio/mkv; codecs="av01, opus"`))

	// defaults come from the registry handed in, not the built-in tables
	reg := NewRegistry(
		[]ContainerEntry{{Alias: "video/x-test", Family: "test", Video: true, Flag: "test.container", EnabledByDefault: false}},
		[]CodecEntry{{Token: "vp9", Kind: KindVideo}},
	)
	assert.Equal(t, Unsupported, NewResolver(reg, nil).Resolve("video/x-test"))
}

// Random token lists: the verdict must not depend on order, repeated
// calls must agree, and a single bad token must poison the query.
func TestResolve_Properties(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, enabledFlags())
	rng := rand.New(rand.NewPCG(7, 11))
	good := append(append([]string{}, videoTokens...), audioTokens...)
	good = append(good, "av01", "mp4a.40.2", "avc1.64001F")
	bad := []string{"xyz", "theora", "flac", "vp10", "avc2"}

	for i := 0; i < 500; i++ {
		n := 1 + rng.IntN(4)
		tokens := make([]string, n)
		for j := range tokens {
			tokens[j] = good[rng.IntN(len(good))]
		}
		poisoned := rng.IntN(3) == 0
		if poisoned {
			b := bad[rng.IntN(len(bad))]
			pos := rng.IntN(n + 1)
			tokens = append(tokens[:pos], append([]string{b}, tokens[pos:]...)...)
		}
		alias := allAliases[rng.IntN(len(allAliases))]

		forward := alias + `; codecs="` + strings.Join(tokens, ", ") + `"`
		shuffled := append([]string{}, tokens...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		backward := alias + `; codecs="` + strings.Join(shuffled, ",") + `"`

		got := r.Resolve(forward)
		require.Equal(t, got, r.Resolve(forward), "idempotence: %s", forward)
		require.Equal(t, got, r.Resolve(backward), "order independence: %s vs %s", forward, backward)
		if poisoned {
			require.Equal(t, Unsupported, got, forward)
		} else {
			require.Equal(t, Probably, got, forward)
		}
	}
}

func TestResolve_Concurrent(t *testing.T) {
	t.Parallel()
	r := NewResolver(nil, enabledFlags())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if r.Resolve(`video/mkv; codecs="vp9, opus"`) != Probably {
					t.Error("unexpected verdict")
					return
				}
			}
		}()
	}
	wg.Wait()
}

type mapQueryCache struct {
	mu     sync.Mutex
	m      map[string]MimeQuery
	hits   int
	stores int
}

func (c *mapQueryCache) GetQuery(raw string) (MimeQuery, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.m[raw]
	if ok {
		c.hits++
	}
	return q, ok
}

func (c *mapQueryCache) SetQuery(raw string, q MimeQuery) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[raw] = q
	c.stores++
}

func TestResolve_QueryCacheDoesNotCacheVerdicts(t *testing.T) {
	t.Parallel()

	flags := StaticFlags{FlagMatroskaEnabled: true, FlagAV1Enabled: true}
	cache := &mapQueryCache{m: map[string]MimeQuery{}}
	r := NewResolver(nil, FlagFunc(func(name string) bool { return flags[name] }), WithQueryCache(cache))

	mime := `video/mkv; codecs="av01"`
	assert.Equal(t, Probably, r.Resolve(mime))
	flags[FlagAV1Enabled] = false
	assert.Equal(t, Unsupported, r.Resolve(mime))
	assert.Equal(t, 1, cache.stores)
	assert.Equal(t, 1, cache.hits)
}

func TestRegistry_DefaultFlags(t *testing.T) {
	reg := DefaultRegistry()
	assert.Equal(t, map[string]bool{FlagMatroskaEnabled: true, FlagAV1Enabled: true}, reg.DefaultFlags())
	assert.True(t, reg.KnownFlag(FlagAV1Enabled))
	assert.False(t, reg.KnownFlag("media.webm.enabled"))

	c, ok := reg.Codec("avc1.42E01E")
	require.True(t, ok)
	assert.Equal(t, "avc1", c.Token)
	assert.Len(t, reg.Containers(), 4)
	assert.Equal(t, "vp8", reg.Codecs()[0].Token)
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "unsupported", Unsupported.String())
	assert.Equal(t, "maybe", Maybe.String())
}
