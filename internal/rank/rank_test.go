package rank

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/streamsift/internal/classify"
	"github.com/xkilldash9x/streamsift/internal/config"
)

// Provides a standard configuration for ranking tests.
func defaultTestRankConfig() config.RankConfig {
	return config.RankConfig{
		KindWeights: map[string]float64{
			"master":  100.0,
			"media":   80.0,
			"segment": 20.0,
			// "unknown" intentionally omitted to test default 0.0 behavior
		},
		TrustBonus:     15.0,
		FirstPartyCDNs: []string{"akamaized.net"},
	}
}

func newCandidate(rawURL, host string, kind classify.Kind, seq int) classify.Candidate {
	return classify.Candidate{
		URL:           rawURL,
		NormalizedKey: rawURL,
		Kind:          kind,
		Host:          host,
		Seq:           seq,
	}
}

// A master manifest from an untrusted host must still outrank trusted
// lower kinds: no trust bonus may bridge a kind weight gap.
func TestRankKindDominatesTrust(t *testing.T) {
	t.Parallel()
	r := New(defaultTestRankConfig())

	snapshot := []classify.Candidate{
		newCandidate("https://play.example.com/chunklist.m3u8", "play.example.com", classify.KindMedia, 0),
		newCandidate("https://cdn.thirdparty.tv/master.m3u8", "cdn.thirdparty.tv", classify.KindMaster, 1),
	}

	entries := r.Rank(snapshot, "https://play.example.com/live")

	require.Len(t, entries, 2)
	assert.Equal(t, "https://cdn.thirdparty.tv/master.m3u8", entries[0].URL)
	assert.Equal(t, 100.0, entries[0].Score)
	// Trusted media playlist: 80.0 + 15.0 bonus, still below the master.
	assert.Equal(t, 95.0, entries[1].Score)
}

func TestRankTrustBreaksKindTies(t *testing.T) {
	t.Parallel()
	r := New(defaultTestRankConfig())

	// The trusted master arrives second; trust must still lift it to the top.
	snapshot := []classify.Candidate{
		newCandidate("https://cdn.thirdparty.tv/master.m3u8", "cdn.thirdparty.tv", classify.KindMaster, 0),
		newCandidate("https://play.example.com/master.m3u8", "play.example.com", classify.KindMaster, 1),
	}

	entries := r.Rank(snapshot, "https://play.example.com/live")

	require.Len(t, entries, 2)
	assert.Equal(t, "https://play.example.com/master.m3u8", entries[0].URL)
	assert.Equal(t, "https://cdn.thirdparty.tv/master.m3u8", entries[1].URL)
}

// When kind and trust are equal the earlier capture wins, keeping the
// overall order total and reproducible.
func TestRankFirstSeenBreaksFullTies(t *testing.T) {
	t.Parallel()
	r := New(defaultTestRankConfig())

	snapshot := []classify.Candidate{
		newCandidate("https://play.example.com/a/master.m3u8", "play.example.com", classify.KindMaster, 3),
		newCandidate("https://play.example.com/b/master.m3u8", "play.example.com", classify.KindMaster, 1),
		newCandidate("https://play.example.com/c/master.m3u8", "play.example.com", classify.KindMaster, 2),
	}

	entries := r.Rank(snapshot, "https://play.example.com/live")

	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].Seq)
	assert.Equal(t, 2, entries[1].Seq)
	assert.Equal(t, 3, entries[2].Seq)
}

func TestRankTrustSources(t *testing.T) {
	t.Parallel()
	r := New(defaultTestRankConfig())
	target := "https://globoplay.globo.com/ao-vivo/123/"

	tests := []struct {
		name    string
		host    string
		trusted bool
	}{
		{"exact target host", "globoplay.globo.com", true},
		{"sibling under same registrable domain", "s04.video.globo.com", true},
		{"configured CDN exact", "akamaized.net", true},
		{"configured CDN subdomain", "live-edge.akamaized.net", true},
		{"unrelated third party", "tracker.adnetwork.io", false},
		{"registrable domain spoof", "globo.com.evil.tv", false},
		{"empty host", "", false},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			snapshot := []classify.Candidate{
				newCandidate("https://"+tc.host+"/master.m3u8", tc.host, classify.KindMaster, 0),
			}
			entries := r.Rank(snapshot, target)
			require.Len(t, entries, 1)
			if tc.trusted {
				assert.Equal(t, 115.0, entries[0].Score)
			} else {
				assert.Equal(t, 100.0, entries[0].Score)
			}
		})
	}
}

// Kinds absent from the weight table contribute no score instead of
// failing, so a trimmed policy table degrades gracefully.
func TestRankUnmappedKindScoresZero(t *testing.T) {
	t.Parallel()
	r := New(defaultTestRankConfig())

	snapshot := []classify.Candidate{
		newCandidate("https://cdn.thirdparty.tv/beacon", "cdn.thirdparty.tv", classify.KindUnknown, 0),
	}

	entries := r.Rank(snapshot, "https://play.example.com/live")

	require.Len(t, entries, 1)
	assert.Equal(t, 0.0, entries[0].Score)
}

func TestRankEmptySnapshot(t *testing.T) {
	t.Parallel()
	r := New(defaultTestRankConfig())

	entries := r.Rank(nil, "https://play.example.com/live")
	assert.Empty(t, entries)

	_, ok := Best(entries)
	assert.False(t, ok)
}

// Ranking the same snapshot twice must produce byte-identical output.
func TestRankIsDeterministic(t *testing.T) {
	t.Parallel()
	r := New(defaultTestRankConfig())

	snapshot := []classify.Candidate{
		newCandidate("https://cdn.thirdparty.tv/master.m3u8", "cdn.thirdparty.tv", classify.KindMaster, 0),
		newCandidate("https://play.example.com/chunklist.m3u8", "play.example.com", classify.KindMedia, 1),
		newCandidate("https://live-edge.akamaized.net/master.m3u8", "live-edge.akamaized.net", classify.KindMaster, 2),
		newCandidate("https://tracker.adnetwork.io/pixel", "tracker.adnetwork.io", classify.KindUnknown, 3),
	}

	first := r.Rank(snapshot, "https://play.example.com/live")
	second := r.Rank(snapshot, "https://play.example.com/live")

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("ranking is not deterministic (-first +second):\n%s", diff)
	}
}

func TestBestPrefersNamedPlaylist(t *testing.T) {
	t.Parallel()
	r := New(defaultTestRankConfig())

	snapshot := []classify.Candidate{
		newCandidate("https://play.example.com/master.m3u8", "play.example.com", classify.KindMaster, 0),
		newCandidate("https://play.example.com/hls/playlist.m3u8", "play.example.com", classify.KindMedia, 1),
	}

	entries := r.Rank(snapshot, "https://play.example.com/live")

	best, ok := Best(entries)
	require.True(t, ok)
	assert.Equal(t, "https://play.example.com/hls/playlist.m3u8", best.URL)
}

func TestBestFallsBackToTopRanked(t *testing.T) {
	t.Parallel()
	r := New(defaultTestRankConfig())

	snapshot := []classify.Candidate{
		newCandidate("https://play.example.com/seg0001.ts", "play.example.com", classify.KindSegment, 0),
		newCandidate("https://play.example.com/master.m3u8", "play.example.com", classify.KindMaster, 1),
	}

	entries := r.Rank(snapshot, "https://play.example.com/live")

	best, ok := Best(entries)
	require.True(t, ok)
	assert.Equal(t, "https://play.example.com/master.m3u8", best.URL)

	// A bare segment URL is never promoted past a manifest by the name
	// heuristic, even if it happens to contain the magic file name.
	segSnapshot := []classify.Candidate{
		newCandidate("https://play.example.com/playlist.m3u8/seg1.ts", "play.example.com", classify.KindSegment, 0),
		newCandidate("https://play.example.com/master.m3u8", "play.example.com", classify.KindMaster, 1),
	}
	best, ok = Best(r.Rank(segSnapshot, "https://play.example.com/live"))
	require.True(t, ok)
	assert.Equal(t, "https://play.example.com/master.m3u8", best.URL)
}
