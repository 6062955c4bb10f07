// File: internal/rank/rank.go
package rank

import (
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/xkilldash9x/streamsift/internal/classify"
	"github.com/xkilldash9x/streamsift/internal/config"
)

// Entry is one ranked candidate with its score exposed for diagnostics.
type Entry struct {
	classify.Candidate
	Score float64
}

// Ranker orders a capture snapshot into the final result. Scoring weights
// come from configuration so the policy can be tuned without code changes:
// kind dominates, first-party domains get a trust bonus, and the first-seen
// sequence breaks ties so a fixed snapshot always ranks identically.
type Ranker struct {
	kindWeights    map[string]float64
	trustBonus     float64
	firstPartyCDNs []string
}

// New builds a Ranker from the rank policy tables.
func New(cfg config.RankConfig) *Ranker {
	return &Ranker{
		kindWeights:    cfg.KindWeights,
		trustBonus:     cfg.TrustBonus,
		firstPartyCDNs: cfg.FirstPartyCDNs,
	}
}

// Rank scores and orders a snapshot against the session's target URL.
// The order is total: score descending, then first-seen sequence ascending.
func (r *Ranker) Rank(snapshot []classify.Candidate, targetURL string) []Entry {
	targetHost := hostnameOf(targetURL)

	entries := make([]Entry, len(snapshot))
	for i, cand := range snapshot {
		entries[i] = Entry{
			Candidate: cand,
			Score:     r.score(cand, targetHost),
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Seq < entries[j].Seq
	})
	return entries
}

func (r *Ranker) score(cand classify.Candidate, targetHost string) float64 {
	score := r.kindWeights[cand.Kind.String()]
	if r.trusted(cand.Host, targetHost) {
		score += r.trustBonus
	}
	return score
}

// trusted reports whether a candidate host is first-party relative to the
// target: same host, same eTLD+1, or a configured first-party CDN suffix.
func (r *Ranker) trusted(candHost, targetHost string) bool {
	if candHost == "" {
		return false
	}
	if strings.EqualFold(candHost, targetHost) {
		return true
	}

	candBase, candErr := publicsuffix.EffectiveTLDPlusOne(candHost)
	if targetHost != "" && candErr == nil {
		if targetBase, err := publicsuffix.EffectiveTLDPlusOne(targetHost); err == nil && candBase == targetBase {
			return true
		}
	}

	for _, cdn := range r.firstPartyCDNs {
		if strings.EqualFold(candHost, cdn) || strings.HasSuffix(strings.ToLower(candHost), "."+strings.ToLower(cdn)) {
			return true
		}
	}
	return false
}

// Best picks the entry to hand to a player. Among playlist entries a path
// literally named playlist.m3u8 historically plays most reliably, so it wins
// over the raw score order; otherwise the top-ranked entry is best.
func Best(entries []Entry) (Entry, bool) {
	if len(entries) == 0 {
		return Entry{}, false
	}
	for _, e := range entries {
		if e.Kind.IsManifest() && strings.Contains(strings.ToLower(e.URL), "playlist.m3u8") {
			return e, true
		}
	}
	return entries[0], true
}

func hostnameOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
