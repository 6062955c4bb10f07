// File: internal/classify/classify.go
package classify

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/xkilldash9x/streamsift/internal/config"
)

// Kind grades how much playback value a captured URL carries. Higher values
// are more directly playable.
type Kind int

const (
	// KindUnknown is a URL that looked stream related but could not be graded.
	KindUnknown Kind = iota
	// KindSegment is an individual media fragment (.ts, .m4s, ...).
	KindSegment
	// KindMedia is a single-rendition playlist (chunklist, index_*).
	KindMedia
	// KindMaster is a top-level playlist or DASH manifest description.
	KindMaster
)

func (k Kind) String() string {
	switch k {
	case KindMaster:
		return "master"
	case KindMedia:
		return "media"
	case KindSegment:
		return "segment"
	default:
		return "unknown"
	}
}

// IsManifest reports whether the kind is a playable playlist level.
func (k Kind) IsManifest() bool {
	return k == KindMaster || k == KindMedia
}

// Candidate is one classified URL observed during a capture session.
// URL always holds the raw, first-seen form including any signed query
// parameters a player will need; NormalizedKey is the comparison form with
// volatile parameters removed and the remaining query sorted.
type Candidate struct {
	URL           string
	NormalizedKey string
	Kind          Kind
	Host          string
	ContentType   string
	Seq           int
	FirstSeen     time.Time
}

// Hint carries response metadata that sharpens classification when present.
type Hint struct {
	ContentType string
}

// Classifier decides whether a URL is a manifest candidate, a segment, or
// noise. It is pure: no I/O, no internal state, same answer for the same
// input and policy tables. It runs on the network event path and must stay
// cheap.
type Classifier struct {
	denylist       []string
	redirectParams []string
	masterTokens   []string
	mediaTokens    []string
	manifestMIMEs  []string
	segmentExts    []string
	volatile       map[string]struct{}
}

// New builds a Classifier from the capture policy tables. Deny patterns and
// tokens are matched case-insensitively; they are lowered once here rather
// than per event.
func New(cfg config.CaptureConfig) *Classifier {
	c := &Classifier{
		denylist:       lowerAll(cfg.Denylist),
		redirectParams: append([]string(nil), cfg.RedirectParams...),
		masterTokens:   lowerAll(cfg.MasterTokens),
		mediaTokens:    lowerAll(cfg.MediaTokens),
		manifestMIMEs:  lowerAll(cfg.ManifestMIMEs),
		segmentExts:    lowerAll(cfg.SegmentExts),
		volatile:       make(map[string]struct{}, len(cfg.VolatileParams)),
	}
	for _, p := range cfg.VolatileParams {
		c.volatile[strings.ToLower(p)] = struct{}{}
	}
	return c
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// Classify grades a raw URL. The second return is false when the URL is
// noise: malformed, non-HTTP, deny-listed, or matching no stream pattern.
// The deny list is consulted before any manifest pattern so tracking URLs
// never classify as streams no matter what extension they carry.
func (c *Classifier) Classify(rawURL string, hint Hint) (Candidate, bool) {
	return c.classify(rawURL, hint, 0)
}

func (c *Classifier) classify(rawURL string, hint Hint, depth int) (Candidate, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Candidate{}, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Candidate{}, false
	}

	lower := strings.ToLower(rawURL)
	for _, pat := range c.denylist {
		if strings.Contains(lower, pat) {
			return Candidate{}, false
		}
	}

	path := strings.ToLower(u.EscapedPath())

	if strings.HasSuffix(path, ".m3u8") {
		return c.candidate(u, rawURL, c.playlistKind(path), hint), true
	}
	if strings.HasSuffix(path, ".mpd") {
		return c.candidate(u, rawURL, KindMaster, hint), true
	}

	if mime := normalizeMIME(hint.ContentType); mime != "" {
		for _, m := range c.manifestMIMEs {
			if mime == m {
				kind := KindMaster
				if strings.Contains(mime, "mpegurl") {
					kind = c.playlistKind(path)
				}
				return c.candidate(u, rawURL, kind, hint), true
			}
		}
	}

	for _, ext := range c.segmentExts {
		if strings.HasSuffix(path, ext) {
			return c.candidate(u, rawURL, KindSegment, hint), true
		}
	}

	// Player pages often smuggle the real manifest inside a redirect-style
	// query parameter. One level of unwrapping is enough in practice.
	if depth == 0 {
		if inner, ok := c.embeddedURL(u); ok {
			return c.classify(inner, Hint{}, depth+1)
		}
	}

	return Candidate{}, false
}

// playlistKind grades an HLS playlist path. Master-level tokens win over
// media-level ones; a bare playlist with no token defaults to master, the
// highest-value assumption.
func (c *Classifier) playlistKind(lowerPath string) Kind {
	for _, tok := range c.masterTokens {
		if strings.Contains(lowerPath, tok) {
			return KindMaster
		}
	}
	for _, tok := range c.mediaTokens {
		if strings.Contains(lowerPath, tok) {
			return KindMedia
		}
	}
	return KindMaster
}

// embeddedURL pulls a nested URL out of a known redirect parameter.
func (c *Classifier) embeddedURL(u *url.URL) (string, bool) {
	q := u.Query()
	for _, param := range c.redirectParams {
		v := q.Get(param)
		if v == "" {
			continue
		}
		if decoded, err := url.QueryUnescape(v); err == nil {
			v = decoded
		}
		if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
			return v, true
		}
	}
	return "", false
}

func (c *Classifier) candidate(u *url.URL, rawURL string, kind Kind, hint Hint) Candidate {
	return Candidate{
		URL:           rawURL,
		NormalizedKey: c.NormalizeKey(u),
		Kind:          kind,
		Host:          u.Hostname(),
		ContentType:   hint.ContentType,
	}
}

// NormalizeKey produces the comparison form of a URL: scheme, host and path
// plus only the stable query parameters, sorted. Volatile parameters
// (cache-busters, timestamps) are dropped; auth tokens and everything else
// survive, so two observations of the same stream with different
// cache-busters collapse to one key while differently-signed streams do not.
func (c *Classifier) NormalizeKey(u *url.URL) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(u.Scheme))
	b.WriteString("://")
	b.WriteString(strings.ToLower(u.Host))
	b.WriteString(u.EscapedPath())

	if u.RawQuery != "" {
		kept := url.Values{}
		for key, vals := range u.Query() {
			if _, volatile := c.volatile[strings.ToLower(key)]; volatile {
				continue
			}
			for _, v := range vals {
				kept.Add(key, v)
			}
		}
		if len(kept) > 0 {
			b.WriteString("?")
			b.WriteString(encodeSorted(kept))
		}
	}
	return b.String()
}

// encodeSorted is url.Values.Encode with deterministic value order as well
// as key order.
func encodeSorted(v url.Values) string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		vals := append([]string(nil), v[k]...)
		sort.Strings(vals)
		for _, val := range vals {
			if b.Len() > 0 {
				b.WriteString("&")
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteString("=")
			b.WriteString(url.QueryEscape(val))
		}
	}
	return b.String()
}

func normalizeMIME(ct string) string {
	if ct == "" {
		return ""
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
