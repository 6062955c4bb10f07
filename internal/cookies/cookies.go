// File: internal/cookies/cookies.go
package cookies

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonCookie covers the two JSON shapes in the wild: browser-extension
// exports (expirationDate) and automation-tool exports (expires).
type jsonCookie struct {
	Name           string  `json:"name"`
	Value          string  `json:"value"`
	Domain         string  `json:"domain"`
	Path           string  `json:"path"`
	Expires        float64 `json:"expires"`
	ExpirationDate float64 `json:"expirationDate"`
	Secure         bool    `json:"secure"`
	HTTPOnly       bool    `json:"httpOnly"`
	SameSite       string  `json:"sameSite"`
}

// Load reads a cookie file and converts it into CDP cookie params. The
// format is sniffed: a leading '[' means a JSON array, anything else is
// treated as Netscape cookies.txt. Malformed entries are skipped, not fatal.
func Load(path string, logger *zap.Logger) ([]*network.CookieParam, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("cookies")

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read cookie file: %w", err)
	}

	var params []*network.CookieParam
	if strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		params, err = parseJSON(raw, log)
		if err != nil {
			return nil, fmt.Errorf("cannot parse JSON cookie file %s: %w", path, err)
		}
	} else {
		params = parseNetscape(raw, log)
	}

	log.Info("loaded cookies", zap.String("path", path), zap.Int("count", len(params)))
	return params, nil
}

func parseJSON(raw []byte, log *zap.Logger) ([]*network.CookieParam, error) {
	var entries []jsonCookie
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}

	params := make([]*network.CookieParam, 0, len(entries))
	for _, c := range entries {
		if c.Name == "" || c.Domain == "" {
			log.Debug("skipping cookie without name or domain", zap.String("name", c.Name))
			continue
		}
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     orDefault(c.Path, "/"),
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: sameSiteOf(c.SameSite),
		}
		expires := c.Expires
		if expires == 0 {
			expires = c.ExpirationDate
		}
		if expires > 0 {
			e := cdp.TimeSinceEpoch(time.Unix(int64(expires), 0))
			p.Expires = &e
		}
		params = append(params, p)
	}
	return params, nil
}

// parseNetscape handles the classic cookies.txt layout: seven tab-separated
// fields per line, '#' comments, and curl's #HttpOnly_ domain prefix.
func parseNetscape(raw []byte, log *zap.Logger) []*network.CookieParam {
	var params []*network.CookieParam

	for i, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		httpOnly := false
		if strings.HasPrefix(line, "#HttpOnly_") {
			httpOnly = true
			line = strings.TrimPrefix(line, "#HttpOnly_")
		} else if strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			log.Debug("skipping malformed cookie line",
				zap.Int("line", i+1),
				zap.Int("fields", len(fields)),
			)
			continue
		}

		p := &network.CookieParam{
			Name:     fields[5],
			Value:    fields[6],
			Domain:   fields[0],
			Path:     orDefault(fields[2], "/"),
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			HTTPOnly: httpOnly,
		}
		if p.Name == "" || p.Domain == "" {
			log.Debug("skipping cookie without name or domain", zap.Int("line", i+1))
			continue
		}
		if sec, err := strconv.ParseInt(fields[4], 10, 64); err == nil && sec > 0 {
			e := cdp.TimeSinceEpoch(time.Unix(sec, 0))
			p.Expires = &e
		}
		params = append(params, p)
	}
	return params
}

func sameSiteOf(s string) network.CookieSameSite {
	switch strings.ToLower(s) {
	case "strict":
		return network.CookieSameSiteStrict
	case "lax":
		return network.CookieSameSiteLax
	case "none", "no_restriction":
		return network.CookieSameSiteNone
	default:
		return ""
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
