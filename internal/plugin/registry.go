// File: internal/plugin/registry.go
package plugin

import (
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"
)

// ErrDuplicateName is returned when a plugin name is registered twice.
var ErrDuplicateName = errors.New("plugin name already registered")

// Registry maps target hostnames to interaction strategies. Registration
// happens once during startup; afterwards the registry is read-only and safe
// to share across concurrent sessions. Overlapping domain patterns are legal
// and resolved by registration order, first registered wins.
type Registry struct {
	log      *zap.Logger
	plugins  []Plugin
	names    map[string]struct{}
	fallback Plugin
}

// NewRegistry creates an empty registry whose fallback is the generic
// strategy.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("registry")
	return &Registry{
		log:      log,
		names:    make(map[string]struct{}),
		fallback: NewGeneric(logger),
	}
}

// Register adds a plugin. A name collision is a programming error at startup
// and fails hard with ErrDuplicateName.
func (r *Registry) Register(p Plugin) error {
	name := p.Name()
	if _, taken := r.names[name]; taken {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateName)
	}
	r.names[name] = struct{}{}
	r.plugins = append(r.plugins, p)
	r.log.Debug("registered plugin",
		zap.String("plugin", name),
		zap.String("pattern", p.DomainPattern().String()),
	)
	return nil
}

// Resolve picks the strategy for a target URL: the first registered plugin
// whose domain pattern matches the hostname, or the generic fallback when
// none does. Resolution is deterministic for a fixed registration order.
func (r *Registry) Resolve(targetURL string) Plugin {
	host := hostnameOf(targetURL)
	if host != "" {
		for _, p := range r.plugins {
			if p.DomainPattern().MatchString(host) {
				r.log.Debug("resolved plugin",
					zap.String("host", host),
					zap.String("plugin", p.Name()),
				)
				return p
			}
		}
	}
	r.log.Debug("no site plugin matched, using fallback", zap.String("host", host))
	return r.fallback
}

// Names lists registered plugin names in registration order, fallback
// excluded.
func (r *Registry) Names() []string {
	out := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		out[i] = p.Name()
	}
	return out
}

func hostnameOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
