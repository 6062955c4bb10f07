// File: internal/plugin/generic.go
package plugin

import (
	"regexp"
	"time"

	"go.uber.org/zap"
)

// playSelectors covers the common player skins, most specific first.
var playSelectors = []string{
	"button.poster__play-wrapper",
	`button[aria-label="Play"]`,
	".vjs-big-play-button",
	".play-button",
	"video",
	"#player",
	".jw-display-icon-container",
	".play-icon",
}

// Generic is the fallback strategy for sites without a dedicated plugin:
// find something that looks like a play button, click it, and give the
// player a moment to start fetching.
type Generic struct {
	log     *zap.Logger
	pattern *regexp.Regexp
}

// NewGeneric returns the generic fallback strategy.
func NewGeneric(logger *zap.Logger) *Generic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generic{
		log:     logger.Named("plugin.generic"),
		pattern: regexp.MustCompile(`.*`),
	}
}

func (g *Generic) Name() string { return "generic" }

func (g *Generic) DomainPattern() *regexp.Regexp { return g.pattern }

// Interact tries each play selector until one click lands. Selector misses
// are expected on most pages and are not errors; autoplaying players need no
// click at all. The generic strategy therefore never fails.
func (g *Generic) Interact(page Page) error {
	for _, selector := range playSelectors {
		if err := page.WaitVisible(selector, 5*time.Second); err != nil {
			continue
		}
		if err := page.Click(selector); err != nil {
			g.log.Debug("click failed, trying next selector",
				zap.String("selector", selector), zap.Error(err))
			continue
		}
		g.log.Debug("clicked play control", zap.String("selector", selector))
		if err := page.Sleep(time.Second); err != nil {
			return nil
		}
		break
	}

	// Let the player settle and issue its first manifest requests.
	_ = page.Sleep(3 * time.Second)
	return nil
}
