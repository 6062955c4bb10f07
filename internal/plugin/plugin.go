// File: internal/plugin/plugin.go
package plugin

import (
	"regexp"
	"time"
)

// Page is the capability surface a plugin may drive. Implementations own
// their session context internally; every blocking call returns once the
// session deadline passes. Waits that should give up earlier take an
// explicit timeout.
type Page interface {
	// Navigate loads a URL and waits for the document to become ready.
	Navigate(url string) error
	// Click dispatches a click on the first node matching the selector.
	Click(selector string) error
	// WaitVisible blocks until the selector is visible or the timeout ends.
	WaitVisible(selector string, timeout time.Duration) error
	// Evaluate runs a script in the page; out receives the JSON result and
	// may be nil when the result does not matter.
	Evaluate(script string, out any) error
	// Sleep pauses without outliving the session.
	Sleep(d time.Duration) error
	// URL returns the page's current location.
	URL() string
}

// Plugin is one per-site interaction strategy: a name, a hostname pattern it
// claims, and a bounded interaction protocol that coaxes the player into
// requesting its manifest. Instances are immutable after registration and
// shared across sessions, so Interact must not keep state on the receiver.
type Plugin interface {
	Name() string
	DomainPattern() *regexp.Regexp
	Interact(page Page) error
}

// Channel is a live stream surfaced by a site's channel listing.
type Channel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
}

// ChannelDiscoverer is an optional plugin capability: after the main
// interaction, the site's listing page can be mined for additional live
// targets worth capturing.
type ChannelDiscoverer interface {
	DiscoverChannels(page Page) ([]Channel, error)
}
