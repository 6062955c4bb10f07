// File: internal/plugin/globoplay.go
package plugin

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// dismissWarningsJS clicks the first visible subscriber/paywall control
// whose text suggests it advances or closes the blocking modal.
const dismissWarningsJS = `(() => {
	const selectors = [
		"button.warning-block__button",
		"button.paywall-button",
		"[data-testid='paywall-cta']",
		".modal-close",
		"[aria-label='Fechar']",
		"button[class*='close']",
	];
	const keywords = ["fechar", "close", "entrar", "assinante", "continuar"];
	for (const sel of selectors) {
		for (const el of document.querySelectorAll(sel)) {
			const style = window.getComputedStyle(el);
			if (style.display === "none" || style.visibility === "hidden") continue;
			const text = (el.innerText || "").trim().toLowerCase();
			if (keywords.some((kw) => text.includes(kw))) {
				el.click();
				return true;
			}
		}
	}
	return false;
})()`

// discoverChannelsJS walks the "Agora na TV" listing and extracts one entry
// per live channel id, skipping subscription links.
const discoverChannelsJS = `(() => {
	const idRegex = /(?:^|\/|v\/)([0-9]{6,8})(?:\/|$)/;
	const links = Array.from(
		document.querySelectorAll("a[href*='/ao-vivo/'], a[href*='/v/']")
	);
	const seenIds = new Set();
	const result = [];

	for (const link of links) {
		const href = link.href;
		if (href.includes("/assine/") || href.includes("/subscribe")) continue;

		const match = href.match(idRegex);
		if (!match) continue;

		const channelId = match[1];
		if (seenIds.has(channelId)) continue;
		seenIds.add(channelId);

		const nameEl = link.querySelector(
			".video-card-title, .program-card__title, .headline__title, [class*='title']"
		);
		let name = nameEl ? nameEl.textContent.trim() : link.getAttribute("aria-label");
		if (!name) {
			const card = link.closest(".channel-card, [class*='card']");
			if (card) {
				const cardName = card.querySelector("[class*='channel-name'], [class*='title']");
				if (cardName) name = cardName.textContent.trim();
			}
		}
		if (!name) name = channelId;

		const img = link.querySelector("img");
		const thumbnail = img ? (img.src || img.dataset.src || "") : "";

		result.push({
			id: channelId,
			name: name,
			url: "https://globoplay.globo.com/ao-vivo/" + channelId + "/",
			thumbnail: thumbnail,
		});
	}
	return result;
})()`

var globoplayPlaySelectors = []string{
	"button.poster__play-wrapper",
	"[data-testid='play-button']",
	`button[aria-label="Play"]`,
	`button[aria-label="Reproduzir"]`,
	".vjs-big-play-button",
	".play-button",
	".jw-display-icon-container",
	".play-icon",
	"video",
}

var (
	globoplayPrefixRe  = regexp.MustCompile(`(?i)^Globoplay\.\s*`)
	globoplayBBBRe     = regexp.MustCompile(`(?i)^Canal BBB \d+\s*-\s*`)
	globoplayLiveTagRe = regexp.MustCompile(`(?i),?\s*Ao vivo.*$`)
)

// Globoplay is the dedicated strategy for globoplay.globo.com: dismiss the
// subscriber modals that block the player, hit play, and optionally mine the
// live listing for channels.
type Globoplay struct {
	log     *zap.Logger
	pattern *regexp.Regexp
}

// NewGloboplay returns the Globoplay strategy.
func NewGloboplay(logger *zap.Logger) *Globoplay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Globoplay{
		log:     logger.Named("plugin.globoplay"),
		pattern: regexp.MustCompile(`(^|\.)globoplay\.globo\.com$`),
	}
}

func (g *Globoplay) Name() string { return "globoplay" }

func (g *Globoplay) DomainPattern() *regexp.Regexp { return g.pattern }

// Interact dismisses blocking modals, clicks play and lets the player spin
// up. Selector misses are normal; the strategy only fails when the page
// itself is gone.
func (g *Globoplay) Interact(page Page) error {
	for i := 0; i < 3; i++ {
		var clicked bool
		if err := page.Evaluate(dismissWarningsJS, &clicked); err != nil {
			return err
		}
		if !clicked {
			break
		}
		g.log.Debug("dismissed blocking modal")
		if err := page.Sleep(time.Second); err != nil {
			return err
		}
	}

	for _, selector := range globoplayPlaySelectors {
		if err := page.WaitVisible(selector, 5*time.Second); err != nil {
			continue
		}
		if err := page.Click(selector); err != nil {
			continue
		}
		g.log.Debug("clicked play control", zap.String("selector", selector))
		if err := page.Sleep(time.Second); err != nil {
			return err
		}
		break
	}

	return page.Sleep(3 * time.Second)
}

// DiscoverChannels scrolls the live listing to defeat lazy-loading, then
// extracts one entry per channel.
func (g *Globoplay) DiscoverChannels(page Page) ([]Channel, error) {
	if err := g.scrollToLoadAll(page, 5); err != nil {
		return nil, err
	}

	var channels []Channel
	if err := page.Evaluate(discoverChannelsJS, &channels); err != nil {
		return nil, err
	}
	for i := range channels {
		channels[i].Name = CleanChannelName(channels[i].Name)
	}
	g.log.Info("discovered live channels", zap.Int("count", len(channels)))
	return channels, nil
}

// scrollToLoadAll scrolls to the bottom until the page height stops growing.
func (g *Globoplay) scrollToLoadAll(page Page, maxScrolls int) error {
	var lastHeight int
	if err := page.Evaluate("document.body.scrollHeight", &lastHeight); err != nil {
		return err
	}
	for i := 0; i < maxScrolls; i++ {
		if err := page.Evaluate("window.scrollTo(0, document.body.scrollHeight)", nil); err != nil {
			return err
		}
		if err := page.Sleep(2 * time.Second); err != nil {
			return err
		}
		var height int
		if err := page.Evaluate("document.body.scrollHeight", &height); err != nil {
			return err
		}
		if height == lastHeight {
			break
		}
		lastHeight = height
	}
	return nil
}

// CleanChannelName normalizes listing names: strips the Globoplay prefix,
// BBB camera prefixes and the trailing live marker, then keeps the leading
// comma-separated part.
func CleanChannelName(name string) string {
	if name == "" {
		return ""
	}
	if strings.Contains(name, "Globo Internacional") {
		return "Globo Internacional"
	}
	name = globoplayPrefixRe.ReplaceAllString(name, "")
	name = globoplayBBBRe.ReplaceAllString(name, "")
	name = globoplayLiveTagRe.ReplaceAllString(name, "")
	for _, part := range strings.Split(name, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			return trimmed
		}
	}
	return strings.TrimSpace(name)
}
