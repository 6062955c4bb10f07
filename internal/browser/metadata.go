// File: internal/browser/metadata.go
package browser

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

// Metadata is the page title and artwork used to label report entries.
type Metadata struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// metadataJS picks the best available artwork: og:image, then the legacy
// image_src link, then the largest rendered image on the page.
const metadataJS = `(() => {
    const meta = { title: document.title || '', thumbnail: '' };

    const og = document.querySelector('meta[property="og:image"], meta[name="og:image"]');
    if (og && og.content) {
        meta.thumbnail = og.content;
        return meta;
    }

    const link = document.querySelector('link[rel="image_src"]');
    if (link && link.href) {
        meta.thumbnail = link.href;
        return meta;
    }

    let best = '';
    let bestArea = 0;
    for (const img of document.querySelectorAll('img')) {
        const area = (img.naturalWidth || 0) * (img.naturalHeight || 0);
        if (area > bestArea && img.src && img.src.startsWith('http')) {
            best = img.src;
            bestArea = area;
        }
    }
    if (best && bestArea >= 320 * 180) {
        meta.thumbnail = best;
    }
    return meta;
})();`

var globoVideoIDRe = regexp.MustCompile(`/v/(\d+)`)

// globoThumbnail derives the stable CDN artwork URL for Globo video pages,
// which often render the player before any og:image is set.
func globoThumbnail(pageURL string) string {
	m := globoVideoIDRe.FindStringSubmatch(pageURL)
	if m == nil {
		return ""
	}
	return fmt.Sprintf("https://s04.video.glbimg.com/x720/%s.jpg", m[1])
}

// Metadata scrapes the current document for a title and thumbnail. Best
// effort: on failure it returns whatever could be read.
func (p *Page) Metadata() Metadata {
	var meta Metadata
	if err := p.Evaluate(metadataJS, &meta); err != nil {
		p.logger.Debug("metadata scrape failed", zap.Error(err))
	}
	if meta.Thumbnail == "" {
		meta.Thumbnail = globoThumbnail(p.URL())
	}
	return meta
}
