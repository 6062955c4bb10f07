// File: internal/browser/page.go
package browser

import (
	"context"
	_ "embed" // Required for the go:embed directive
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/streamsift/internal/capture"
	"github.com/xkilldash9x/streamsift/internal/config"
	"github.com/xkilldash9x/streamsift/internal/plugin"
)

//go:embed evasions.js
var evasionsScript string

// ensure Page satisfies the capability strategies are written against
var _ plugin.Page = (*Page)(nil)

// Page is one isolated browser tab. Every network event it produces is fed
// into the capture session it was created with. Methods run against the
// tab's own context: they are bounded by the tab lifetime plus per-operation
// timeouts, while the session wall clock stays the driver's concern.
type Page struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	sessionCtx    context.Context
	sessionCancel context.CancelFunc
	onClose       func()

	isClosed bool
	mu       sync.Mutex
}

// NewPage creates a browser tab wired into sess. Cookies, when given, are
// installed before any navigation so the first request already carries them.
func (e *Engine) NewPage(sess *capture.Session, cookies []*network.CookieParam) (*Page, error) {
	sessionCtx, cancel := chromedp.NewContext(e.allocatorCtx)

	p := &Page{
		cfg:           e.cfg,
		logger:        e.logger.Named("page").With(zap.String("session_id", sess.ID())),
		sessionCtx:    sessionCtx,
		sessionCancel: cancel,
		onClose:       e.wg.Done,
	}

	// The listener must be registered before network events are enabled or
	// the earliest requests slip past the capture session.
	chromedp.ListenTarget(sessionCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *network.EventRequestWillBeSent:
			sess.HandleRequest(ev.Request.URL)
		case *network.EventResponseReceived:
			sess.HandleResponse(ev.Response.URL, ev.Response.MimeType)
		}
	})

	init := chromedp.Tasks{
		network.Enable(),
		network.SetCacheDisabled(p.cfg.DisableCache),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(evasionsScript).Do(ctx)
			return err
		}),
	}
	if len(cookies) > 0 {
		init = append(init, network.SetCookies(cookies))
		p.logger.Debug("installing cookies", zap.Int("count", len(cookies)))
	}

	if err := chromedp.Run(sessionCtx, init); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize page: %w", err)
	}

	e.wg.Add(1)
	p.logger.Debug("page initialized")
	return p, nil
}

// Navigate loads a URL and waits for the document to be ready, then lets
// async players settle for the configured post-load wait.
func (p *Page) Navigate(url string) error {
	p.logger.Debug("navigating", zap.String("url", url))

	navCtx, cancel := context.WithTimeout(p.sessionCtx, p.cfg.NavigationTimeout)
	defer cancel()

	if err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return chromedp.Run(p.sessionCtx, chromedp.Sleep(p.cfg.PostLoadWait))
}

// Click clicks the first visible node matching the selector.
func (p *Page) Click(selector string) error {
	clickCtx, cancel := context.WithTimeout(p.sessionCtx, 15*time.Second)
	defer cancel()
	return chromedp.Run(clickCtx,
		chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible),
	)
}

// WaitVisible blocks until the selector matches a visible node or the
// timeout expires.
func (p *Page) WaitVisible(selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(p.sessionCtx, timeout)
	defer cancel()
	return chromedp.Run(waitCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
	)
}

// Evaluate runs a snippet of JavaScript in the current document and
// optionally unmarshals the result into out. A nil out discards the result.
func (p *Page) Evaluate(script string, out any) error {
	evalCtx, cancel := context.WithTimeout(p.sessionCtx, 10*time.Second)
	defer cancel()
	return chromedp.Run(evalCtx, chromedp.Evaluate(script, out))
}

// Sleep pauses for d, respecting the tab lifetime.
func (p *Page) Sleep(d time.Duration) error {
	return chromedp.Run(p.sessionCtx, chromedp.Sleep(d))
}

// URL reports the tab's current location. Empty on failure.
func (p *Page) URL() string {
	var loc string
	locCtx, cancel := context.WithTimeout(p.sessionCtx, 5*time.Second)
	defer cancel()
	if err := chromedp.Run(locCtx, chromedp.Location(&loc)); err != nil {
		p.logger.Debug("could not read location", zap.Error(err))
		return ""
	}
	return loc
}

// Close tears down the tab. Safe to call more than once.
func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.isClosed {
		p.mu.Unlock()
		return nil
	}
	p.isClosed = true
	p.mu.Unlock()

	if p.sessionCancel != nil {
		p.sessionCancel()
	}

	waitCtx, cancelWait := context.WithTimeout(ctx, 10*time.Second)
	defer cancelWait()
	select {
	case <-p.sessionCtx.Done():
		p.logger.Debug("page closed")
	case <-waitCtx.Done():
		p.logger.Warn("deadline exceeded waiting for page to close", zap.Error(waitCtx.Err()))
	}

	if p.onClose != nil {
		p.onClose()
	}
	return nil
}
