// File: internal/browser/engine.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/streamsift/internal/config"
)

// Engine owns the headless browser process. All page contexts are derived
// from its allocator context, so closing the engine tears down every page.
type Engine struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc

	// wg tracks open pages for a graceful shutdown.
	wg sync.WaitGroup
}

// NewEngine prepares allocator options, launches the browser process and
// verifies it responds before returning.
func NewEngine(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger: logger.Named("browser"),
		cfg:    cfg,
	}

	e.logger.Info("launching browser",
		zap.Bool("headless", cfg.Headless),
		zap.String("exec_path", cfg.ExecPath),
		zap.String("user_data_dir", cfg.UserDataDir),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, e.buildAllocatorOptions()...)
	e.allocatorCtx = allocCtx
	e.allocatorCancel = cancel

	// Confirm the process starts and answers CDP before any session runs.
	testCtx, cancelTest := context.WithTimeout(allocCtx, 30*time.Second)
	testCtx, cancelTestCtx := chromedp.NewContext(testCtx)
	defer cancelTestCtx()
	defer cancelTest()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		e.allocatorCancel()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	e.logger.Info("browser launched and responsive")
	return e, nil
}

// buildAllocatorOptions assembles launch flags for a quiet, user-like
// browser instance.
func (e *Engine) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	// Start from the defaults, minus the flag that announces automation.
	var opts []chromedp.ExecAllocatorOption
	for _, opt := range chromedp.DefaultExecAllocatorOptions[:] {
		if flag, ok := opt.(chromedp.Flag); ok && flag.Name == "enable-automation" {
			continue
		}
		opts = append(opts, opt)
	}

	opts = append(opts,
		chromedp.Flag("headless", e.cfg.Headless),
		chromedp.Flag("ignore-certificate-errors", e.cfg.IgnoreTLSErrors),
		// Disable the Blink feature sites probe to detect automation
		// (navigator.webdriver).
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", e.cfg.Headless),
		// Players must start without a user gesture or no manifest is
		// ever requested.
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(e.cfg.WindowWidth, e.cfg.WindowHeight),
	)

	if e.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(e.cfg.ExecPath))
	}
	if e.cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(e.cfg.UserDataDir))
	}
	if e.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(e.cfg.UserAgent))
	}

	// Custom arguments from the config file, "--name=value" or "--name".
	for _, arg := range e.cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		flagName := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(flagName, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(flagName, true))
		}
	}

	// Flags required for running inside containers.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	return opts
}

// Close waits for open pages to finish, respecting the caller's deadline,
// then terminates the browser process.
func (e *Engine) Close(ctx context.Context) error {
	e.logger.Info("browser shutdown initiated, waiting for open pages")

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Debug("all pages closed")
	case <-ctx.Done():
		e.logger.Warn("shutdown deadline exceeded, forcing browser termination", zap.Error(ctx.Err()))
	}

	if e.allocatorCancel != nil {
		e.allocatorCancel()
		<-e.allocatorCtx.Done()
	}
	return nil
}
