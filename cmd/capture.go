// -- cmd/capture.go --
package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/streamsift/internal/browser"
	"github.com/xkilldash9x/streamsift/internal/capture"
	"github.com/xkilldash9x/streamsift/internal/classify"
	"github.com/xkilldash9x/streamsift/internal/config"
	"github.com/xkilldash9x/streamsift/internal/cookies"
	"github.com/xkilldash9x/streamsift/internal/driver"
	"github.com/xkilldash9x/streamsift/internal/observability"
	"github.com/xkilldash9x/streamsift/internal/output"
	"github.com/xkilldash9x/streamsift/internal/plugin"
	"github.com/xkilldash9x/streamsift/internal/profile"
	"github.com/xkilldash9x/streamsift/internal/rank"
)

// newCaptureCmd creates and configures the `capture` command.
func newCaptureCmd() *cobra.Command {
	captureCmd := &cobra.Command{
		Use:   "capture [urls...]",
		Short: "Captures streaming manifest URLs from the given pages",
		Args:  cobra.MinimumNArgs(1),
		// PreRunE binds flags to their viper keys so command-line flags
		// correctly override values from the config file and environment.
		PreRunE: func(cmd *cobra.Command, args []string) error {
			bindings := map[string]string{
				"capture.timeout":           "timeout",
				"capture.parallel":          "parallel",
				"capture.discover_channels": "discover",
				"browser.headless":          "headless",
				"browser.cookie_file":       "cookies",
				"browser.exec_path":         "browser-path",
				"browser.use_profile":       "use-profile",
				"browser.profile":           "profile",
				"browser.user_agent":        "user-agent",
				"output.format":             "format",
				"output.path":               "output",
			}
			for key, flag := range bindings {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from main.go (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			targets, err := normalizeTargets(args)
			if err != nil {
				return err
			}

			if err := applyProfile(&cfg.Browser, logger); err != nil {
				return err
			}

			logger.Info("Starting capture",
				zap.Strings("targets", targets),
				zap.Int("parallel", cfg.Capture.Parallel),
				zap.Duration("timeout", cfg.Capture.Timeout),
				zap.String("format", cfg.Output.Format),
				zap.Bool("discover", cfg.Capture.DiscoverChannels),
			)

			components, err := initializeCaptureComponents(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize capture components: %w", err)
			}
			defer components.Shutdown(logger)

			reporter, err := output.New(cfg.Output, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize reporter: %w", err)
			}

			results := runBatch(ctx, components, targets, cfg.Capture.Parallel, cfg.Capture.DiscoverChannels, logger)

			if cfg.Capture.DiscoverChannels {
				channelTargets := collectChannelTargets(results, targets, logger)
				if len(channelTargets) > 0 {
					logger.Info("Capturing discovered channels", zap.Int("count", len(channelTargets)))
					results = append(results, runBatch(ctx, components, channelTargets, cfg.Capture.Parallel, false, logger)...)
				}
			}

			succeeded := 0
			for _, res := range results {
				if res == nil {
					continue
				}
				succeeded++
				if err := reporter.Write(res); err != nil {
					return fmt.Errorf("failed to write result: %w", err)
				}
			}
			if err := reporter.Close(); err != nil {
				return fmt.Errorf("failed to finalize report: %w", err)
			}

			if err := ctx.Err(); err != nil {
				logger.Warn("Capture aborted by signal")
				return err
			}
			if succeeded == 0 {
				return fmt.Errorf("all %d captures failed", len(targets))
			}

			logger.Info("Capture complete",
				zap.Int("captured", succeeded),
				zap.Int("failed", len(results)-succeeded),
			)
			return nil
		},
	}

	// Output flags.
	captureCmd.Flags().StringP("output", "o", "", "Output file path for the playlist or report. Defaults to stdout.")
	captureCmd.Flags().StringP("format", "f", "", "Output format: 'm3u' or 'json'. (Overrides config/env)")

	// Capture configuration override flags.
	captureCmd.Flags().DurationP("timeout", "t", 0, "Hard wall clock limit per target. (Overrides config/env)")
	captureCmd.Flags().IntP("parallel", "j", 0, "Number of targets captured concurrently. (Overrides config/env)")
	captureCmd.Flags().Bool("discover", false, "Also capture live channels discovered on the target site")

	// Browser flags.
	captureCmd.Flags().Bool("headless", true, "Run the browser headless; pass --headless=false to watch the session")
	captureCmd.Flags().String("cookies", "", "Cookie file in JSON or Netscape format")
	captureCmd.Flags().String("browser-path", "", "Path to the Chrome or Chromium executable")
	captureCmd.Flags().Bool("use-profile", false, "Reuse an installed browser profile for the session")
	captureCmd.Flags().String("profile", "", "Browser profile to use, by name (implies --use-profile)")
	captureCmd.Flags().String("user-agent", "", "Override the browser User-Agent")

	return captureCmd
}

// captureComponents holds the initialized services shared by all sessions.
type captureComponents struct {
	Classifier *classify.Classifier
	Registry   *plugin.Registry
	Engine     *browser.Engine
	Driver     *driver.Driver
	Cookies    []*network.CookieParam
}

// Shutdown gracefully closes the browser engine.
func (cc *captureComponents) Shutdown(logger *zap.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if cc.Engine != nil {
		if err := cc.Engine.Close(shutdownCtx); err != nil {
			logger.Warn("Error during browser shutdown", zap.Error(err))
		}
	}
}

// initializeCaptureComponents handles dependency injection.
func initializeCaptureComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*captureComponents, error) {
	components := &captureComponents{
		Classifier: classify.New(cfg.Capture),
	}

	registry := plugin.NewRegistry(logger)
	if err := registry.Register(plugin.NewGloboplay(logger)); err != nil {
		return nil, fmt.Errorf("failed to register plugins: %w", err)
	}
	components.Registry = registry

	if cfg.Browser.CookieFile != "" {
		loaded, err := cookies.Load(cfg.Browser.CookieFile, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load cookies: %w", err)
		}
		components.Cookies = loaded
	}

	engine, err := browser.NewEngine(ctx, cfg.Browser, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	components.Engine = engine

	components.Driver = driver.New(registry, rank.New(cfg.Rank), cfg.Capture, logger)
	return components, nil
}

// runBatch captures every target with bounded concurrency. A failed target
// leaves a nil slot so the remaining targets keep going; results line up
// with the input order.
func runBatch(ctx context.Context, components *captureComponents, targets []string, parallel int, discover bool, logger *zap.Logger) []*driver.Result {
	results := make([]*driver.Result, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, target := range targets {
		g.Go(func() error {
			res, err := captureOne(gctx, components, target, discover, logger)
			if err != nil {
				logger.Error("Capture failed", zap.String("target", target), zap.Error(err))
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// captureOne runs a single capture session against one target.
func captureOne(ctx context.Context, components *captureComponents, target string, discover bool, logger *zap.Logger) (*driver.Result, error) {
	sess := capture.NewSession(components.Classifier, logger)

	page, err := components.Engine.NewPage(sess, components.Cookies)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := page.Close(closeCtx); err != nil {
			logger.Warn("Error closing page", zap.String("target", target), zap.Error(err))
		}
	}()

	result, err := components.Driver.Run(ctx, page, sess, target)
	if err != nil {
		return nil, err
	}

	meta := page.Metadata()
	result.Title = meta.Title
	result.Thumbnail = meta.Thumbnail

	if discover {
		if discoverer, ok := components.Registry.Resolve(target).(plugin.ChannelDiscoverer); ok {
			channels, err := discoverer.DiscoverChannels(page)
			if err != nil {
				logger.Warn("Channel discovery failed", zap.String("target", target), zap.Error(err))
			} else {
				result.Channels = channels
			}
		}
	}

	return result, nil
}

// collectChannelTargets gathers discovered channel URLs that have not been
// captured yet, preserving discovery order.
func collectChannelTargets(results []*driver.Result, captured []string, logger *zap.Logger) []string {
	seen := make(map[string]struct{}, len(captured))
	for _, t := range captured {
		seen[t] = struct{}{}
	}

	var targets []string
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, ch := range res.Channels {
			if _, dup := seen[ch.URL]; dup {
				continue
			}
			if err := browser.ValidateTarget(ch.URL); err != nil {
				logger.Warn("Skipping discovered channel with invalid URL",
					zap.String("channel", ch.Name),
					zap.String("url", ch.URL),
					zap.Error(err),
				)
				continue
			}
			seen[ch.URL] = struct{}{}
			targets = append(targets, ch.URL)
		}
	}
	return targets
}

// normalizeTargets defaults bare hostnames to https and validates each
// target before any browser work starts.
func normalizeTargets(args []string) ([]string, error) {
	targets := make([]string, 0, len(args))
	for _, raw := range args {
		target := raw
		if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
			target = "https://" + target
		}
		if err := browser.ValidateTarget(target); err != nil {
			return nil, fmt.Errorf("invalid target %q: %w", raw, err)
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// applyProfile resolves a requested browser profile into a user data
// directory. An explicitly configured directory wins over discovery.
func applyProfile(cfg *config.BrowserConfig, logger *zap.Logger) error {
	if cfg.UserDataDir != "" {
		return nil
	}
	if !cfg.UseProfile && cfg.Profile == "" {
		return nil
	}
	if cfg.Family == profile.FamilyFirefox {
		return fmt.Errorf("firefox profiles cannot drive the capture browser; export cookies and use --cookies instead")
	}

	profiles, err := profile.Discover(logger)
	if err != nil {
		return fmt.Errorf("failed to discover browser profiles: %w", err)
	}

	var usable []profile.Profile
	for _, p := range profiles {
		if p.Family != profile.FamilyChromium {
			continue
		}
		if cfg.Family != "" && p.Browser != cfg.Family {
			continue
		}
		usable = append(usable, p)
	}

	matched, ok := profile.Match(usable, cfg.Profile)
	if !ok {
		return fmt.Errorf("no %s profile matches %q; run \"streamsift profiles\" to list them", cfg.Family, cfg.Profile)
	}

	cfg.UserDataDir = matched.UserDataDir
	if matched.Dir != "Default" {
		cfg.Args = append(cfg.Args, "profile-directory="+matched.Dir)
	}

	logger.Info("Using browser profile",
		zap.String("browser", matched.Browser),
		zap.String("profile", matched.Dir),
		zap.String("user_data_dir", matched.UserDataDir),
	)
	return nil
}
