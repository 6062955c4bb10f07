// File: internal/driver/driver.go
package driver

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/streamsift/internal/capture"
	"github.com/xkilldash9x/streamsift/internal/config"
	"github.com/xkilldash9x/streamsift/internal/plugin"
	"github.com/xkilldash9x/streamsift/internal/rank"
)

// State names the phases of a capture session.
type State int32

const (
	StateStarting State = iota
	StateInteracting
	StateDeciding
	StateSufficient
	StateTimedOut
	StateStrategyFailed
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateInteracting:
		return "interacting"
	case StateDeciding:
		return "deciding"
	case StateSufficient:
		return "sufficient"
	case StateTimedOut:
		return "timed_out"
	case StateStrategyFailed:
		return "strategy_failed"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Reason explains why a session stopped collecting.
type Reason string

const (
	ReasonSufficient     Reason = "sufficient"
	ReasonTimeout        Reason = "timeout"
	ReasonStrategyFailed Reason = "strategy_failed"
)

// Result is everything one session produced. Entries are ranked best first.
// Title, Thumbnail and Channels are filled in by the caller after the
// session ends; the driver itself only deals in captured traffic.
type Result struct {
	SessionID   string
	Target      string
	Strategy    string
	Reason      Reason
	StrategyErr string
	Elapsed     time.Duration

	Entries  []rank.Entry
	Seen     int64
	Captured int64

	Title     string
	Thumbnail string
	Channels  []plugin.Channel
}

// IsEmpty reports whether the session captured nothing usable.
func (r *Result) IsEmpty() bool { return len(r.Entries) == 0 }

// Best returns the entry a player should be handed, if any.
func (r *Result) Best() (rank.Entry, bool) { return rank.Best(r.Entries) }

// Driver runs the interaction state machine for a single page. Navigation
// and the strategy run off the decision loop, so the wall clock keeps
// ticking no matter how long the page takes; the configured timeout is a
// hard ceiling over the whole session.
type Driver struct {
	registry  *plugin.Registry
	ranker    *rank.Ranker
	timeout   time.Duration
	pollEvery time.Duration
	log       *zap.Logger

	state atomic.Int32
}

// New builds a Driver. Timeout and poll interval come from the capture
// configuration and are assumed validated.
func New(registry *plugin.Registry, ranker *rank.Ranker, cfg config.CaptureConfig, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		registry:  registry,
		ranker:    ranker,
		timeout:   cfg.Timeout,
		pollEvery: cfg.PollInterval,
		log:       logger.Named("driver"),
	}
}

// State reports the current session phase. Safe to call from any goroutine.
func (d *Driver) State() State { return State(d.state.Load()) }

func (d *Driver) setState(s State) { d.state.Store(int32(s)) }

// Run drives one capture session: navigate to the target, hand the page to
// the strategy resolved for its hostname, and poll the buffer until a
// manifest shows up or the deadline expires. A NavigationError aborts the
// session with no result. Every other strategy failure is recovered: the
// session ends and whatever was captured up to that point is returned.
func (d *Driver) Run(ctx context.Context, page plugin.Page, sess *capture.Session, targetURL string) (*Result, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.setState(StateStarting)
	strat := d.registry.Resolve(targetURL)
	log := d.log.With(
		zap.String("session_id", sess.ID()),
		zap.String("strategy", strat.Name()),
	)
	log.Info("session starting",
		zap.String("target", targetURL),
		zap.Duration("timeout", d.timeout),
	)

	strategyDone := make(chan error, 1)
	go func() {
		if err := page.Navigate(targetURL); err != nil {
			strategyDone <- &NavigationError{URL: targetURL, Err: err}
			return
		}
		d.setState(StateInteracting)
		log.Debug("page loaded, strategy interacting")
		strategyDone <- strat.Interact(page)
	}()

	// The limiter paces the sufficiency checks. Burst 1 means the first
	// check runs immediately, which catches manifests that arrive during
	// the initial page load.
	limiter := rate.NewLimiter(rate.Every(d.pollEvery), 1)
	reason := ReasonTimeout
	var strategyErr error

decide:
	for {
		if err := limiter.Wait(ctx); err != nil {
			d.setState(StateTimedOut)
			log.Info("session deadline reached", zap.Error(err))
			break
		}

		select {
		case err := <-strategyDone:
			// Receiving from a nil channel blocks forever, which turns
			// this case off for the rest of the loop.
			strategyDone = nil

			var navErr *NavigationError
			if errors.As(err, &navErr) {
				// The session dies here: with no page there is nothing to
				// rank, so Finished is never reached.
				d.setState(StateStrategyFailed)
				log.Error("navigation failed", zap.Error(err))
				return nil, err
			}
			if err != nil {
				d.setState(StateStrategyFailed)
				strategyErr = err
				reason = ReasonStrategyFailed
				log.Warn("strategy failed, keeping partial results", zap.Error(err))
				break decide
			}
			d.setState(StateDeciding)
			log.Debug("strategy finished, waiting for manifests")
		default:
		}

		if sess.Buffer().HasManifest() {
			d.setState(StateSufficient)
			reason = ReasonSufficient
			log.Info("manifest captured, stopping early", zap.Duration("after", time.Since(start)))
			break
		}
	}

	entries := d.ranker.Rank(sess.Buffer().Snapshot(), targetURL)
	seen, captured := sess.Stats()

	res := &Result{
		SessionID: sess.ID(),
		Target:    targetURL,
		Strategy:  strat.Name(),
		Reason:    reason,
		Elapsed:   time.Since(start).Round(time.Millisecond),
		Entries:   entries,
		Seen:      seen,
		Captured:  captured,
	}
	if strategyErr != nil {
		res.StrategyErr = strategyErr.Error()
	}

	if res.IsEmpty() {
		log.Warn("session finished with no stream candidates",
			zap.String("reason", string(reason)),
			zap.Int64("events_seen", seen),
		)
	} else {
		log.Info("session finished",
			zap.String("reason", string(reason)),
			zap.Int("candidates", len(entries)),
			zap.Duration("elapsed", res.Elapsed),
		)
	}
	d.setState(StateFinished)
	return res, nil
}
