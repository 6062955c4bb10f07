// File: internal/capture/session.go
package capture

import (
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/streamsift/internal/classify"
)

// Session feeds every network event observed on one page through the
// classifier and into the buffer. Handle* methods are called from chromedp's
// event goroutines and from nothing else; they must stay non-blocking and
// are safe under concurrent invocation.
type Session struct {
	id         string
	classifier *classify.Classifier
	buffer     *Buffer
	log        *zap.Logger

	seen     atomic.Int64
	captured atomic.Int64
}

// NewSession creates a capture session with a fresh buffer.
func NewSession(classifier *classify.Classifier, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		id:         id,
		classifier: classifier,
		buffer:     NewBuffer(),
		log:        logger.Named("capture").With(zap.String("session_id", id)),
	}
}

// ID returns the session identifier used in logs and reports.
func (s *Session) ID() string { return s.id }

// Buffer exposes the session's capture buffer.
func (s *Session) Buffer() *Buffer { return s.buffer }

// HandleRequest classifies an outgoing request URL.
func (s *Session) HandleRequest(rawURL string) {
	s.observe(rawURL, classify.Hint{})
}

// HandleResponse classifies a response, using its content type to catch
// manifests served from extension-less URLs.
func (s *Session) HandleResponse(rawURL, contentType string) {
	s.observe(rawURL, classify.Hint{ContentType: contentType})
}

func (s *Session) observe(rawURL string, hint classify.Hint) {
	s.seen.Add(1)

	cand, ok := s.classifier.Classify(rawURL, hint)
	if !ok {
		return
	}

	// A segment with no playlist on record yet cannot be attributed to a
	// stream; skip it rather than pollute the buffer with orphans.
	if cand.Kind == classify.KindSegment && !s.buffer.HasManifest() {
		s.log.Debug("dropping unattributed segment", zap.String("url", rawURL))
		return
	}

	if s.buffer.Offer(cand) {
		s.captured.Add(1)
		s.log.Info("captured stream candidate",
			zap.String("kind", cand.Kind.String()),
			zap.String("host", cand.Host),
			zap.String("url", cand.URL),
		)
	}
}

// Stats returns how many events were seen and how many offers were accepted.
func (s *Session) Stats() (seen, captured int64) {
	return s.seen.Load(), s.captured.Load()
}
