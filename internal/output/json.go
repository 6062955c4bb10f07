// -- internal/output/json.go --
package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/streamsift/internal/driver"
	"github.com/xkilldash9x/streamsift/internal/plugin"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonReport is the top level document emitted on Close.
type jsonReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Sessions    []jsonSession `json:"sessions"`
}

type jsonSession struct {
	SessionID   string           `json:"session_id"`
	Target      string           `json:"target"`
	Strategy    string           `json:"strategy"`
	Reason      string           `json:"reason"`
	StrategyErr string           `json:"strategy_error,omitempty"`
	ElapsedMS   int64            `json:"elapsed_ms"`
	Seen        int64            `json:"requests_seen"`
	Captured    int64            `json:"candidates_captured"`
	Title       string           `json:"title,omitempty"`
	Thumbnail   string           `json:"thumbnail,omitempty"`
	BestURL     string           `json:"best_url,omitempty"`
	Candidates  []jsonCandidate  `json:"candidates"`
	Channels    []plugin.Channel `json:"channels,omitempty"`
}

type jsonCandidate struct {
	URL         string    `json:"url"`
	Kind        string    `json:"kind"`
	Host        string    `json:"host"`
	ContentType string    `json:"content_type,omitempty"`
	Score       float64   `json:"score"`
	FirstSeen   time.Time `json:"first_seen"`
}

// JSONReporter buffers session results and writes them as a single
// indented document when closed. It is thread safe.
type JSONReporter struct {
	writer io.WriteCloser
	logger *zap.Logger

	mu       sync.Mutex
	sessions []jsonSession
}

// NewJSONReporter creates a reporter that accumulates results into one
// JSON document. The reporter takes ownership of the writer.
func NewJSONReporter(writer io.WriteCloser, logger *zap.Logger) *JSONReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONReporter{
		writer:   writer,
		logger:   logger.Named("json_reporter"),
		sessions: []jsonSession{},
	}
}

// Write records a session result for the final document.
func (r *JSONReporter) Write(result *driver.Result) error {
	sess := jsonSession{
		SessionID:   result.SessionID,
		Target:      result.Target,
		Strategy:    result.Strategy,
		Reason:      string(result.Reason),
		StrategyErr: result.StrategyErr,
		ElapsedMS:   result.Elapsed.Milliseconds(),
		Seen:        result.Seen,
		Captured:    result.Captured,
		Title:       result.Title,
		Thumbnail:   result.Thumbnail,
		Candidates:  make([]jsonCandidate, 0, len(result.Entries)),
		Channels:    result.Channels,
	}
	if best, ok := result.Best(); ok {
		sess.BestURL = best.URL
	}
	for _, e := range result.Entries {
		sess.Candidates = append(sess.Candidates, jsonCandidate{
			URL:         e.URL,
			Kind:        e.Kind.String(),
			Host:        e.Host,
			ContentType: e.ContentType,
			Score:       e.Score,
			FirstSeen:   e.FirstSeen,
		})
	}

	r.mu.Lock()
	r.sessions = append(r.sessions, sess)
	r.mu.Unlock()

	r.logger.Debug("Buffered session result",
		zap.String("session_id", result.SessionID),
		zap.Int("candidates", len(sess.Candidates)),
	)
	return nil
}

// Close finalizes the report and writes it to the output writer.
func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := jsonReport{
		GeneratedAt: time.Now().UTC(),
		Sessions:    r.sessions,
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")

	encodeErr := encoder.Encode(report)
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.logger.Error("Failed to encode report to JSON", zap.Error(encodeErr))
		return fmt.Errorf("failed to encode report: %w", encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}

	r.logger.Info("Wrote session report", zap.Int("sessions", len(r.sessions)))
	return nil
}
