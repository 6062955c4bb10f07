// -- internal/output/m3u.go --
package output

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/xkilldash9x/streamsift/internal/driver"
)

// M3UReporter emits an extended M3U playlist, one entry per session.
// Entries are flushed as they are written so an interrupted run still
// leaves a usable playlist behind. It is thread safe.
type M3UReporter struct {
	writer     io.WriteCloser
	buf        *bufio.Writer
	groupTitle string

	mu         sync.Mutex
	headerDone bool
}

// NewM3UReporter creates a reporter that writes an M3U playlist. The
// reporter takes ownership of the writer.
func NewM3UReporter(writer io.WriteCloser, groupTitle string) *M3UReporter {
	return &M3UReporter{
		writer:     writer,
		buf:        bufio.NewWriter(writer),
		groupTitle: groupTitle,
	}
}

// Write appends one playlist entry for the session's best candidate.
// Sessions that captured nothing become a comment line, so the playlist
// accounts for every target that was attempted.
func (r *M3UReporter) Write(result *driver.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.headerDone {
		if _, err := fmt.Fprintln(r.buf, "#EXTM3U"); err != nil {
			return err
		}
		r.headerDone = true
	}

	best, ok := result.Best()
	if !ok {
		if _, err := fmt.Fprintf(r.buf, "# no stream found for %s (%s)\n", result.Target, result.Reason); err != nil {
			return err
		}
		return r.buf.Flush()
	}

	title := result.Title
	if title == "" {
		title = result.Target
	}

	extinf := "#EXTINF:-1"
	if result.Thumbnail != "" {
		extinf += fmt.Sprintf(" tvg-logo=%q", result.Thumbnail)
	}
	if r.groupTitle != "" {
		extinf += fmt.Sprintf(" group-title=%q", r.groupTitle)
	}
	if _, err := fmt.Fprintf(r.buf, "%s,%s\n%s\n", extinf, title, best.URL); err != nil {
		return err
	}

	// Lower ranked manifests ride along as comments so a viewer can swap
	// the stream by hand without rerunning the capture.
	for _, e := range result.Entries {
		if e.URL == best.URL || !e.Kind.IsManifest() {
			continue
		}
		if _, err := fmt.Fprintf(r.buf, "# alt [%s %.1f] %s\n", e.Kind, e.Score, e.URL); err != nil {
			return err
		}
	}
	return r.buf.Flush()
}

// Close flushes any buffered output and closes the underlying writer.
func (r *M3UReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	flushErr := r.buf.Flush()
	closeErr := r.writer.Close()

	if flushErr != nil {
		return fmt.Errorf("failed to flush playlist: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	return nil
}
