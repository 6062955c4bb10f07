// -- internal/output/reporter.go --
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/streamsift/internal/config"
	"github.com/xkilldash9x/streamsift/internal/driver"
)

// Reporter defines the interface for writing session results to an output.
type Reporter interface {
	// Write processes a single session result.
	Write(result *driver.Result) error
	// Close finalizes the report and closes any underlying resources.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a reporter for the configured format and output path. An empty
// path (or "stdout") writes to standard output.
func New(cfg config.OutputConfig, logger *zap.Logger) (Reporter, error) {
	var writer io.WriteCloser
	isStdOut := cfg.Path == "" || cfg.Path == "stdout"

	if isStdOut {
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", cfg.Path, err)
		}
		writer = f
	}

	switch strings.ToLower(cfg.Format) {
	case "m3u":
		return NewM3UReporter(writer, cfg.GroupTitle), nil
	case "json":
		return NewJSONReporter(writer, logger), nil
	default:
		if !isStdOut {
			writer.Close()
		}
		return nil, fmt.Errorf("unsupported output format: %s", cfg.Format)
	}
}
