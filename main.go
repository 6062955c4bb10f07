// ./main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/streamsift/cmd"
)

// main is the entry point for streamsift.
func main() {
	// Listen for interrupt signals so a Ctrl+C tears the browser down
	// cleanly instead of leaving orphaned Chrome processes behind.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			// Graceful shutdown; partial results were already reported.
			os.Exit(0)
		}
		os.Exit(1)
	}
}
