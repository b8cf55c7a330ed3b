package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/LongAiden/news-classification/internal/cli"
	"github.com/LongAiden/news-classification/pkg/version"
)

func main() {
	os.Exit(run())
}

// run executes the root command and maps the result to an exit code.
// Separated from main so tests can reference it.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(version.GetVersion())
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
