package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tg-upload/internal/app"
	"tg-upload/internal/config"
)

// main runs one upload. Exit status is 1 for usage and configuration errors,
// and for upload failures only when strict mode is enabled.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	runner := app.NewAppRunner()
	err := runner.Run(ctx, os.Args[1:])
	stop()
	if err == nil {
		return
	}

	log.Printf("[ERROR] %v", err)
	if errors.Is(err, app.ErrUsage) || errors.Is(err, app.ErrMissingArgs) || errors.Is(err, config.ErrConfigNotFound) {
		fmt.Fprintln(os.Stderr)
		runner.Usage(os.Stderr)
	}
	os.Exit(1)
}
