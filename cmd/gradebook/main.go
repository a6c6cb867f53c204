// Command gradebook is the operator CLI of EduTrack. It opens the same slot
// as the HTTP service and runs one operation per invocation.
//
// With the bolt backend the database file is locked by a running server, so
// stop the server first or point the CLI at a shared backend (redis,
// postgres).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/edutrack/edutrack-gradebook/config"
	"github.com/edutrack/edutrack-gradebook/internal/app"
	"github.com/edutrack/edutrack-gradebook/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args)
	switch {
	case err == nil:
	case errors.Is(err, errHelp), errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		(&commandLine{out: os.Stdout}).printUsage()
		return errHelp
	}

	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Keep stdout for command output.
	log := logger.New(logger.Options{
		Output: os.Stderr,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
		Format: logger.ParseFormat(cfg.Observability.LogFormat),
	}).With(logger.String("app", cfg.App.Name), logger.Component("cli"))

	confirm := newPromptConfirmer(os.Stdin, os.Stdout, int(os.Stdin.Fd()))

	gb, err := app.Open(ctx, cfg, log, app.Options{
		Confirmer:     confirm,
		ForwardEvents: true,
	})
	if err != nil {
		return err
	}
	defer gb.Close()

	cli := &commandLine{
		cmds:    gb.Commands,
		qs:      gb.Queries,
		confirm: confirm,
		out:     os.Stdout,
	}
	return cli.run(ctx, args)
}
