// Package main implements the main entry point of the CHIP-8 interpreter
package main

import (
	"context"
	"errors"
	"os"

	"github.com/retroenv/retrochip8/internal/cli"
	"github.com/retroenv/retrochip8/internal/config"
	"github.com/retroenv/retrochip8/internal/fileprocessor"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/ui"
	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	opts, disasmOptions, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			fileprocessor.PrintBanner(logger, opts, version, commit, date)
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	fileprocessor.PrintBanner(logger, opts, version, commit, date)

	if err := fileprocessor.ProcessFile(ctx, logger, opts, disasmOptions, newWindow(logger, opts)); err != nil {
		// Handle context cancellation (Ctrl+C) gracefully
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			return
		}
		logger.Error("Running program failed", log.Err(err))
		os.Exit(1)
	}
}

// newWindow returns the ebiten host for interactive runs.
func newWindow(logger *log.Logger, opts options.Program) fileprocessor.WindowFunc {
	return func(m *vm.Machine, reset func() error) error {
		cfg := ui.Config{
			Scale: opts.Scale,
			Speed: opts.Speed,
			Reset: reset,
		}
		return ui.NewApp(cfg, logger, m).Run() //nolint:wrapcheck // wrapped by the ui package
	}
}
