// Package main is the entry point of boardctl, a terminal client for the
// kanboard Task API. Each invocation loads the first page of every column,
// runs one command through the board coordinator and prints the board.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kandev/kanboard/internal/board"
	"github.com/kandev/kanboard/internal/common/config"
	"github.com/kandev/kanboard/internal/common/logger"
	"github.com/kandev/kanboard/internal/events"
	"github.com/kandev/kanboard/internal/events/bus"
	"github.com/kandev/kanboard/internal/taskclient"
	"github.com/kandev/kanboard/internal/tracing"
)

const serviceName = "boardctl"

// Command-line flags
var (
	configFlag   = flag.String("config", "", "Directory containing config.yaml")
	apiURLFlag   = flag.String("api-url", "", "Task API base URL (overrides board.apiBaseUrl)")
	queryFlag    = flag.String("q", "", "Search query applied before the command runs")
	logLevelFlag = flag.String("log-level", "", "Log level (debug, info, warn, error)")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(realMain(flag.Args()))
}

func realMain(args []string) int {
	cfg, err := config.LoadWithPath(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	if *apiURLFlag != "" {
		cfg.Board.APIBaseURL = *apiURLFlag
	}

	level := cfg.Logging.Level
	if *logLevelFlag != "" {
		level = *logLevelFlag
	}
	// stdout belongs to the rendered board
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      level,
		Format:     cfg.Logging.Format,
		OutputPath: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)
	tracing.SetServiceName(serviceName)

	provided, closeBus, err := events.Provide(cfg, log)
	if err != nil {
		log.Error("failed to initialize event bus", zap.Error(err))
		return 1
	}
	defer func() { _ = closeBus() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coord := newCoordinator(ctx, cfg, provided.Bus, log)
	err = run(ctx, coord, os.Stdout, *queryFlag, args)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := tracing.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Debug("tracing shutdown error", zap.Error(shutdownErr))
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "boardctl: %v\n", err)
		return 1
	}
	return 0
}

// newCoordinator builds a board coordinator talking to the configured Task
// API. Columns come from the server; the defaults are used when it cannot
// be asked.
func newCoordinator(ctx context.Context, cfg *config.Config, eventBus bus.EventBus, log *logger.Logger) *board.Coordinator {
	client := taskclient.NewClient(cfg.Board.APIBaseURL, log,
		taskclient.WithTimeout(cfg.Board.RequestTimeoutDuration()))

	opts := []board.Option{
		board.WithPageSize(cfg.Board.PageSize),
		board.WithDeleteDelay(cfg.Board.DeleteDelay()),
		board.WithIDStrategy(board.IDStrategy(cfg.Board.IDStrategy)),
		board.WithLogger(log),
		board.WithEventBus(eventBus),
	}
	if cols, err := client.Columns(ctx); err != nil {
		log.Warn("failed to fetch columns, using defaults", zap.Error(err))
	} else {
		opts = append(opts, board.WithColumns(cols))
	}
	return board.NewCoordinator(client, opts...)
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [flags] <command> [args]\n\nCommands:\n", os.Args[0])
	for _, cmd := range commands {
		fmt.Fprintf(out, "  %-44s %s\n", cmd.usage, cmd.summary)
	}
	fmt.Fprintf(out, "\nFlags:\n")
	flag.PrintDefaults()
}
