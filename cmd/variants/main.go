package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/openfroyo/variantspace/cmd/variants/commands"
	"github.com/openfroyo/variantspace/pkg/engine"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Process exit codes by failure class.
const (
	exitFailure = 1
	exitInvalid = 2
	exitDenied  = 3
)

func main() {
	setupLogging()

	// Cancel resolution and the watch loop on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := commands.Execute(ctx, Version, Commit, BuildDate)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("Interrupted")
		os.Exit(exitFailure)
	}

	event := log.Error().Err(err)
	var ee *engine.EngineError
	if errors.As(err, &ee) {
		event = event.Str("code", ee.Code)
	}
	event.Msg("Command execution failed")
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, commands.ErrDenied), engine.IsPolicy(err):
		return exitDenied
	case errors.Is(err, commands.ErrInvalid), engine.IsConfiguration(err):
		return exitInvalid
	default:
		return exitFailure
	}
}

// setupLogging configures zerolog from VARIANTS_LOG_LEVEL, falling back to
// LOG_LEVEL. VARIANTS_LOG_FORMAT=json keeps raw JSON lines for log shippers.
func setupLogging() {
	if os.Getenv("VARIANTS_LOG_FORMAT") != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	level := os.Getenv("VARIANTS_LOG_LEVEL")
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
