package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/openfroyo/variantspace/cmd/variants/commands"
	"github.com/openfroyo/variantspace/pkg/engine"
	"github.com/rs/zerolog"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"denied plan", commands.ErrDenied, exitDenied},
		{"policy error", engine.NewPolicyError("policy evaluation failed", nil), exitDenied},
		{"invalid declarations", commands.ErrInvalid, exitInvalid},
		{"wrapped configuration error", fmt.Errorf("load: %w", engine.NewConfigurationError("invalid declarations", nil)), exitInvalid},
		{"internal error", engine.NewInternalError("no evaluator configured", nil), exitFailure},
		{"plain error", errors.New("boom"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSetupLogging_Level(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	tests := []struct {
		name     string
		variants string
		fallback string
		want     zerolog.Level
	}{
		{"default", "", "", zerolog.InfoLevel},
		{"fallback", "", "warn", zerolog.WarnLevel},
		{"own variable wins", "debug", "error", zerolog.DebugLevel},
		{"unknown level", "loud", "", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("VARIANTS_LOG_LEVEL", tt.variants)
			t.Setenv("LOG_LEVEL", tt.fallback)
			setupLogging()
			if got := zerolog.GlobalLevel(); got != tt.want {
				t.Errorf("level = %s, want %s", got, tt.want)
			}
		})
	}
}
