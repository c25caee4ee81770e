package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/openfroyo/variantspace/pkg/config"
	"github.com/openfroyo/variantspace/pkg/engine"
	"github.com/openfroyo/variantspace/pkg/policy"
	"github.com/openfroyo/variantspace/pkg/telemetry"
)

// app wires the loader, policy engine and resolver for one command.
type app struct {
	tel      *telemetry.Telemetry
	loader   *config.Loader
	policies *policy.Engine
	resolver *engine.Resolver
}

func newApp(ctx context.Context) (*app, error) {
	cfg := telemetry.DefaultConfig()
	if configPath != "" {
		loaded, err := telemetry.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	logger := tel.Logger.Zerolog()

	var opts []policy.Option
	if maxVariants >= 0 {
		opts = append(opts, policy.WithMaxVariants(maxVariants))
	}
	policies, err := policy.NewEngine(logger, opts...)
	if err != nil {
		return nil, err
	}
	if len(policyPaths) > 0 {
		if err := policies.LoadPolicies(ctx, policyPaths); err != nil {
			return nil, err
		}
	}

	loader := config.NewLoader(
		config.WithLogger(logger),
		config.WithIncludes(includes...),
	)

	return &app{
		tel:      tel,
		loader:   loader,
		policies: policies,
		resolver: engine.NewResolver(loader,
			engine.WithPolicyEvaluator(policies),
			engine.WithTelemetry(tel),
		),
	}, nil
}

func (a *app) close(ctx context.Context) {
	_ = a.tel.Shutdown(ctx)
}

func sourcesFrom(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
