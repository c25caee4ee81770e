package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// ErrInvalid is returned by validate when declarations have errors.
	ErrInvalid = errors.New("declarations are invalid")

	// ErrDenied is returned by plan when a policy denies the plan.
	ErrDenied = errors.New("plan denied by policy")
)

var (
	// Global flags
	configPath  string
	verbose     bool
	jsonOutput  bool
	includes    []string
	policyPaths []string
	maxVariants int
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "variants",
		Short: "variants - build variant resolution for components",
		Long: `variants expands the dimensions declared for each component into the
cartesian space of build variants, filters it and names every variant.

Features:
  - Typed declarations via CUE or YAML
  - Filter expressions in Starlark
  - Policy checks via OPA/rego
  - Axis constraint graphs in DOT
  - Live re-resolution on file changes`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose && zerolog.GlobalLevel() > zerolog.DebugLevel {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "telemetry config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringSliceVar(&includes, "include", nil, "extra declaration file patterns (doublestar)")
	rootCmd.PersistentFlags().StringSliceVar(&policyPaths, "policy", nil, "policy files or directories")
	rootCmd.PersistentFlags().IntVar(&maxVariants, "max-variants", -1, "variant limit per component, 0 disables (default from policy)")

	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newGraphCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newPoliciesCommand())

	return rootCmd
}
