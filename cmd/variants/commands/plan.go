package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/variantspace/pkg/engine"
)

func newPlanCommand() *cobra.Command {
	var (
		outFile      string
		showExcluded bool
	)

	cmd := &cobra.Command{
		Use:   "plan [path...]",
		Short: "Resolve build variants",
		Long: `Resolve the build variants of every declared component.

The plan:
  - Registers the dimensions of each component
  - Expands the cartesian space of coordinates
  - Applies the declared filters
  - Names every kept variant
  - Evaluates policies against each component`,
		Example: `  # Print the variants of the declarations in current directory
  variants plan

  # Write the plan to a file
  variants plan --out plan.json ./components

  # Enforce a tighter variant limit
  variants plan --max-variants 16`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			plan, err := a.resolver.Resolve(ctx, sourcesFrom(args))
			if err != nil {
				return err
			}

			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", outFile, err)
				}
				if err := writeJSON(f, plan); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				log.Info().Str("out", outFile).Str("plan", plan.ID).Msg("Plan written")
			}

			if jsonOutput {
				if err := writeJSON(os.Stdout, plan); err != nil {
					return err
				}
			} else {
				printPlan(os.Stdout, plan, showExcluded)
			}

			if !plan.Allowed {
				return ErrDenied
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the JSON plan to a file")
	cmd.Flags().BoolVar(&showExcluded, "excluded", false, "list excluded variants")

	return cmd
}

func printPlan(w io.Writer, plan *engine.Plan, showExcluded bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for _, c := range plan.Components {
		fmt.Fprintf(tw, "%s\t(%d of %d variants)\n", c.Name, len(c.Variants), c.SpaceSize)
		for _, v := range c.Variants {
			name := v.Name
			if name == "" {
				name = "<default>"
			}
			fmt.Fprintf(tw, "  %s\t%s\n", name, coordinates(v))
		}
		if showExcluded {
			for _, v := range c.Excluded {
				fmt.Fprintf(tw, "  - %s\t%s\n", v.FullName, coordinates(v))
			}
		}
		if c.Policy != nil {
			for _, v := range c.Policy.Violations {
				fmt.Fprintf(tw, "  ! %s\t%s: %s\n", v.Severity, v.Policy, v.Message)
			}
		}
	}
	tw.Flush()

	for _, warning := range plan.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}

	s := plan.Summary
	fmt.Fprintf(w, "\n%d components, %d variants kept, %d excluded, %d violations\n",
		s.Components, s.Variants, s.Excluded, s.Violations)
}

func coordinates(v engine.VariantPlan) string {
	parts := make([]string, 0, len(v.Coordinates))
	for _, c := range v.Coordinates {
		value := c.Value
		if c.Absent {
			value = "-"
		}
		parts = append(parts, c.Axis+"="+value)
	}
	return strings.Join(parts, " ")
}
