package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openfroyo/variantspace/pkg/engine"
)

func newGraphCommand() *cobra.Command {
	var component string

	cmd := &cobra.Command{
		Use:   "graph [path...]",
		Short: "Print axis constraint graphs in DOT format",
		Example: `  # Render the graph of one component
  variants graph --component native-library | dot -Tsvg > graph.svg`,
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

			components := plan.Components
			if component != "" {
				cp, ok := plan.Component(component)
				if !ok {
					return engine.NewConfigurationError(fmt.Sprintf("component %s not found", component), nil).
						WithCode(engine.ErrCodeNotFound)
				}
				components = []engine.ComponentPlan{*cp}
			}

			if jsonOutput {
				graphs := make(map[string]*engine.ConstraintGraph, len(components))
				for _, c := range components {
					graphs[c.Name] = c.Graph
				}
				return writeJSON(os.Stdout, graphs)
			}

			for _, c := range components {
				if c.Graph == nil {
					continue
				}
				fmt.Print(c.Graph.ToDOT(c.Name))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&component, "component", "", "only render this component")

	return cmd
}
