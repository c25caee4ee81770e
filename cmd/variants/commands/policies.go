package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newPoliciesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "List loaded policies",
		Example: `  # List built-in and custom policies
  variants policies --policy ./policies`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			policies := a.policies.ListPolicies()
			if jsonOutput {
				return writeJSON(os.Stdout, policies)
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSEVERITY\tSOURCE\tDESCRIPTION")
			for _, p := range policies {
				source := "builtin"
				if !p.Builtin {
					source, _ = p.Metadata["source"].(string)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Severity, source, strings.TrimSpace(p.Description))
			}
			return tw.Flush()
		},
	}

	return cmd
}
