package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/variantspace/pkg/config"
	"github.com/openfroyo/variantspace/pkg/engine"
	"github.com/openfroyo/variantspace/pkg/variant"
)

type validationReport struct {
	Valid      bool                       `json:"valid"`
	Files      []string                   `json:"files"`
	Components int                        `json:"components"`
	Errors     []config.ValidationError   `json:"errors,omitempty"`
	Dimensions []dimensionValidationError `json:"dimension_errors,omitempty"`
}

type dimensionValidationError struct {
	Component string `json:"component"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path...]",
		Short: "Validate variant declarations",
		Long: `Validate variant declarations without resolving them.

This command checks:
  - CUE and YAML syntax validity
  - Schema conformance
  - Filter references and Starlark expressions
  - Dimension registration (candidate values, valid values, validators)`,
		Example: `  # Validate declarations in current directory
  variants validate

  # Validate a specific directory and an extra file pattern
  variants validate --include "**/*.decl.yaml" ./components`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			sources := sourcesFrom(args)
			log.Debug().Strs("sources", sources).Msg("Validating declarations")

			report := validationReport{}
			pc, err := a.loader.Parse(ctx, sources)
			if err != nil {
				return err
			}
			report.Files = pc.SourceFiles
			report.Errors = pc.Errors

			if !pc.HasErrors() {
				ws, err := a.loader.Build(pc)
				var verrs config.ValidationErrors
				switch {
				case errors.As(err, &verrs):
					report.Errors = verrs
				case err != nil:
					return err
				default:
					report.Components = len(ws.Components)
					report.Dimensions = registerAll(ws)
				}
			}
			report.Valid = len(report.Errors) == 0 && len(report.Dimensions) == 0

			if jsonOutput {
				if err := writeJSON(os.Stdout, report); err != nil {
					return err
				}
			} else {
				printValidation(report)
			}

			if !report.Valid {
				return ErrInvalid
			}
			return nil
		},
	}

	return cmd
}

// registerAll registers the dimensions of every component and reports the
// first failure of each.
func registerAll(ws *engine.Workspace) []dimensionValidationError {
	var out []dimensionValidationError
	for _, c := range ws.Components {
		vd := variant.NewVariantDimensions(c.Name)
		for _, d := range c.Dimensions {
			if err := vd.Register(d); err != nil {
				e := engine.FromVariantError(c.Name, err)
				out = append(out, dimensionValidationError{
					Component: c.Name,
					Code:      e.Code,
					Message:   err.Error(),
				})
				break
			}
		}
	}
	return out
}

func printValidation(r validationReport) {
	for _, e := range r.Errors {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	for _, e := range r.Dimensions {
		fmt.Fprintf(os.Stderr, "component %s: %s [%s]\n", e.Component, e.Message, e.Code)
	}
	if r.Valid {
		fmt.Printf("%d components in %d files are valid\n", r.Components, len(r.Files))
	}
}
