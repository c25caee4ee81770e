package config

import (
	"fmt"
	"strings"
	"time"
)

// AxisValue is the value type of every declared axis. The empty value is
// the unlabeled default.
type AxisValue string

// Name returns the display name of the value.
func (v AxisValue) Name() string { return string(v) }

// Declaration is the decoded form of one or more declaration files.
type Declaration struct {
	// Workspace optionally names the workspace.
	Workspace *WorkspaceConfig `json:"workspace,omitempty" yaml:"workspace,omitempty"`

	// Components are the declared components in declaration order.
	Components []ComponentConfig `json:"components" yaml:"components" validate:"dive"`
}

// WorkspaceConfig carries workspace-level settings.
type WorkspaceConfig struct {
	// Name is the workspace name.
	Name string `json:"name" yaml:"name" validate:"required"`

	// MaxVariants overrides the policy variant limit when non-zero.
	MaxVariants int `json:"max_variants,omitempty" yaml:"max_variants,omitempty" validate:"gte=0"`
}

// ComponentConfig declares one component and its dimensions.
type ComponentConfig struct {
	// Name is the component name. In CUE and YAML maps it is the key.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Description is a free-form description.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Dimensions are the axes of the component in declaration order.
	Dimensions []DimensionConfig `json:"dimensions,omitempty" yaml:"dimensions,omitempty" validate:"dive"`

	// Source is the file the component was declared in.
	Source string `json:"-" yaml:"-"`
}

// DimensionConfig declares one axis of a component.
type DimensionConfig struct {
	// Axis is the axis id (e.g. "os", "build-type").
	Axis string `json:"axis" yaml:"axis" validate:"required,axisid"`

	// Name overrides the axis name used in variant names.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// DisplayName overrides the axis name used in messages.
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`

	// Values are the candidate values. "" is the unlabeled default.
	Values []string `json:"values,omitempty" yaml:"values,omitempty"`

	// DefaultValues are used when Values is empty.
	DefaultValues []string `json:"default_values,omitempty" yaml:"default_values,omitempty"`

	// ValidValues restricts the accepted values when set.
	ValidValues []string `json:"valid_values,omitempty" yaml:"valid_values,omitempty"`

	// Validate is a Starlark expression over values.
	Validate string `json:"validate,omitempty" yaml:"validate,omitempty"`

	// Optional lets the axis be absent from a variant.
	Optional bool `json:"optional,omitempty" yaml:"optional,omitempty"`

	// OnlyOn keeps the axis only where another axis has a value.
	OnlyOn *ValueRef `json:"only_on,omitempty" yaml:"only_on,omitempty"`

	// ExceptOn keeps the axis except where another axis has a value.
	ExceptOn *ValueRef `json:"except_on,omitempty" yaml:"except_on,omitempty"`

	// OnlyIf keeps variants where the expression holds.
	OnlyIf *ExprRef `json:"only_if,omitempty" yaml:"only_if,omitempty"`

	// ExceptIf drops variants where the expression holds.
	ExceptIf *ExprRef `json:"except_if,omitempty" yaml:"except_if,omitempty"`
}

// HasFilter reports whether the dimension carries any filter.
func (d DimensionConfig) HasFilter() bool {
	return d.OnlyOn != nil || d.ExceptOn != nil || d.OnlyIf != nil || d.ExceptIf != nil
}

// References returns the axes the dimension's filters refer to.
func (d DimensionConfig) References() []string {
	var refs []string
	for _, r := range []*ValueRef{d.OnlyOn, d.ExceptOn} {
		if r != nil {
			refs = append(refs, r.Axis)
		}
	}
	for _, r := range []*ExprRef{d.OnlyIf, d.ExceptIf} {
		if r != nil {
			refs = append(refs, r.Axis)
		}
	}
	return refs
}

// ValueRef names a value of another axis.
type ValueRef struct {
	Axis  string `json:"axis" yaml:"axis" validate:"required,axisid"`
	Value string `json:"value" yaml:"value"`
}

// ExprRef relates the axis to another axis through a Starlark expression.
type ExprRef struct {
	Axis string `json:"axis" yaml:"axis" validate:"required,axisid"`
	Expr string `json:"expr" yaml:"expr" validate:"required"`
}

// ValidationError is a declaration error with its source position.
type ValidationError struct {
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Path     string `json:"path,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

func (e ValidationError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d:%d", e.Line, e.Column)
		}
		b.WriteString(": ")
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// ValidationErrors collects every error found in a declaration set.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	switch len(errs) {
	case 0:
		return "no validation errors"
	case 1:
		return errs[0].Error()
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = "  " + e.Error()
	}
	return fmt.Sprintf("%d validation errors:\n%s", len(errs), strings.Join(lines, "\n"))
}

// ParsedConfig is the result of parsing declaration sources.
type ParsedConfig struct {
	// SourceFiles are the files that were read.
	SourceFiles []string `json:"source_files"`

	// Declaration is the merged declaration.
	Declaration Declaration `json:"declaration"`

	// ParsedAt is when parsing completed.
	ParsedAt time.Time `json:"parsed_at"`

	// Errors are the errors found while parsing and validating.
	Errors ValidationErrors `json:"errors,omitempty"`
}

// HasErrors reports whether any error was recorded.
func (pc *ParsedConfig) HasErrors() bool {
	return len(pc.Errors) > 0
}

func (pc *ParsedConfig) addError(path, format string, args ...interface{}) {
	pc.Errors = append(pc.Errors, ValidationError{
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
		Severity: "error",
	})
}
