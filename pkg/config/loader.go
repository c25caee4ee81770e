package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/openfroyo/variantspace/pkg/engine"
	"github.com/rs/zerolog"
)

// DeclarationPatterns are the files discovered under a declaration directory.
var DeclarationPatterns = []string{
	"**/*.cue",
	"**/*.variants.yaml",
	"**/*.variants.yml",
}

var axisIDPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// Loader reads component declarations from CUE and YAML sources. It
// implements engine.Evaluator.
type Loader struct {
	cue       *CUEParser
	yaml      *YAMLParser
	schemas   *SchemaRegistry
	starlark  *StarlarkEvaluator
	validator *validator.Validate
	logger    zerolog.Logger
	includes  []string
	timeout   time.Duration
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the loader logger.
func WithLogger(logger zerolog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithIncludes adds doublestar patterns matched under declaration
// directories, on top of DeclarationPatterns.
func WithIncludes(patterns ...string) LoaderOption {
	return func(l *Loader) {
		l.includes = append(l.includes, patterns...)
	}
}

// WithExpressionTimeout bounds each Starlark expression evaluation.
func WithExpressionTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.timeout = d
	}
}

// NewLoader creates a declaration loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With().Str("component", "config-loader").Logger()

	ctx := cuecontext.New()
	l.schemas = NewSchemaRegistryWithContext(ctx)
	l.cue = NewCUEParserWithContext(ctx)
	l.yaml = NewYAMLParser(l.schemas)
	l.starlark = NewStarlarkEvaluator(l.timeout)

	l.validator = validator.New()
	_ = l.validator.RegisterValidation("axisid", func(fl validator.FieldLevel) bool {
		return axisIDPattern.MatchString(fl.Field().String())
	})

	return l
}

// Schemas returns the schema registry.
func (l *Loader) Schemas() *SchemaRegistry { return l.schemas }

// Evaluate parses, validates and builds the declarations in sources.
func (l *Loader) Evaluate(ctx context.Context, sources []string) (*engine.Workspace, error) {
	pc, err := l.Parse(ctx, sources)
	if err != nil {
		return nil, err
	}

	if pc.HasErrors() {
		return nil, invalid(pc.Errors)
	}

	ws, err := l.Build(pc)
	if err != nil {
		var verrs ValidationErrors
		if errors.As(err, &verrs) {
			return nil, invalid(verrs)
		}
		return nil, err
	}

	l.logger.Debug().
		Int("components", len(ws.Components)).
		Int("files", len(ws.Sources)).
		Msg("Declarations loaded")

	return ws, nil
}

func invalid(errs ValidationErrors) *engine.EngineError {
	return engine.NewConfigurationError("invalid declarations", errs).
		WithOperation("load").
		WithDetail("errors", len(errs))
}

// Parse reads every source and returns the merged declaration. Problems in
// the declarations are collected in ParsedConfig.Errors; the returned error
// is reserved for unreadable sources.
func (l *Loader) Parse(ctx context.Context, sources []string) (*ParsedConfig, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources provided")
	}

	pc := &ParsedConfig{}
	var cueValues []cue.Value

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(source)
		if err != nil {
			return nil, fmt.Errorf("failed to stat source %s: %w", source, err)
		}

		if info.IsDir() && isCUEModule(source) {
			val, files, errs := l.cue.ParseModule(source)
			pc.Errors = append(pc.Errors, errs...)
			if val.Exists() {
				cueValues = append(cueValues, val)
			}
			pc.SourceFiles = append(pc.SourceFiles, files...)

			yamlFiles, err := l.discover(source, []string{"**/*.variants.yaml", "**/*.variants.yml"})
			if err != nil {
				return nil, err
			}
			for _, f := range yamlFiles {
				l.yaml.ParseFile(f, pc)
				pc.SourceFiles = append(pc.SourceFiles, f)
			}
			continue
		}

		files := []string{source}
		if info.IsDir() {
			files, err = l.discover(source, append(slices.Clone(DeclarationPatterns), l.includes...))
			if err != nil {
				return nil, err
			}
		}

		for _, f := range files {
			switch {
			case strings.HasSuffix(f, ".cue"):
				val, errs := l.cue.ParseFile(f)
				pc.Errors = append(pc.Errors, errs...)
				if val.Exists() {
					cueValues = append(cueValues, val)
				}
			case strings.HasSuffix(f, ".yaml"), strings.HasSuffix(f, ".yml"):
				l.yaml.ParseFile(f, pc)
			default:
				return nil, fmt.Errorf("unsupported declaration file %s", f)
			}
			pc.SourceFiles = append(pc.SourceFiles, f)
		}
	}

	if len(cueValues) > 0 && !pc.HasErrors() {
		l.extractCUE(cueValues, pc)
	}

	if !pc.HasErrors() {
		l.validate(ctx, pc)
	}

	pc.ParsedAt = time.Now()
	return pc, nil
}

// ParseInline parses CUE content held in memory.
func (l *Loader) ParseInline(ctx context.Context, content string) (*ParsedConfig, error) {
	pc := &ParsedConfig{SourceFiles: []string{"inline"}}

	val, errs := l.cue.ParseInline(content)
	pc.Errors = append(pc.Errors, errs...)
	if !pc.HasErrors() {
		l.extractCUE([]cue.Value{val}, pc)
	}
	if !pc.HasErrors() {
		l.validate(ctx, pc)
	}

	pc.ParsedAt = time.Now()
	return pc, nil
}

// EvaluateInline builds a workspace from CUE content held in memory.
func (l *Loader) EvaluateInline(ctx context.Context, content string) (*engine.Workspace, error) {
	pc, err := l.ParseInline(ctx, content)
	if err != nil {
		return nil, err
	}
	if pc.HasErrors() {
		return nil, invalid(pc.Errors)
	}
	return l.Build(pc)
}

func (l *Loader) extractCUE(values []cue.Value, pc *ParsedConfig) {
	val, errs := l.cue.Unify(values...)
	if len(errs) > 0 {
		pc.Errors = append(pc.Errors, errs...)
		return
	}

	schema := "source-struct"
	if c := val.LookupPath(cue.ParsePath("components")); c.Exists() && c.Kind() == cue.ListKind {
		schema = "source-list"
	}
	if err := l.schemas.ValidateValue(schema, val); err != nil {
		pc.Errors = append(pc.Errors, l.cue.convertCUEErrors(err)...)
		return
	}

	l.cue.Extract(val, pc)
}

// validate checks the merged declaration with struct tags, the declaration
// schema and component name uniqueness.
func (l *Loader) validate(ctx context.Context, pc *ParsedConfig) {
	decl := &pc.Declaration
	if decl.Components == nil {
		decl.Components = []ComponentConfig{}
	}

	if err := l.validator.Struct(decl); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				pc.addError(fe.Namespace(), "failed on '%s' validation (value %q)", fe.Tag(), fmt.Sprint(fe.Value()))
			}
		} else {
			pc.addError("", "%v", err)
		}
		return
	}

	if err := l.schemas.ValidateDeclaration(ctx, *decl); err != nil {
		pc.Errors = append(pc.Errors, l.cue.convertCUEErrors(err)...)
		return
	}

	seen := make(map[string]string, len(decl.Components))
	for _, c := range decl.Components {
		if prev, ok := seen[c.Name]; ok {
			pc.Errors = append(pc.Errors, ValidationError{
				File:     c.Source,
				Path:     "components." + c.Name,
				Message:  fmt.Sprintf("component %s is already declared in %s", c.Name, prev),
				Severity: "error",
			})
			continue
		}
		seen[c.Name] = c.Source
	}
}

// discover returns the files under dir matching any pattern, sorted and
// without duplicates. Files inside cue.mod are skipped.
func (l *Loader) discover(dir string, patterns []string) ([]string, error) {
	fsys := os.DirFS(dir)
	found := make(map[string]struct{})

	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern %q", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		for _, m := range matches {
			if strings.HasPrefix(m, "cue.mod/") {
				continue
			}
			found[m] = struct{}{}
		}
	}

	files := make([]string, 0, len(found))
	for m := range found {
		files = append(files, filepath.Join(dir, filepath.FromSlash(m)))
	}
	sort.Strings(files)

	l.logger.Debug().Str("dir", dir).Int("files", len(files)).Msg("Declarations discovered")

	return files, nil
}

// Discover lists the declaration files under the given sources.
func (l *Loader) Discover(sources []string) ([]string, error) {
	var files []string
	for _, source := range sources {
		info, err := os.Stat(source)
		if err != nil {
			return nil, fmt.Errorf("failed to stat source %s: %w", source, err)
		}
		if !info.IsDir() {
			files = append(files, source)
			continue
		}
		found, err := l.discover(source, append(slices.Clone(DeclarationPatterns), l.includes...))
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}
