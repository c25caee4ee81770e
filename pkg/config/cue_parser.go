package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
)

// CUEParser decodes declarations written in CUE.
type CUEParser struct {
	ctx *cue.Context
}

// NewCUEParser creates a new CUE parser.
func NewCUEParser() *CUEParser {
	return NewCUEParserWithContext(cuecontext.New())
}

// NewCUEParserWithContext creates a parser compiling into ctx.
func NewCUEParserWithContext(ctx *cue.Context) *CUEParser {
	return &CUEParser{ctx: ctx}
}

// ParseFile compiles a single CUE file.
func (cp *CUEParser) ParseFile(path string) (cue.Value, []ValidationError) {
	content, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, []ValidationError{{
			File:     path,
			Message:  fmt.Sprintf("failed to read file: %v", err),
			Severity: "error",
		}}
	}

	val := cp.ctx.CompileBytes(content, cue.Filename(path))
	if err := val.Err(); err != nil {
		return cue.Value{}, cp.convertCUEErrors(err)
	}

	return val, nil
}

// ParseModule loads every package of a CUE module rooted at dir (a
// directory holding cue.mod) and unifies them.
func (cp *CUEParser) ParseModule(dir string) (cue.Value, []string, []ValidationError) {
	instances := load.Instances([]string{"./..."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, nil, []ValidationError{{
			File:     dir,
			Message:  "no CUE files found",
			Severity: "error",
		}}
	}

	var merged cue.Value
	var files []string
	for _, inst := range instances {
		if inst.Err != nil {
			return cue.Value{}, nil, cp.convertCUEErrors(inst.Err)
		}

		val := cp.ctx.BuildInstance(inst)
		if err := val.Err(); err != nil {
			return cue.Value{}, nil, cp.convertCUEErrors(err)
		}
		merged = unify(merged, val)

		for _, file := range inst.Files {
			if file.Filename != "" {
				files = append(files, file.Filename)
			}
		}
	}

	return merged, files, nil
}

// ParseInline compiles inline CUE content.
func (cp *CUEParser) ParseInline(content string) (cue.Value, []ValidationError) {
	val := cp.ctx.CompileString(content, cue.Filename("inline"))
	if err := val.Err(); err != nil {
		return cue.Value{}, cp.convertCUEErrors(err)
	}
	return val, nil
}

// Unify merges values and reports conflicts with positions.
func (cp *CUEParser) Unify(values ...cue.Value) (cue.Value, []ValidationError) {
	var merged cue.Value
	for _, v := range values {
		merged = unify(merged, v)
	}
	if !merged.Exists() {
		return merged, nil
	}
	if err := merged.Validate(); err != nil {
		return cue.Value{}, cp.convertCUEErrors(err)
	}
	return merged, nil
}

func unify(a, b cue.Value) cue.Value {
	if !a.Exists() {
		return b
	}
	return a.Unify(b)
}

// Extract decodes the workspace and components of a CUE value into pc.
// Components may be a struct keyed by name, which keeps field order, or a
// list of components carrying a name field.
func (cp *CUEParser) Extract(val cue.Value, pc *ParsedConfig) {
	if ws := val.LookupPath(cue.ParsePath("workspace")); ws.Exists() {
		var workspace WorkspaceConfig
		if err := ws.Decode(&workspace); err != nil {
			pc.Errors = append(pc.Errors, cp.positioned(ws, "workspace", err))
		} else {
			pc.Declaration.Workspace = &workspace
		}
	}

	components := val.LookupPath(cue.ParsePath("components"))
	if !components.Exists() {
		return
	}

	switch components.Kind() {
	case cue.StructKind:
		iter, err := components.Fields()
		if err != nil {
			pc.Errors = append(pc.Errors, cp.positioned(components, "components", err))
			return
		}
		for iter.Next() {
			name := iter.Selector().Unquoted()
			path := "components." + iter.Selector().String()
			comp, ok := cp.extractComponent(iter.Value(), path, pc)
			if !ok {
				continue
			}
			if comp.Name == "" {
				comp.Name = name
			}
			pc.Declaration.Components = append(pc.Declaration.Components, comp)
		}

	case cue.ListKind:
		list, err := components.List()
		if err != nil {
			pc.Errors = append(pc.Errors, cp.positioned(components, "components", err))
			return
		}
		for idx := 0; list.Next(); idx++ {
			comp, ok := cp.extractComponent(list.Value(), fmt.Sprintf("components[%d]", idx), pc)
			if ok {
				pc.Declaration.Components = append(pc.Declaration.Components, comp)
			}
		}

	default:
		pc.Errors = append(pc.Errors, cp.positioned(components, "components",
			fmt.Errorf("expected a struct or list, got %s", components.Kind())))
	}
}

func (cp *CUEParser) extractComponent(val cue.Value, path string, pc *ParsedConfig) (ComponentConfig, bool) {
	var comp ComponentConfig
	if err := val.Decode(&comp); err != nil {
		pc.Errors = append(pc.Errors, cp.positioned(val, path, err))
		return comp, false
	}
	comp.Source = val.Pos().Filename()
	return comp, true
}

// positioned converts a decode error into a ValidationError at val.
func (cp *CUEParser) positioned(val cue.Value, path string, err error) ValidationError {
	ve := ValidationError{
		Path:     path,
		Message:  err.Error(),
		Severity: "error",
	}
	if pos := val.Pos(); pos.IsValid() {
		ve.File = pos.Filename()
		ve.Line = pos.Line()
		ve.Column = pos.Column()
	}
	return ve
}

// convertCUEErrors converts CUE errors to ValidationErrors.
func (cp *CUEParser) convertCUEErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	for _, e := range errors.Errors(err) {
		ve := ValidationError{
			Path:     strings.Join(e.Path(), "."),
			Message:  errors.Details(e, nil),
			Severity: "error",
		}
		if pos := errors.Positions(e); len(pos) > 0 {
			ve.File = pos[0].Filename()
			ve.Line = pos[0].Line()
			ve.Column = pos[0].Column()
		}
		validationErrors = append(validationErrors, ve)
	}

	return validationErrors
}

// isCUEModule reports whether dir is the root of a CUE module.
func isCUEModule(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "cue.mod"))
	return err == nil && info.IsDir()
}
