// Package config loads component declarations from CUE and YAML and turns
// them into variant registrations.
//
// # Sources
//
// A source is a file or a directory. Directories are scanned with
// doublestar patterns (see DeclarationPatterns, plus WithIncludes). A
// directory holding cue.mod is loaded as a CUE module. CUE files are
// unified before extraction, so several files may contribute to the same
// component.
//
//	components: {
//		"native-library": {
//			dimensions: [
//				{axis: "os", values: ["linux", "windows"]},
//				{axis: "linkage", values: ["shared", "static"],
//				 only_on: {axis: "os", value: "linux"}},
//			]
//		}
//	}
//
// The same document in YAML goes in a *.variants.yaml file. Components and
// dimensions keep their declaration order in both formats.
//
// # Validation
//
// Declarations pass three checks before they are built: the CUE schema
// (SchemaRegistry, definitions #Declaration, #Component and #Dimension),
// struct tags (go-playground/validator) and filter references. Errors carry
// file, line and path where the source provides them.
//
// # Expressions
//
// only_if and except_if take a Starlark expression over current (None when
// the axis is absent), other and axis (a struct with name and values).
// validate takes an expression over values, the list of candidate values;
// it may return a bool or an error message. Expressions are compiled once
// and run with a timeout.
//
// # Usage
//
//	loader := config.NewLoader(config.WithLogger(logger))
//	ws, err := loader.Evaluate(ctx, []string{"variants/"})
package config
