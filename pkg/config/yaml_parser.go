package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// YAMLParser decodes declarations written in YAML. Documents are checked
// against the same CUE schema as CUE sources.
type YAMLParser struct {
	schemas *SchemaRegistry
}

// NewYAMLParser creates a YAML parser validating with schemas.
func NewYAMLParser(schemas *SchemaRegistry) *YAMLParser {
	return &YAMLParser{schemas: schemas}
}

// ParseFile decodes one YAML declaration file into pc.
func (yp *YAMLParser) ParseFile(path string, pc *ParsedConfig) {
	content, err := os.ReadFile(path)
	if err != nil {
		pc.Errors = append(pc.Errors, ValidationError{
			File:     path,
			Message:  fmt.Sprintf("failed to read file: %v", err),
			Severity: "error",
		})
		return
	}
	yp.Parse(path, content, pc)
}

// Parse decodes YAML content into pc. Components may be a mapping keyed by
// name, which keeps key order, or a sequence of components with names.
func (yp *YAMLParser) Parse(file string, content []byte, pc *ParsedConfig) {
	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(content)).Decode(&root); err != nil {
		pc.Errors = append(pc.Errors, ValidationError{
			File:     file,
			Message:  fmt.Sprintf("invalid YAML: %v", err),
			Severity: "error",
		})
		return
	}
	if len(root.Content) == 0 {
		return
	}
	doc := root.Content[0]

	if !yp.checkSchema(file, doc, pc) {
		return
	}

	if ws := mappingValue(doc, "workspace"); ws != nil {
		var workspace WorkspaceConfig
		if err := ws.Decode(&workspace); err != nil {
			pc.Errors = append(pc.Errors, nodeError(file, ws, "workspace", err))
		} else {
			pc.Declaration.Workspace = &workspace
		}
	}

	components := mappingValue(doc, "components")
	if components == nil {
		return
	}

	switch components.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(components.Content); i += 2 {
			key, val := components.Content[i], components.Content[i+1]
			var comp ComponentConfig
			if err := val.Decode(&comp); err != nil {
				pc.Errors = append(pc.Errors, nodeError(file, val, "components."+key.Value, err))
				continue
			}
			if comp.Name == "" {
				comp.Name = key.Value
			}
			comp.Source = file
			pc.Declaration.Components = append(pc.Declaration.Components, comp)
		}

	case yaml.SequenceNode:
		for i, val := range components.Content {
			var comp ComponentConfig
			if err := val.Decode(&comp); err != nil {
				pc.Errors = append(pc.Errors, nodeError(file, val, fmt.Sprintf("components[%d]", i), err))
				continue
			}
			comp.Source = file
			pc.Declaration.Components = append(pc.Declaration.Components, comp)
		}

	default:
		pc.Errors = append(pc.Errors, nodeError(file, components, "components",
			fmt.Errorf("expected a mapping or sequence")))
	}
}

// checkSchema validates the generic document against the source schema
// matching the components form.
func (yp *YAMLParser) checkSchema(file string, doc *yaml.Node, pc *ParsedConfig) bool {
	var generic map[string]interface{}
	if err := doc.Decode(&generic); err != nil {
		pc.Errors = append(pc.Errors, nodeError(file, doc, "", err))
		return false
	}

	schema := "source-struct"
	if c := mappingValue(doc, "components"); c != nil && c.Kind == yaml.SequenceNode {
		schema = "source-list"
	}

	err := yp.schemas.ValidateAgainstSchema(context.Background(), schema, generic)
	if err == nil {
		return true
	}

	for _, e := range errors.Errors(err) {
		path := e.Path()
		ve := ValidationError{
			File:     file,
			Path:     strings.Join(path, "."),
			Message:  errors.Details(e, nil),
			Severity: "error",
		}
		if n := nodeAt(doc, path); n != nil {
			ve.Line = n.Line
			ve.Column = n.Column
		}
		pc.Errors = append(pc.Errors, ve)
	}
	return false
}

// mappingValue returns the value node of key in a mapping node.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// nodeAt follows a CUE error path through the YAML tree, returning the
// deepest node reached.
func nodeAt(n *yaml.Node, path []string) *yaml.Node {
	cur := n
	for _, sel := range path {
		var next *yaml.Node
		switch cur.Kind {
		case yaml.MappingNode:
			next = mappingValue(cur, strings.Trim(sel, `"`))
		case yaml.SequenceNode:
			if i, err := strconv.Atoi(sel); err == nil && i >= 0 && i < len(cur.Content) {
				next = cur.Content[i]
			}
		}
		if next == nil {
			return cur
		}
		cur = next
	}
	return cur
}

func nodeError(file string, n *yaml.Node, path string, err error) ValidationError {
	return ValidationError{
		File:     file,
		Line:     n.Line,
		Column:   n.Column,
		Path:     path,
		Message:  err.Error(),
		Severity: "error",
	}
}
