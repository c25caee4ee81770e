package config

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// SchemaRegistry holds named CUE definitions used to validate decoded
// declarations.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

// NewSchemaRegistry creates a registry with the built-in schemas.
func NewSchemaRegistry() *SchemaRegistry {
	return NewSchemaRegistryWithContext(cuecontext.New())
}

// NewSchemaRegistryWithContext creates a registry whose schemas live in ctx,
// so values compiled in ctx can be checked with ValidateValue.
func NewSchemaRegistryWithContext(ctx *cue.Context) *SchemaRegistry {
	sr := &SchemaRegistry{
		ctx:     ctx,
		schemas: make(map[string]cue.Value),
	}

	for name, def := range map[string]string{
		"declaration":   "#Declaration",
		"component":     "#Component",
		"dimension":     "#Dimension",
		"source-struct": "#StructSource",
		"source-list":   "#ListSource",
	} {
		if err := sr.RegisterSchema(name, builtinDeclarationSchema, def); err != nil {
			panic(fmt.Sprintf("built-in schema %s: %v", name, err))
		}
	}

	return sr
}

// RegisterSchema compiles source and registers the definition def under name.
func (sr *SchemaRegistry) RegisterSchema(name, source, def string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val := sr.ctx.CompileString(source, cue.Filename(name+".cue"))
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	schema := val.LookupPath(cue.ParsePath(def))
	if !schema.Exists() {
		return fmt.Errorf("schema %s does not define %s", name, def)
	}

	sr.schemas[name] = schema
	return nil
}

// GetSchema retrieves a schema by name.
func (sr *SchemaRegistry) GetSchema(name string) (cue.Value, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	val, ok := sr.schemas[name]
	return val, ok
}

// ValidateAgainstSchema encodes data and checks it against the named schema.
func (sr *SchemaRegistry) ValidateAgainstSchema(ctx context.Context, schemaName string, data interface{}) error {
	schema, ok := sr.GetSchema(schemaName)
	if !ok {
		return fmt.Errorf("schema %s not found", schemaName)
	}

	sr.mu.Lock()
	defer sr.mu.Unlock()

	dataVal := sr.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	unified := schema.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}

	return nil
}

// ValidateValue checks a value compiled in the registry's context against
// the named schema. Errors keep their source positions.
func (sr *SchemaRegistry) ValidateValue(schemaName string, val cue.Value) error {
	schema, ok := sr.GetSchema(schemaName)
	if !ok {
		return fmt.Errorf("schema %s not found", schemaName)
	}
	return schema.Unify(val).Validate(cue.Concrete(true))
}

// Context returns the CUE context the schemas are compiled in.
func (sr *SchemaRegistry) Context() *cue.Context { return sr.ctx }

// ValidateDeclaration checks a decoded declaration.
func (sr *SchemaRegistry) ValidateDeclaration(ctx context.Context, decl Declaration) error {
	return sr.ValidateAgainstSchema(ctx, "declaration", decl)
}

// ListSchemas returns all registered schema names, sorted.
func (sr *SchemaRegistry) ListSchemas() []string {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	names := make([]string, 0, len(sr.schemas))
	for name := range sr.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const builtinDeclarationSchema = `
#AxisID: =~"^[a-zA-Z][a-zA-Z0-9_-]*$"

#ValueRef: {
	axis:  #AxisID
	value: string
}

#ExprRef: {
	axis: #AxisID
	expr: string & !=""
}

#Dimension: {
	axis:            #AxisID
	name?:           string
	display_name?:   string
	values?:         [...string]
	default_values?: [...string]
	valid_values?:   [...string]
	validate?:       string
	optional?:       bool
	only_on?:        #ValueRef
	except_on?:      #ValueRef
	only_if?:        #ExprRef
	except_if?:      #ExprRef
}

#Component: {
	name:         string & !=""
	description?: string
	dimensions?:  [...#Dimension]
}

#ComponentBody: {
	name?:        string & !=""
	description?: string
	dimensions?:  [...#Dimension]
}

#StructSource: {
	workspace?:  #Workspace
	components?: {[string]: #ComponentBody}
}

#ListSource: {
	workspace?:  #Workspace
	components?: [...#Component]
}

#Workspace: {
	name:          string & !=""
	max_variants?: int & >=0
}

#Declaration: {
	workspace?: #Workspace
	components: [...#Component]
}
`
