// Package envconfig resolves a declared set of prefixed environment variables into
// an immutable configuration. Every variable carries a default value, an optional
// validator, an optional transformer and a human readable hint.
package envconfig

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type invalidDefault struct{}

// Required is used as Default.Value for variables that must come from the environment
var Required any = invalidDefault{}

// Default describes one configuration variable
type Default struct {
	Value       any
	Validator   func(any) bool
	Transformer func(any) (any, error)
	Hint        string
}

func (d Default) required() bool {
	_, ok := d.Value.(invalidDefault)
	return ok
}

func (d Default) validate(value any) bool {
	if _, ok := value.(invalidDefault); ok {
		return false
	}
	if d.Validator == nil {
		return true
	}
	return d.Validator(value)
}

func (d Default) transform(value any) (any, error) {
	if d.Transformer == nil {
		return value, nil
	}
	return d.Transformer(value)
}

// decode evaluates raw as a literal, e.g. "5432" becomes int and "true" becomes bool.
// Variables with a string default keep the raw text, so passwords like "0123" survive.
func (d Default) decode(raw string) any {
	if _, isString := d.Value.(string); isString {
		return raw
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
		return raw
	}
	return v
}

// Schema maps variable names (without prefix) to their declaration
type Schema map[string]Default

func (s Schema) names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NormalizePrefix makes sure the prefix ends with an underscore
func NormalizePrefix(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, "_") {
		return prefix
	}
	return prefix + "_"
}

// Build resolves schema against environ (in os.Environ() format). An environment
// override has priority over the default, an absent override requires a valid default.
func Build(prefix string, schema Schema, environ []string) (*Env, error) {
	prefix = NormalizePrefix(prefix)
	overrides := make(map[string]string)
	var unknown []string
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		short := strings.TrimPrefix(name, prefix)
		if _, declared := schema[short]; !declared {
			unknown = append(unknown, name)
			continue
		}
		overrides[short] = value
	}

	env := &Env{values: make(map[string]any, len(schema))}
	var missing []string
	for _, name := range schema.names() {
		d := schema[name]
		raw, overridden := overrides[name]
		if !overridden {
			switch {
			case d.validate(d.Value):
				env.values[name] = d.Value
			case d.required():
				missing = append(missing, prefix+name)
			default:
				return nil, &InvalidDefaultError{Var: prefix + name, Hint: d.Hint}
			}
			continue
		}
		value, err := d.transform(d.decode(raw))
		if err != nil {
			return nil, &TransformationError{Var: prefix + name, Hint: d.Hint, Err: err}
		}
		if !d.validate(value) {
			return nil, &ValidationError{Var: prefix + name, Hint: d.Hint}
		}
		env.values[name] = value
	}
	if len(missing) > 0 {
		return nil, &MissingEnvVarError{Vars: missing}
	}
	sort.Strings(unknown)
	env.unknown = unknown
	return env, nil
}

// Env is the resolved configuration. It is never modified after Build returns.
type Env struct {
	values  map[string]any
	unknown []string
}

// Get returns the resolved value of the variable name
func (e *Env) Get(name string) (any, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Unknown returns prefixed environment variables not declared in the schema
func (e *Env) Unknown() []string {
	return append([]string(nil), e.unknown...)
}
