package envconfig

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
)

func toInt(v any) (int, error) {
	switch v := v.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	}
	return 0, fmt.Errorf("cannot convert %T to integer", v)
}

// ToInt transforms a literal value into int
func ToInt(v any) (any, error) {
	return toInt(v)
}

// ToLower transforms a value into its lower-cased string form
func ToLower(v any) (any, error) {
	if v == nil {
		return "", nil
	}
	return strings.ToLower(fmt.Sprint(v)), nil
}

// OneOf validates that the value is one of choices
func OneOf(choices ...string) func(any) bool {
	return func(v any) bool {
		s, ok := v.(string)
		return ok && slices.Contains(choices, s)
	}
}

// IntRange validates that the value is an int in [min, max]
func IntRange(min, max int) func(any) bool {
	return func(v any) bool {
		i, ok := v.(int)
		return ok && i >= min && i <= max
	}
}

// NotEmpty validates that the value is a non blank string
func NotEmpty(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

// VarInfo describes a declared variable for help output
type VarInfo struct {
	Name     string
	Default  string
	Required bool
	Hint     string
}

// Describe returns the schema variables with their full names in sorted order
func Describe(prefix string, schema Schema) []VarInfo {
	prefix = NormalizePrefix(prefix)
	infos := make([]VarInfo, 0, len(schema))
	for _, name := range schema.names() {
		d := schema[name]
		info := VarInfo{Name: prefix + name, Required: d.required(), Hint: d.Hint}
		if !info.Required {
			info.Default = fmt.Sprintf("%q", fmt.Sprint(d.Value))
		}
		infos = append(infos, info)
	}
	return infos
}

// WriteHelp prints the schema as a table
func WriteHelp(w io.Writer, prefix string, schema Schema) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIABLE\tDEFAULT\tHINT")
	for _, info := range Describe(prefix, schema) {
		def := info.Default
		if info.Required {
			def = "(required)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name, def, info.Hint)
	}
	return tw.Flush()
}
