package envconfig

import (
	"fmt"
	"strings"
)

func withHint(msg, hint string) string {
	if hint == "" {
		return msg
	}
	return fmt.Sprintf("%s (hint: %s)", msg, hint)
}

// ValidationError is returned when an environment value fails validation after transformation
type ValidationError struct {
	Var  string
	Hint string
}

func (e *ValidationError) Error() string {
	return withHint(fmt.Sprintf("contents of var '%s' invalid", e.Var), e.Hint)
}

// InvalidDefaultError is returned when a declared default is invalid and the environment has no override
type InvalidDefaultError struct {
	Var  string
	Hint string
}

func (e *InvalidDefaultError) Error() string {
	return withHint(fmt.Sprintf("default of var '%s' invalid and no override provided", e.Var), e.Hint)
}

// MissingEnvVarError lists every required variable absent from the environment
type MissingEnvVarError struct {
	Vars []string
}

func (e *MissingEnvVarError) Error() string {
	s := ""
	if len(e.Vars) > 1 {
		s = "s"
	}
	return fmt.Sprintf("env variable%s missing: %s", s, strings.Join(e.Vars, ", "))
}

// TransformationError wraps the error returned by a transformer
type TransformationError struct {
	Var  string
	Hint string
	Err  error
}

func (e *TransformationError) Error() string {
	return withHint(fmt.Sprintf("could not transform '%s': %v", e.Var, e.Err), e.Hint)
}

func (e *TransformationError) Unwrap() error {
	return e.Err
}
