// Package params implements the three-tier parameter resolution used by
// every recipe: explicit call-site values take precedence over per-folder
// params.json overrides, which take precedence over declared defaults.
package params

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMissingParameter marks a required parameter with no resolved
	// value after merging all three tiers.
	ErrMissingParameter = errors.New("missing parameter")
	// ErrArgumentType marks input that cannot be coerced to the declared
	// parameter type.
	ErrArgumentType = errors.New("argument type")
)

// Kind distinguishes named optional flags from required positionals.
type Kind int

const (
	Option Kind = iota
	Argument
)

// Type is the declared value type of a parameter. Every type is coercible
// from its CLI string representation.
type Type int

const (
	String Type = iota
	Int
	Float
	Bool
	Strings
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Strings:
		return "strings"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Spec declares one parameter of a recipe.
type Spec struct {
	Name    string
	Kind    Kind
	Type    Type
	Help    string
	Default any
}

func (s Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("parameter name is required")
	}
	if s.Kind == Argument && s.Default != nil {
		return fmt.Errorf("argument %q must not declare a default", s.Name)
	}
	if s.Default != nil {
		if _, err := s.normalize(s.Default); err != nil {
			return fmt.Errorf("default for %q: %w", s.Name, err)
		}
	}
	return nil
}

// Resolve merges the three tiers for one recipe invocation. overrides holds
// the params.json values for this recipe; kwargs holds explicit call-site
// values. Both reject keys that match no declared parameter, and every
// value is normalized against the declared type. A parameter left without
// a value fails with ErrMissingParameter before any recipe logic runs.
func Resolve(specs []Spec, overrides, kwargs map[string]any) (map[string]any, error) {
	byName := make(map[string]Spec, len(specs))
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		if _, ok := byName[spec.Name]; ok {
			return nil, fmt.Errorf("parameter %q declared twice", spec.Name)
		}
		byName[spec.Name] = spec
	}

	resolved := make(map[string]any, len(specs))
	for _, spec := range specs {
		if spec.Default != nil {
			value, err := spec.normalize(spec.Default)
			if err != nil {
				return nil, err
			}
			resolved[spec.Name] = value
		}
	}

	for _, tier := range []map[string]any{overrides, kwargs} {
		for name, value := range tier {
			spec, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("unknown parameter %q", name)
			}
			normalized, err := spec.normalize(value)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", name, err)
			}
			resolved[spec.Name] = normalized
		}
	}

	for _, spec := range specs {
		if _, ok := resolved[spec.Name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingParameter, spec.Name)
		}
	}
	return resolved, nil
}

// Coerce converts the CLI string representation of a value to the declared
// type. Failures carry ErrArgumentType and surface at parse time.
func (s Spec) Coerce(input string) (any, error) {
	switch s.Type {
	case String:
		return input, nil
	case Int:
		n, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an int", ErrArgumentType, input)
		}
		return n, nil
	case Float:
		f, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a float", ErrArgumentType, input)
		}
		return f, nil
	case Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(input))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a bool", ErrArgumentType, input)
		}
		return b, nil
	case Strings:
		if strings.TrimSpace(input) == "" {
			return []string{}, nil
		}
		parts := strings.Split(input, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %s", ErrArgumentType, s.Type)
	}
}

// normalize converts a dynamically typed value (JSON decoding yields
// float64 numbers and []any lists) to the declared type.
func (s Spec) normalize(value any) (any, error) {
	switch s.Type {
	case String:
		v, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string, got %T", ErrArgumentType, value)
		}
		return v, nil
	case Int:
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v != float64(int(v)) {
				return nil, fmt.Errorf("%w: %v is not an integer", ErrArgumentType, v)
			}
			return int(v), nil
		default:
			return nil, fmt.Errorf("%w: expected int, got %T", ErrArgumentType, value)
		}
	case Float:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		default:
			return nil, fmt.Errorf("%w: expected float, got %T", ErrArgumentType, value)
		}
	case Bool:
		v, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: expected bool, got %T", ErrArgumentType, value)
		}
		return v, nil
	case Strings:
		switch v := value.(type) {
		case []string:
			out := make([]string, len(v))
			copy(out, v)
			return out, nil
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				str, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("%w: expected string list, got %T element", ErrArgumentType, item)
				}
				out = append(out, str)
			}
			return out, nil
		default:
			return nil, fmt.Errorf("%w: expected string list, got %T", ErrArgumentType, value)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported type %s", ErrArgumentType, s.Type)
	}
}
