package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RunSpecification captures the intent of one recipe invocation: the recipe
// name, the fully resolved parameter values, the recipe schema version and
// the records consumed as inputs. It is immutable once a Record has been
// built around it.
type RunSpecification struct {
	Name         string         `json:"name"`
	Parameters   map[string]any `json:"parameters"`
	Version      int            `json:"version"`
	UID          string         `json:"uid"`
	Codes        []Code         `json:"codes,omitempty"`
	Dependencies Dependencies   `json:"dependencies,omitempty"`
}

// NewRunSpecification mints a specification with a fresh UID.
func NewRunSpecification(name string, parameters map[string]any, version int, codes []Code) RunSpecification {
	if parameters == nil {
		parameters = map[string]any{}
	}
	return RunSpecification{
		Name:       name,
		Parameters: parameters,
		Version:    version,
		UID:        uuid.NewString(),
		Codes:      codes,
	}
}

func (s RunSpecification) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("recipe name is required")
	}
	if strings.TrimSpace(s.UID) == "" {
		return errors.New("run uid is required")
	}
	if s.Parameters == nil {
		return errors.New("parameters must be resolved")
	}
	if s.Version < 0 {
		return fmt.Errorf("version must be >= 0, got %d", s.Version)
	}
	return s.Dependencies.Validate()
}

// Dependencies maps a dependency name to the UID of the record it resolved
// to. Every referenced record must exist when the depending record is
// created; forward references are not representable.
type Dependencies map[string]string

func (d Dependencies) Validate() error {
	for name, uid := range d {
		if strings.TrimSpace(name) == "" {
			return errors.New("dependency name must be non-empty")
		}
		if strings.TrimSpace(uid) == "" {
			return fmt.Errorf("dependency %q has no record uid", name)
		}
	}
	return nil
}

func (d Dependencies) Clone() Dependencies {
	if d == nil {
		return nil
	}
	copy := make(Dependencies, len(d))
	for k, v := range d {
		copy[k] = v
	}
	return copy
}
