package database

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Project is one aggregated database: rows plus the presentation metadata
// the browser needs. It is the unit written to disk and published to the
// object store.
type Project struct {
	Name            string            `yaml:"name" json:"name"`
	Title           string            `yaml:"title" json:"title"`
	UIDKey          string            `yaml:"uid_key" json:"uid_key"`
	DefaultColumns  []string          `yaml:"default_columns" json:"default_columns"`
	KeyDescriptions map[string]string `yaml:"key_descriptions" json:"key_descriptions"`
	Rows            []Row             `yaml:"rows" json:"rows"`
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("project name is required")
	}
	if strings.TrimSpace(p.UIDKey) == "" {
		return errors.New("project uid key is required")
	}
	seen := make(map[string]struct{}, len(p.Rows))
	for _, row := range p.Rows {
		if row.UID == "" {
			return fmt.Errorf("row for folder %q has no uid", row.Folder)
		}
		if _, ok := seen[row.UID]; ok {
			return fmt.Errorf("duplicate row uid %q", row.UID)
		}
		seen[row.UID] = struct{}{}
	}
	return nil
}

// FromScan builds a project around scanned rows with the standard
// presentation defaults.
func FromScan(name, title string, rows []Row) Project {
	if title == "" {
		title = name
	}
	return Project{
		Name:           name,
		Title:          title,
		UIDKey:         "uid",
		DefaultColumns: []string{"formula", "natoms", "etot", "gap", "magstate"},
		KeyDescriptions: map[string]string{
			"formula":  "Reduced chemical formula",
			"natoms":   "Number of atoms in the cell",
			"etot":     "Total energy [eV]",
			"gap":      "Band gap [eV]",
			"magmom":   "Total magnetic moment [μB]",
			"magstate": "Magnetic state (nm, fm)",
		},
		Rows: rows,
	}
}

// FromFile reads a project written by WriteFile.
func FromFile(path string) (Project, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Project{}, err
	}
	var p Project
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Project{}, fmt.Errorf("parse project %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Project{}, fmt.Errorf("project %s: %w", path, err)
	}
	return p, nil
}

func (p Project) WriteFile(path string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	raw, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// Get returns the row with the given uid.
func (p Project) Get(uid string) (Row, bool) {
	for _, row := range p.Rows {
		if row.UID == uid {
			return row, true
		}
	}
	return Row{}, false
}

// Query filters rows with expressions of the form key=value, key<value or
// key>value, comma separated. String values compare with =; numeric
// values support all three operators.
func (p Project) Query(query string) ([]Row, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]Row, len(p.Rows))
		copy(out, p.Rows)
		return out, nil
	}

	var filters []filter
	for _, part := range strings.Split(query, ",") {
		f, err := parseFilter(part)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}

	var out []Row
	for _, row := range p.Rows {
		match := true
		for _, f := range filters {
			if !f.matches(row) {
				match = false
				break
			}
		}
		if match {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

type filter struct {
	key   string
	op    byte
	value string
}

func parseFilter(raw string) (filter, error) {
	raw = strings.TrimSpace(raw)
	for _, op := range []byte{'=', '<', '>'} {
		if i := strings.IndexByte(raw, op); i > 0 {
			return filter{
				key:   strings.TrimSpace(raw[:i]),
				op:    op,
				value: strings.TrimSpace(raw[i+1:]),
			}, nil
		}
	}
	return filter{}, fmt.Errorf("invalid filter %q: expected key=value, key<value or key>value", raw)
}

func (f filter) matches(row Row) bool {
	value, ok := row.KeyValues[f.key]
	if !ok {
		return false
	}

	if number, ok := toFloat(value); ok {
		want, err := strconv.ParseFloat(f.value, 64)
		if err != nil {
			return false
		}
		switch f.op {
		case '=':
			return number == want
		case '<':
			return number < want
		case '>':
			return number > want
		}
		return false
	}

	if f.op != '=' {
		return false
	}
	return fmt.Sprintf("%v", value) == f.value
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
