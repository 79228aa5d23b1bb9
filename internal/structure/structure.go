// Package structure models the starting-structure sentinel file exchanged
// between recipes and the simulation engine. Only the fields the recipes
// need are modeled; rich format support stays with the external atomic
// structure libraries.
package structure

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Structure is one atomic configuration: a periodic cell, atom positions
// and optional initial magnetic moments.
type Structure struct {
	Symbols   []string      `json:"symbols"`
	Positions [][3]float64  `json:"positions"`
	Cell      [3][3]float64 `json:"cell"`
	Magmoms   []float64     `json:"magmoms,omitempty"`
}

func (s Structure) Validate() error {
	if len(s.Symbols) == 0 {
		return errors.New("structure has no atoms")
	}
	if len(s.Positions) != len(s.Symbols) {
		return fmt.Errorf("got %d positions for %d atoms", len(s.Positions), len(s.Symbols))
	}
	if len(s.Magmoms) != 0 && len(s.Magmoms) != len(s.Symbols) {
		return fmt.Errorf("got %d magmoms for %d atoms", len(s.Magmoms), len(s.Symbols))
	}
	for i, symbol := range s.Symbols {
		if strings.TrimSpace(symbol) == "" {
			return fmt.Errorf("atom %d has no symbol", i)
		}
	}
	return nil
}

// Formula returns the reduced chemical formula, species in alphabetical
// order (Ag2S, MoS2, Si2).
func (s Structure) Formula() string {
	counts := map[string]int{}
	for _, symbol := range s.Symbols {
		counts[symbol]++
	}
	species := make([]string, 0, len(counts))
	for symbol := range counts {
		species = append(species, symbol)
	}
	sort.Strings(species)

	var b strings.Builder
	for _, symbol := range species {
		b.WriteString(symbol)
		if n := counts[symbol]; n > 1 {
			fmt.Fprintf(&b, "%d", n)
		}
	}
	return b.String()
}

// WithMagmoms returns a copy with the given initial magnetic moments.
func (s Structure) WithMagmoms(magmoms []float64) Structure {
	out := s.clone()
	out.Magmoms = append([]float64(nil), magmoms...)
	return out
}

func (s Structure) clone() Structure {
	out := Structure{
		Symbols:   append([]string(nil), s.Symbols...),
		Positions: append([][3]float64(nil), s.Positions...),
		Cell:      s.Cell,
	}
	if s.Magmoms != nil {
		out.Magmoms = append([]float64(nil), s.Magmoms...)
	}
	return out
}

func Read(path string) (Structure, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Structure{}, fmt.Errorf("read structure: %w", err)
	}
	var s Structure
	if err := json.Unmarshal(raw, &s); err != nil {
		return Structure{}, fmt.Errorf("decode structure %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Structure{}, fmt.Errorf("invalid structure %s: %w", path, err)
	}
	return s, nil
}

func Write(path string, s Structure) error {
	if err := s.Validate(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0o644)
}
