package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Overrides holds the contents of a folder's params.json: recipe name ->
// parameter name -> value.
type Overrides map[string]map[string]any

// LoadOverrides reads a params.json file. A missing file is not an error
// and yields empty overrides.
func LoadOverrides(path string) (Overrides, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Overrides{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var overrides Overrides
	if err := json.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if overrides == nil {
		overrides = Overrides{}
	}
	return overrides, nil
}

// For returns the overrides for one recipe, never nil.
func (o Overrides) For(recipe string) map[string]any {
	values, ok := o[recipe]
	if !ok {
		return map[string]any{}
	}
	return values
}

// Equal compares two resolved parameter sets through their canonical JSON
// encoding, so values that only differ in dynamic numeric type compare
// equal after a disk round trip.
func Equal(a, b map[string]any) bool {
	rawA, errA := json.Marshal(a)
	rawB, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(rawA) == string(rawB)
}
