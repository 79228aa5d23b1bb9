// Package folder implements the material-folder contract: one directory
// per atomic structure, holding sentinel files that recipes read from and
// write to. Every recipe takes an explicit Folder; nothing consults the
// process working directory.
package folder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rmr-labs/rmr-go/internal/params"
	"github.com/rmr-labs/rmr-go/internal/structure"
)

// Sentinel filenames of the folder convention.
const (
	StructureFile = "structure.json"
	UnrelaxedFile = "unrelaxed.json"
	ParamsFile    = "params.json"
)

// MetaDir holds record revisions and other bookkeeping inside a folder.
const MetaDir = ".rmr"

var ErrNoStructure = errors.New("no starting structure in folder")

// Folder is an explicit handle on one material folder.
type Folder struct {
	path string
}

// Open returns a handle on an existing directory.
func Open(path string) (*Folder, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open folder: %s is not a directory", abs)
	}
	return &Folder{path: abs}, nil
}

func (f *Folder) Path() string {
	return f.path
}

func (f *Folder) Join(name string) string {
	return filepath.Join(f.path, name)
}

// ReadStructure reads the starting structure sentinel. Property recipes
// require it; a missing file is ErrNoStructure.
func (f *Folder) ReadStructure() (structure.Structure, error) {
	s, err := structure.Read(f.Join(StructureFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return structure.Structure{}, fmt.Errorf("%w: %s", ErrNoStructure, f.path)
		}
		return structure.Structure{}, err
	}
	return s, nil
}

// ReadUnrelaxed reads the relax input sentinel, falling back to the
// starting structure when no unrelaxed.json exists.
func (f *Folder) ReadUnrelaxed() (structure.Structure, error) {
	s, err := structure.Read(f.Join(UnrelaxedFile))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return structure.Structure{}, err
	}
	return f.ReadStructure()
}

// Overrides loads the folder's params.json; a missing file yields empty
// overrides.
func (f *Folder) Overrides() (params.Overrides, error) {
	return params.LoadOverrides(f.Join(ParamsFile))
}

// CreateSubfolder creates a child material folder seeded with its own
// starting structure. Structure recipes use this to spawn new materials.
func (f *Folder) CreateSubfolder(name string, s structure.Structure) (*Folder, error) {
	if name == "" || name != filepath.Base(name) {
		return nil, fmt.Errorf("invalid subfolder name %q", name)
	}
	path := f.Join(name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create subfolder: %w", err)
	}
	if err := structure.Write(filepath.Join(path, StructureFile), s); err != nil {
		return nil, err
	}
	return &Folder{path: path}, nil
}
