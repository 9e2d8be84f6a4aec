package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/kestrelcrm/kestrel/internal/assess"
)

const defExt = ".json"

// IOError wraps a structural read/write failure from the filesystem.
// Parse failures are not IOErrors; enumeration skips them and single
// lookups treat them as not found.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// Sanitize strips the filesystem-unsafe characters / \ ? % * | " < > :
// and replaces spaces with underscores. It doubles as the storage key
// for definitions, so it must be deterministic and idempotent.
func Sanitize(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch r {
		case '/', '\\', '?', '%', '*', '|', '"', '<', '>', ':':
			// dropped
		case ' ':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DefinitionStore keeps one JSON document per assessment template in a
// flat directory, keyed by the sanitized title. Two titles that
// sanitize to the same string collide; last write wins.
type DefinitionStore struct {
	root string
}

func NewDefinitionStore(root string) *DefinitionStore {
	return &DefinitionStore{root: root}
}

// Root returns the assessments directory this store writes to.
func (s *DefinitionStore) Root() string { return s.root }

func (s *DefinitionStore) path(title string) string {
	return filepath.Join(s.root, Sanitize(title)+defExt)
}

// Save serializes the definition and writes it atomically, replacing
// any existing file of the same sanitized name.
func (s *DefinitionStore) Save(def *assess.Definition) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return &IOError{Op: "create dir", Path: s.root, Err: err}
	}
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return &IOError{Op: "encode", Path: s.path(def.Title), Err: err}
	}
	return writeAtomic(s.path(def.Title), data)
}

// LoadAll enumerates every definition file in the root. Files that
// fail to parse are skipped so one corrupt template cannot block the
// rest from listing.
func (s *DefinitionStore) LoadAll() ([]*assess.Definition, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &IOError{Op: "list", Path: s.root, Err: err}
	}
	out := []*assess.Definition{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), defExt) {
			continue
		}
		def, err := readDefinition(filepath.Join(s.root, e.Name()))
		if err != nil {
			log.Printf("definition store: skipping %s: %v", e.Name(), err)
			continue
		}
		out = append(out, def)
	}
	return out, nil
}

// LoadByID scans definition files until one matches the id. Returns
// (nil, nil) when nothing matches. Linear by design; template counts
// stay in the tens.
func (s *DefinitionStore) LoadByID(id string) (*assess.Definition, error) {
	defs, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	for _, d := range defs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, nil
}

// LoadByTitle reads the single file named by the sanitized title.
// Missing or unparseable files both read as not found.
func (s *DefinitionStore) LoadByTitle(title string) (*assess.Definition, error) {
	def, err := readDefinition(s.path(title))
	if err != nil {
		var ioErr *IOError
		if errors.As(err, &ioErr) && !errors.Is(ioErr.Err, os.ErrNotExist) {
			return nil, err
		}
		return nil, nil
	}
	return def, nil
}

// Delete removes the definition's own file only. Response documents
// referencing it are left in place; dangling assessmentID references
// are expected and tolerated by readers.
func (s *DefinitionStore) Delete(title string) error {
	err := os.Remove(s.path(title))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return &IOError{Op: "delete", Path: s.path(title), Err: err}
	}
	return nil
}

func readDefinition(path string) (*assess.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	var def assess.Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &def, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &IOError{Op: "write", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
