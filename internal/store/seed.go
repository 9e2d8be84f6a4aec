package store

import (
	"os"

	"github.com/kestrelcrm/kestrel/internal/assess"
)

// EnsureSeed writes the bundled starter definition on first run. An
// existing file of the same sanitized name is never overwritten.
func EnsureSeed(s *DefinitionStore, def *assess.Definition) error {
	if _, err := os.Stat(s.path(def.Title)); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return &IOError{Op: "stat", Path: s.path(def.Title), Err: err}
	}
	return s.Save(def)
}
