package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kestrelcrm/kestrel/internal/assess"
)

// ResponseStore persists filled-in responses, one new file per save,
// under the Responses subdirectory of the assessments root. Filenames
// are <sanitizedTitle>_<RFC3339 UTC>.json, so lexicographic filename
// order is chronological order. There is no update or delete; history
// is append-only.
type ResponseStore struct {
	dir string
}

func NewResponseStore(assessmentsRoot string) *ResponseStore {
	return &ResponseStore{dir: filepath.Join(assessmentsRoot, "Responses")}
}

func (s *ResponseStore) filename(defTitle string, createdAt time.Time) string {
	return Sanitize(defTitle) + "_" + createdAt.UTC().Format(time.RFC3339) + defExt
}

// Save always creates a new file. Two saves within the same timestamp
// resolution collide last-write-wins; that race is accepted.
func (s *ResponseStore) Save(resp *assess.Response, def *assess.Definition) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &IOError{Op: "create dir", Path: s.dir, Err: err}
	}
	path := filepath.Join(s.dir, s.filename(def.Title, resp.CreatedAt))
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return &IOError{Op: "encode", Path: path, Err: err}
	}
	return writeAtomic(path, data)
}

// LoadLatest returns the most recent response for the definition, or
// (nil, nil) when there is none or the newest file does not parse.
func (s *ResponseStore) LoadLatest(def *assess.Definition) (*assess.Response, error) {
	names, err := s.matchingFiles(Sanitize(def.Title) + "_")
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	sort.Strings(names)
	resp, err := readResponse(filepath.Join(s.dir, names[len(names)-1]))
	if err != nil {
		var ioErr *IOError
		if errors.As(err, &ioErr) {
			return nil, err
		}
		log.Printf("response store: latest for %q unreadable: %v", def.Title, err)
		return nil, nil
	}
	return resp, nil
}

// ListByCompany scans every response file, keeps exact companyID
// matches and sorts them newest first. Corrupt files are skipped.
func (s *ResponseStore) ListByCompany(companyID string) ([]*assess.Response, error) {
	names, err := s.matchingFiles("")
	if err != nil {
		return nil, err
	}
	out := []*assess.Response{}
	for _, name := range names {
		resp, err := readResponse(filepath.Join(s.dir, name))
		if err != nil {
			log.Printf("response store: skipping %s: %v", name, err)
			continue
		}
		if resp.CompanyID == companyID {
			out = append(out, resp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *ResponseStore) matchingFiles(prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &IOError{Op: "list", Path: s.dir, Err: err}
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), defExt) {
			continue
		}
		if prefix != "" && !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func readResponse(path string) (*assess.Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	var resp assess.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &resp, nil
}
