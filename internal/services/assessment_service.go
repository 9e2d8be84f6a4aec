package services

import (
	"strings"

	"github.com/google/uuid"

	"github.com/kestrelcrm/kestrel/internal/assess"
)

// DefinitionStore abstracts the file-backed template storage used by
// AssessmentService.
type DefinitionStore interface {
	Save(def *assess.Definition) error
	LoadAll() ([]*assess.Definition, error)
	LoadByID(id string) (*assess.Definition, error)
	Delete(title string) error
}

// AssessmentService is the hub for assessment templates: authoring
// saves, listing, deletion and the CSV interchange paths.
type AssessmentService struct {
	store DefinitionStore
	idGen func() string
}

func NewAssessmentService(store DefinitionStore) *AssessmentService {
	return &AssessmentService{store: store, idGen: uuid.NewString}
}

// SaveDefinition validates and persists a template, assigning ids to
// any sections, fields or options that lack them. Saving under a title
// whose sanitized form already exists overwrites that file.
func (s *AssessmentService) SaveDefinition(def *assess.Definition) (*assess.Definition, error) {
	if def == nil {
		return nil, NewInvalidError("definition required")
	}
	if strings.TrimSpace(def.Title) == "" {
		return nil, NewInvalidError("title required")
	}
	if def.ID == "" {
		def.ID = s.idGen()
	}
	for si := range def.Sections {
		sec := &def.Sections[si]
		if sec.ID == "" {
			sec.ID = s.idGen()
		}
		for fi := range sec.Fields {
			f := &sec.Fields[fi]
			if f.ID == "" {
				f.ID = s.idGen()
			}
			if assess.KindCode(f.Kind) == 0 {
				return nil, NewInvalidError("unknown field kind " + string(f.Kind))
			}
			for oi := range f.Options {
				if f.Options[oi].ID == "" {
					f.Options[oi].ID = s.idGen()
				}
			}
		}
	}
	if err := s.store.Save(def); err != nil {
		return nil, err
	}
	return def, nil
}

func (s *AssessmentService) ListDefinitions() ([]*assess.Definition, error) {
	return s.store.LoadAll()
}

func (s *AssessmentService) GetDefinition(id string) (*assess.Definition, error) {
	def, err := s.store.LoadByID(id)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, NewNotFoundError("assessment not found")
	}
	return def, nil
}

// DeleteDefinition removes the template's file. Stored responses that
// reference it stay behind; readers tolerate the dangling id.
func (s *AssessmentService) DeleteDefinition(id string) error {
	def, err := s.store.LoadByID(id)
	if err != nil {
		return err
	}
	if def == nil {
		return NewNotFoundError("assessment not found")
	}
	return s.store.Delete(def.Title)
}

// ExportCSV renders a template in the header-based interchange format.
func (s *AssessmentService) ExportCSV(id string) ([]byte, error) {
	def, err := s.GetDefinition(id)
	if err != nil {
		return nil, err
	}
	return assess.EncodeCSV(def), nil
}

// ImportCSV decodes either interchange format and persists the result.
// A structural error in the file rejects the whole import.
func (s *AssessmentService) ImportCSV(data []byte) (*assess.Definition, error) {
	def, err := assess.DecodeCSV(data)
	if err != nil {
		return nil, NewInvalidError(err.Error())
	}
	if err := s.store.Save(def); err != nil {
		return nil, err
	}
	return def, nil
}

// BlankCSV returns the starter template file for hand editing.
func (s *AssessmentService) BlankCSV() []byte {
	return assess.BlankTemplateCSV()
}
