package services

import (
	"github.com/kestrelcrm/kestrel/internal/assess"
)

// ResponseStore abstracts the append-only response persistence.
type ResponseStore interface {
	Save(resp *assess.Response, def *assess.Definition) error
	LoadLatest(def *assess.Definition) (*assess.Response, error)
	ListByCompany(companyID string) ([]*assess.Response, error)
}

// ResponseService runs the fill-in workflow: seed a form from the
// latest response, apply the submitted values and persist a new
// response document. Saves never update in place.
type ResponseService struct {
	defs      DefinitionStore
	responses ResponseStore
}

func NewResponseService(defs DefinitionStore, responses ResponseStore) *ResponseService {
	return &ResponseService{defs: defs, responses: responses}
}

// Submit captures one filled-in form for a definition. companyID is an
// opaque reference and is not validated against the company directory.
func (s *ResponseService) Submit(definitionID, companyID string, values map[string]assess.FieldValue) (*assess.Response, error) {
	def, err := s.defs.LoadByID(definitionID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, NewNotFoundError("assessment not found")
	}
	prev, err := s.responses.LoadLatest(def)
	if err != nil {
		return nil, err
	}
	form := assess.NewForm(def, prev)
	form.Apply(values)
	resp := form.Collect(companyID)
	if err := s.responses.Save(resp, def); err != nil {
		return nil, err
	}
	return resp, nil
}

// Latest returns the newest response for a definition, or nil when
// none has been captured yet.
func (s *ResponseService) Latest(definitionID string) (*assess.Response, error) {
	def, err := s.defs.LoadByID(definitionID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, NewNotFoundError("assessment not found")
	}
	return s.responses.LoadLatest(def)
}

// ForCompany lists every response tied to a company, newest first.
func (s *ResponseService) ForCompany(companyID string) ([]*assess.Response, error) {
	if companyID == "" {
		return nil, NewInvalidError("company id required")
	}
	return s.responses.ListByCompany(companyID)
}

// RenderedField is one line of the display-text feed consumed by the
// document renderers.
type RenderedField struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	Value   string `json:"value"`
}

// Summary renders the latest response into per-field display text
// using the fixed per-kind rules. Icon fields never render as text and
// are left out of the feed.
func (s *ResponseService) Summary(definitionID string) ([]RenderedField, error) {
	def, err := s.defs.LoadByID(definitionID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, NewNotFoundError("assessment not found")
	}
	resp, err := s.responses.LoadLatest(def)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, NewNotFoundError("no responses captured yet")
	}
	out := []RenderedField{}
	for _, sec := range def.Sections {
		for i := range sec.Fields {
			f := &sec.Fields[i]
			if f.Kind == assess.KindIcon {
				continue
			}
			out = append(out, RenderedField{
				Section: sec.Title,
				Field:   f.Title,
				Value:   assess.DisplayText(f, resp.Values[f.ID]),
			})
		}
	}
	return out, nil
}
