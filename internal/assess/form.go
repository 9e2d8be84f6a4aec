package assess

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const emDash = "—"

// Form holds the editable values for one definition while a user fills
// it in. Values are keyed by field id, the only legitimate key into a
// response's value map.
type Form struct {
	def    *Definition
	values map[string]FieldValue
	now    func() time.Time
}

// NewForm seeds one editable value per field: from prev when it has an
// entry for the field, otherwise the kind-appropriate zero value
// (empty string, 0, false, the current date, an empty selection map).
func NewForm(def *Definition, prev *Response) *Form {
	f := &Form{
		def:    def,
		values: make(map[string]FieldValue),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, sec := range def.Sections {
		for _, fd := range sec.Fields {
			if prev != nil {
				if v, ok := prev.Values[fd.ID]; ok {
					f.values[fd.ID] = cloneValue(v)
					continue
				}
			}
			f.values[fd.ID] = f.zeroValue(fd.Kind)
		}
	}
	return f
}

func (f *Form) zeroValue(kind FieldKind) FieldValue {
	switch kind {
	case KindText:
		s := ""
		return FieldValue{Text: &s}
	case KindNumber:
		n := 0.0
		return FieldValue{Number: &n}
	case KindYesNo:
		b := false
		return FieldValue{YesNo: &b}
	case KindDate:
		d := f.now()
		return FieldValue{Date: &d}
	case KindMultipleChoice:
		return FieldValue{ChoiceSelections: map[string]bool{}}
	}
	return FieldValue{}
}

func (f *Form) SetText(fieldID, s string) {
	v := f.values[fieldID]
	v.Text = &s
	f.values[fieldID] = v
}

func (f *Form) SetNumber(fieldID string, n float64) {
	v := f.values[fieldID]
	v.Number = &n
	f.values[fieldID] = v
}

func (f *Form) SetYesNo(fieldID string, b bool) {
	v := f.values[fieldID]
	v.YesNo = &b
	f.values[fieldID] = v
}

func (f *Form) SetDate(fieldID string, d time.Time) {
	v := f.values[fieldID]
	v.Date = &d
	f.values[fieldID] = v
}

func (f *Form) SetChoice(fieldID, optionID string, selected bool) {
	v := f.values[fieldID]
	if v.ChoiceSelections == nil {
		v.ChoiceSelections = map[string]bool{}
	}
	v.ChoiceSelections[optionID] = selected
	f.values[fieldID] = v
}

// Apply copies submitted values into the form, taking from each entry
// only the slot matching the field's kind. Values for unknown field
// ids are dropped.
func (f *Form) Apply(values map[string]FieldValue) {
	for id, v := range values {
		fd := f.def.FieldByID(id)
		if fd == nil {
			continue
		}
		switch fd.Kind {
		case KindText:
			if v.Text != nil {
				f.SetText(id, *v.Text)
			}
		case KindNumber:
			if v.Number != nil {
				f.SetNumber(id, *v.Number)
			}
		case KindYesNo:
			if v.YesNo != nil {
				f.SetYesNo(id, *v.YesNo)
			}
		case KindDate:
			if v.Date != nil {
				f.SetDate(id, *v.Date)
			}
		case KindMultipleChoice:
			for optID, sel := range v.ChoiceSelections {
				f.SetChoice(id, optID, sel)
			}
		}
	}
}

// Collect builds a new response document. Exactly one value is emitted
// per field, even untouched ones, populating only the slot for that
// field's kind.
func (f *Form) Collect(companyID string) *Response {
	resp := &Response{
		ID:              uuid.NewString(),
		AssessmentID:    f.def.ID,
		AssessmentTitle: f.def.Title,
		CompanyID:       companyID,
		CreatedAt:       f.now(),
		Values:          make(map[string]FieldValue),
	}
	for _, sec := range f.def.Sections {
		for _, fd := range sec.Fields {
			v := f.values[fd.ID]
			out := FieldValue{}
			switch fd.Kind {
			case KindText:
				out.Text = v.Text
			case KindNumber:
				out.Number = v.Number
			case KindYesNo:
				out.YesNo = v.YesNo
			case KindDate:
				out.Date = v.Date
			case KindMultipleChoice:
				sel := v.ChoiceSelections
				if sel == nil {
					sel = map[string]bool{}
				}
				out.ChoiceSelections = sel
			}
			resp.Values[fd.ID] = out
		}
	}
	return resp
}

// Value returns the current editable value for a field id.
func (f *Form) Value(fieldID string) (FieldValue, bool) {
	v, ok := f.values[fieldID]
	return v, ok
}

// DisplayText renders a captured value for the export paths (PDF, RTF,
// CSV summaries). Selections referencing option ids no longer in the
// definition are ignored.
func DisplayText(field *FieldDefinition, v FieldValue) string {
	switch field.Kind {
	case KindIcon:
		return ""
	case KindText:
		if v.Text == nil {
			return emDash
		}
		s := strings.TrimSpace(*v.Text)
		if s == "" {
			return emDash
		}
		return s
	case KindNumber:
		if v.Number == nil {
			return emDash
		}
		return strconv.FormatFloat(*v.Number, 'f', -1, 64)
	case KindYesNo:
		if v.YesNo != nil && *v.YesNo {
			return "Yes"
		}
		return "No"
	case KindDate:
		if v.Date == nil {
			return emDash
		}
		return v.Date.Format("Jan 2, 2006")
	case KindMultipleChoice:
		var titles []string
		for _, opt := range field.Options {
			if v.ChoiceSelections[opt.ID] {
				titles = append(titles, opt.Title)
			}
		}
		if len(titles) == 0 {
			return emDash
		}
		return strings.Join(titles, ", ")
	}
	return emDash
}

func cloneValue(v FieldValue) FieldValue {
	out := v
	if v.ChoiceSelections != nil {
		out.ChoiceSelections = make(map[string]bool, len(v.ChoiceSelections))
		for k, b := range v.ChoiceSelections {
			out.ChoiceSelections[k] = b
		}
	}
	return out
}
