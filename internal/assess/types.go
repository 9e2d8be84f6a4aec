package assess

import "time"

// FieldKind is the type tag of a field. It governs which value slot a
// response uses and how the field renders and serializes.
type FieldKind string

const (
	KindIcon           FieldKind = "icon"
	KindNumber         FieldKind = "number"
	KindText           FieldKind = "text"
	KindYesNo          FieldKind = "yesno"
	KindMultipleChoice FieldKind = "multipleChoice"
	KindDate           FieldKind = "date"
)

// Numeric kind codes used by the CSV interchange format.
const (
	codeIcon           = 1
	codeNumber         = 2
	codeText           = 3
	codeYesNo          = 4
	codeMultipleChoice = 5
	codeDate           = 6
)

// KindCode returns the CSV kind code for k, or 0 if k is unknown.
func KindCode(k FieldKind) int {
	switch k {
	case KindIcon:
		return codeIcon
	case KindNumber:
		return codeNumber
	case KindText:
		return codeText
	case KindYesNo:
		return codeYesNo
	case KindMultipleChoice:
		return codeMultipleChoice
	case KindDate:
		return codeDate
	}
	return 0
}

// KindFromCode maps a CSV kind code back to a FieldKind.
func KindFromCode(code int) (FieldKind, bool) {
	switch code {
	case codeIcon:
		return KindIcon, true
	case codeNumber:
		return KindNumber, true
	case codeText:
		return KindText, true
	case codeYesNo:
		return KindYesNo, true
	case codeMultipleChoice:
		return KindMultipleChoice, true
	case codeDate:
		return KindDate, true
	}
	return "", false
}

// FieldOption belongs to exactly one multipleChoice field. Options are
// ordered for display but matched by id, never by position.
type FieldOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// FieldDefinition describes one field of a section. Identity is the ID;
// the title is mutable display text and is not a stable key.
type FieldDefinition struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Kind           FieldKind     `json:"kind"`
	IconSystemName string        `json:"iconSystemName,omitempty"`
	IconFileName   string        `json:"iconFileName,omitempty"`
	Options        []FieldOption `json:"options,omitempty"`
	DateValue      *time.Time    `json:"dateValue,omitempty"`
}

// SectionDefinition groups fields. Field order is display order and
// must survive store and CSV round trips.
type SectionDefinition struct {
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Fields []FieldDefinition `json:"fields"`
}

// Definition is the root aggregate describing a reusable assessment
// template. It owns its sections, fields and options outright.
type Definition struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	Sections []SectionDefinition `json:"sections"`
}

// FieldByID walks the section tree for the field with the given id.
func (d *Definition) FieldByID(id string) *FieldDefinition {
	for si := range d.Sections {
		for fi := range d.Sections[si].Fields {
			if d.Sections[si].Fields[fi].ID == id {
				return &d.Sections[si].Fields[fi]
			}
		}
	}
	return nil
}

// FieldValue is the value bag captured for one field. Only the slot
// matching the owning field's kind is meaningful; the rest are ignored
// by convention. ChoiceID is a legacy single-choice slot that the
// runtime never populates; keep it for old documents on disk.
type FieldValue struct {
	Text             *string         `json:"text,omitempty"`
	Number           *float64        `json:"number,omitempty"`
	YesNo            *bool           `json:"yesNo,omitempty"`
	Date             *time.Time      `json:"date,omitempty"`
	ChoiceID         *string         `json:"choiceID,omitempty"`
	ChoiceSelections map[string]bool `json:"choiceSelections,omitempty"`
}

// Response is one filled-in instance of a definition. Every save
// creates a new response document; "latest" is derived by sorting.
type Response struct {
	ID              string                `json:"id"`
	AssessmentID    string                `json:"assessmentID"`
	AssessmentTitle string                `json:"assessmentTitle"`
	CompanyID       string                `json:"companyID,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	Values          map[string]FieldValue `json:"values"`
}
