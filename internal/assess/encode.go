package assess

import (
	"strconv"
	"strings"
	"time"
)

// headerColumns is the fixed 8-column header of the current
// interchange format. Decoding compares against it case-insensitively.
var headerColumns = [8]string{
	"RowType", "TemplateTitle", "SectionTitle", "FieldTitle",
	"KindCode", "IconSystemName", "Options", "DateISO8601",
}

const (
	rowTypeTemplate = "Template"
	rowTypeSection  = "Section"
	rowTypeField    = "Field"
)

// EncodeCSV renders a definition into the current header-based
// interchange format. Option ids are not carried; a decode of the
// produced file re-synthesizes options with fresh ids.
func EncodeCSV(def *Definition) []byte {
	var b strings.Builder
	writeRow(&b, headerColumns[:])
	writeRow(&b, []string{rowTypeTemplate, def.Title, "", "", "", "", "", ""})
	for _, sec := range def.Sections {
		writeRow(&b, []string{rowTypeSection, "", sec.Title, "", "", "", "", ""})
		for _, f := range sec.Fields {
			row := []string{rowTypeField, "", sec.Title, f.Title, strconv.Itoa(KindCode(f.Kind)), "", "", ""}
			if f.Kind == KindIcon {
				row[5] = f.IconSystemName
			}
			if f.Kind == KindMultipleChoice {
				titles := make([]string, 0, len(f.Options))
				for _, o := range f.Options {
					titles = append(titles, o.Title)
				}
				row[6] = strings.Join(titles, "|")
			}
			if f.Kind == KindDate && f.DateValue != nil {
				row[7] = f.DateValue.UTC().Format(time.RFC3339)
			}
			writeRow(&b, row)
		}
	}
	return []byte(b.String())
}

// BlankTemplateCSV returns a ready-to-edit starter file containing one
// example field of each of the six kinds.
func BlankTemplateCSV() []byte {
	def := &Definition{
		Title: "New Assessment",
		Sections: []SectionDefinition{{
			Title: "Section 1",
			Fields: []FieldDefinition{
				{Title: "Status Icon", Kind: KindIcon, IconSystemName: "checkmark.circle"},
				{Title: "Seat Count", Kind: KindNumber},
				{Title: "Notes", Kind: KindText},
				{Title: "Approved?", Kind: KindYesNo},
				{Title: "Tier", Kind: KindMultipleChoice, Options: []FieldOption{
					{Title: "Bronze"}, {Title: "Silver"}, {Title: "Gold"},
				}},
				{Title: "Review Date", Kind: KindDate},
			},
		}},
	}
	return EncodeCSV(def)
}

func writeRow(b *strings.Builder, cells []string) {
	for i, c := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quoteCell(c))
	}
	b.WriteByte('\n')
}

var cellLineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// quoteCell applies the interchange quoting rule: cells containing a
// comma or quote, cells with leading/trailing spaces, and cells
// starting with '#' are double-quote enclosed with internal quotes
// doubled. Line breaks are flattened to spaces first; the file format
// is strictly one row per physical line.
func quoteCell(c string) string {
	if c == "" {
		return c
	}
	c = cellLineBreaks.Replace(c)
	needs := strings.ContainsAny(c, ",\"") ||
		c != strings.TrimSpace(c) ||
		strings.HasPrefix(c, "#")
	if !needs {
		return c
	}
	return `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
}
