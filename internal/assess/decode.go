package assess

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultSectionTitle = "Section 1"

// DecodeCSV parses a definition from either supported interchange
// format. The current header-based format is detected by its first
// significant row; anything else falls back to the legacy positional
// token format. Decoding is all-or-nothing: the first structural error
// aborts the import.
func DecodeCSV(data []byte) (*Definition, error) {
	lines := significantLines(data)
	if len(lines) == 0 {
		return nil, ErrMissingHeader
	}
	first := lines[0]
	if strings.EqualFold(strings.TrimSpace(first.cells[0]), headerColumns[0]) {
		cells := trimTrailingEmpty(first.cells)
		for i := 0; i < len(headerColumns); i++ {
			got := ""
			if i < len(cells) {
				got = strings.TrimSpace(cells[i])
			}
			if !strings.EqualFold(got, headerColumns[i]) {
				return nil, &HeaderMismatchError{Column: i + 1, Got: got}
			}
		}
		if len(cells) > len(headerColumns) {
			return nil, &HeaderMismatchError{Column: len(headerColumns) + 1, Got: cells[len(headerColumns)]}
		}
		return decodeHeaderRows(lines[1:])
	}
	return decodeLegacy(lines)
}

// decodeHeaderRows handles the current format. Every Field row names
// its owning section; when that name differs from the currently open
// section, the open one is closed and a new section started, so
// interleaved field rows still group correctly.
func decodeHeaderRows(lines []csvLine) (*Definition, error) {
	def := &Definition{ID: uuid.NewString()}
	var open *SectionDefinition
	closeSection := func() {
		if open != nil {
			def.Sections = append(def.Sections, *open)
			open = nil
		}
	}
	for _, ln := range lines {
		cells := padCells(ln.cells, len(headerColumns))
		token := strings.TrimSpace(cells[0])
		switch {
		case strings.EqualFold(token, rowTypeTemplate):
			if cells[1] == "" {
				return nil, ErrMissingTemplateTitle
			}
			def.Title = cells[1]
		case strings.EqualFold(token, rowTypeSection):
			if cells[2] == "" {
				return nil, ErrMissingSectionTitle
			}
			closeSection()
			open = &SectionDefinition{ID: uuid.NewString(), Title: cells[2]}
		case strings.EqualFold(token, rowTypeField):
			secTitle := cells[2]
			if open == nil || (secTitle != "" && secTitle != open.Title) {
				closeSection()
				if secTitle == "" {
					secTitle = defaultSectionTitle
				}
				open = &SectionDefinition{ID: uuid.NewString(), Title: secTitle}
			}
			f, err := parseField(ln.num, cells[3], cells[4], cells[5], cells[6], cells[7])
			if err != nil {
				return nil, err
			}
			open.Fields = append(open.Fields, f)
		default:
			return nil, &UnexpectedRowTypeError{Line: ln.num, Token: token}
		}
	}
	closeSection()
	if def.Title == "" {
		return nil, ErrMissingTemplateTitle
	}
	return def, nil
}

// decodeLegacy handles the old positional token format:
//
//	TemplateTitle,<title>
//	Section,<title>
//	Field,<title>,<kind code>[,<icon>[,<options>[,<date>]]]
//
// A Field row before any Section row opens an implicit "Section 1".
func decodeLegacy(lines []csvLine) (*Definition, error) {
	def := &Definition{ID: uuid.NewString()}
	var open *SectionDefinition
	closeSection := func() {
		if open != nil {
			def.Sections = append(def.Sections, *open)
			open = nil
		}
	}
	for _, ln := range lines {
		arg := func(i int) string {
			if i < len(ln.cells) {
				return ln.cells[i]
			}
			return ""
		}
		switch legacyToken(arg(0)) {
		case "templatetitle":
			if arg(1) == "" {
				return nil, ErrMissingTemplateTitle
			}
			def.Title = arg(1)
		case "section":
			if arg(1) == "" {
				return nil, ErrMissingSectionTitle
			}
			closeSection()
			open = &SectionDefinition{ID: uuid.NewString(), Title: arg(1)}
		case "field":
			if open == nil {
				open = &SectionDefinition{ID: uuid.NewString(), Title: defaultSectionTitle}
			}
			f, err := parseField(ln.num, arg(1), arg(2), arg(3), arg(4), arg(5))
			if err != nil {
				return nil, err
			}
			open.Fields = append(open.Fields, f)
		default:
			return nil, &UnexpectedRowTypeError{Line: ln.num, Token: strings.TrimSpace(arg(0))}
		}
	}
	closeSection()
	if def.Title == "" {
		return nil, ErrMissingTemplateTitle
	}
	return def, nil
}

// parseField builds a FieldDefinition from the positional row values
// shared by both formats. Option ids are freshly generated; the
// interchange format never carries them.
func parseField(line int, title, code, icon, options, date string) (FieldDefinition, error) {
	if strings.TrimSpace(title) == "" {
		return FieldDefinition{}, ErrMissingFieldTitle
	}
	codeStr := strings.TrimSpace(code)
	n, err := strconv.Atoi(codeStr)
	if err != nil {
		return FieldDefinition{}, &InvalidKindCodeError{Line: line, Code: codeStr}
	}
	kind, ok := KindFromCode(n)
	if !ok {
		return FieldDefinition{}, &InvalidKindCodeError{Line: line, Code: codeStr}
	}
	f := FieldDefinition{ID: uuid.NewString(), Title: title, Kind: kind}
	if icon != "" {
		f.IconSystemName = icon
	}
	if options != "" {
		for _, t := range strings.Split(options, "|") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			f.Options = append(f.Options, FieldOption{ID: uuid.NewString(), Title: t})
		}
	}
	if date != "" {
		if ts, perr := parseISODate(date); perr == nil {
			f.DateValue = &ts
		}
	}
	return f, nil
}

func parseISODate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", s)
}

// legacyToken normalizes a legacy row token: spaces, tabs and
// non-breaking spaces are dropped and the result is lowercased.
func legacyToken(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\u00A0' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

type csvLine struct {
	num   int // 1-based physical line number
	cells []string
}

// significantLines splits the input into parsed rows, stripping an
// optional UTF-8 BOM and skipping blank lines and '#' comments. Both
// \n and \r\n line endings are accepted.
func significantLines(data []byte) []csvLine {
	text := strings.TrimPrefix(string(data), "\uFEFF")
	var out []csvLine
	for i, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSuffix(raw, "\r")
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		out = append(out, csvLine{num: i + 1, cells: parseCells(raw)})
	}
	return out
}

// parseCells splits one physical line into cells. Double-quoted cells
// keep their spacing and may contain commas and doubled quotes;
// unquoted cells are trimmed.
func parseCells(s string) []string {
	var cells []string
	var cur strings.Builder
	quoted := false
	inQuotes := false
	finish := func() {
		c := cur.String()
		if !quoted {
			c = strings.TrimSpace(c)
		}
		cells = append(cells, c)
		cur.Reset()
		quoted = false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inQuotes {
			if ch == '"' {
				if i+1 < len(s) && s[i+1] == '"' {
					cur.WriteByte('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			cur.WriteByte(ch)
			continue
		}
		switch ch {
		case '"':
			if !quoted && strings.TrimSpace(cur.String()) == "" {
				cur.Reset()
				quoted = true
				inQuotes = true
			} else {
				cur.WriteByte(ch)
			}
		case ',':
			finish()
		default:
			cur.WriteByte(ch)
		}
	}
	finish()
	return cells
}

func padCells(cells []string, n int) []string {
	for len(cells) < n {
		cells = append(cells, "")
	}
	return cells
}

func trimTrailingEmpty(cells []string) []string {
	end := len(cells)
	for end > 0 && strings.TrimSpace(cells[end-1]) == "" {
		end--
	}
	return cells[:end]
}
