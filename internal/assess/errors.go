package assess

import (
	"errors"
	"fmt"
)

// CSV decode errors. Decoding is strict: any of these aborts the whole
// import with no partial result, unlike the stores' skip-on-corrupt
// enumeration policy.
var (
	ErrMissingTemplateTitle = errors.New("template row has no title")
	ErrMissingSectionTitle  = errors.New("section row has no title")
	ErrMissingFieldTitle    = errors.New("field row has no title")
	ErrMissingHeader        = errors.New("csv contains no header or data rows")
)

// HeaderMismatchError reports a header-shaped first row whose column
// names do not match the expected interchange header.
type HeaderMismatchError struct {
	Column int    // 1-based column position
	Got    string // the name found there
}

func (e *HeaderMismatchError) Error() string {
	if e.Column >= 1 && e.Column <= len(headerColumns) {
		return fmt.Sprintf("csv header column %d is %q, want %q", e.Column, e.Got, headerColumns[e.Column-1])
	}
	return fmt.Sprintf("csv header has unexpected extra column %d (%q)", e.Column, e.Got)
}

// InvalidKindCodeError reports a field row whose kind code is not an
// integer in the recognized range.
type InvalidKindCodeError struct {
	Line int
	Code string
}

func (e *InvalidKindCodeError) Error() string {
	return fmt.Sprintf("line %d: invalid field kind code %q", e.Line, e.Code)
}

// UnexpectedRowTypeError reports a row whose type token is not one of
// Template, Section or Field. Line is 1-based.
type UnexpectedRowTypeError struct {
	Line  int
	Token string
}

func (e *UnexpectedRowTypeError) Error() string {
	return fmt.Sprintf("line %d: unexpected row type %q", e.Line, e.Token)
}
