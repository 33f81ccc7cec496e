package errors

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/vango-dev/ango/internal/config"
	"github.com/vango-dev/ango/pkg/doc"
	"github.com/vango-dev/ango/pkg/render"
	"github.com/vango-dev/ango/pkg/sched"
)

// Category represents the type of error.
type Category string

const (
	CategoryRender   Category = "render"
	CategoryDocument Category = "document"
	CategoryConfig   Category = "config"
	CategoryIO       Category = "io"
)

// Location represents a position in a source file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Line == 0 {
		return l.File
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Error is a coded error with an optional location and hint.
type Error struct {
	// Code is a unique error identifier (e.g., "A001").
	Code string

	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	Location *Location

	// Context contains the source lines around Location.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a source location and reads the surrounding lines.
func (e *Error) WithLocation(file string, line, column int) *Error {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around targetLine from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	if targetLine <= 0 {
		return nil
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}
	return lines
}

// contextStart returns the line number of e.Context[0].
func (e *Error) contextStart() int {
	start := e.Location.Line - 5/2
	if start < 1 {
		start = 1
	}
	return start
}

// New creates an Error from a registered code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates an uncoded Error with a formatted message.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in an Error with code unless it already is one.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(code).Wrap(err)
}

// Classify maps an error from the library packages to its code. file names
// the document or config the error came from, if any, and is used for the
// location.
func Classify(err error, file string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}

	var (
		de *doc.Error
		re *render.RenderError
	)
	switch {
	case stderrors.Is(err, sched.ErrInfiniteUpdate):
		e = New(CodeUpdateLoop).Wrap(err)
	case stderrors.As(err, &re):
		e = New(CodeRender).Wrap(err).
			WithDetail(fmt.Sprintf("%s failed in %s while %s.", re.Component, re.Method, re.Phase))
	case stderrors.Is(err, doc.ErrUnknownComponent):
		e = New(CodeUnknownComponent).Wrap(err)
	case stderrors.Is(err, doc.ErrInvalidDocument), stderrors.Is(err, doc.ErrUnknownFormat):
		e = New(CodeInvalidDocument).Wrap(err)
	case stderrors.Is(err, config.ErrInvalid):
		e = New(CodeInvalidConfig).Wrap(err)
	case stderrors.Is(err, fs.ErrNotExist), stderrors.Is(err, fs.ErrPermission):
		e = New(CodeIO).Wrap(err)
	default:
		return &Error{Message: err.Error(), Wrapped: err}
	}

	if stderrors.As(err, &de) && file != "" {
		e.WithLocation(file, de.Line, de.Column)
	} else if file != "" && e.Category != CategoryRender {
		e.Location = &Location{File: file}
	}
	return e
}
