package stamper

import (
	"errors"
	"fmt"
)

// FileError exposes the file a task failure relates to.
type FileError interface {
	error
	Unwrap() error
	File() string
}

type taskFileError struct {
	err  error
	file string
}

func newTaskFileError(err error, file string) error {
	if err == nil {
		return nil
	}
	return &taskFileError{err: err, file: file}
}

func (e *taskFileError) Error() string { return e.err.Error() }
func (e *taskFileError) Unwrap() error { return e.err }
func (e *taskFileError) File() string  { return e.file }

func (e *taskFileError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "file(%s): %+v", e.file, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractFile returns the file err was tagged with, if any.
func ExtractFile(err error) (string, bool) {
	var fe FileError
	if errors.As(err, &fe) {
		return fe.File(), true
	}
	return "", false
}

// errorAttrs returns the slog attributes describing a task error.
func errorAttrs(err error) []any {
	attrs := []any{"error", err}
	if file, ok := ExtractFile(err); ok {
		attrs = append(attrs, "file", file)
	}
	return attrs
}
