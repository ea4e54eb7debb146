package extract

import (
	"errors"
	"fmt"
)

// ErrUnparsable is returned when a question names no known table.
var ErrUnparsable = errors.New("extract: unparsable question")

// UnparsableQuestionError reports a question the rules cannot read.
type UnparsableQuestionError struct {
	Question string
	Reason   string
}

// Error returns the error string.
func (e *UnparsableQuestionError) Error() string {
	return fmt.Sprintf("extract: cannot parse %q: %s", e.Question, e.Reason)
}

// Is reports whether the target error matches UnparsableQuestionError.
func (e *UnparsableQuestionError) Is(err error) bool {
	return err == ErrUnparsable
}

// IsUnparsable returns true if the error is an UnparsableQuestionError.
func IsUnparsable(err error) bool {
	return errors.Is(err, ErrUnparsable)
}
