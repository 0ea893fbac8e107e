package ports

import "errors"

// ErrMalformedCompletion reports that a completion does not contain a
// parsable action. Parser implementations wrap it so callers can test with
// errors.Is.
var ErrMalformedCompletion = errors.New("completion does not contain a parsable action")

// ActionParser extracts the (thought, action) pair from a raw completion.
type ActionParser interface {
	// ParseAction returns the free-form reasoning text and the concrete
	// action to execute. It fails with ErrMalformedCompletion when the
	// completion has no recognizable action.
	ParseAction(completion Completion) (thought string, action string, err error)
}

// ActionParserFunc adapts a plain function to the ActionParser interface.
type ActionParserFunc func(completion Completion) (string, string, error)

func (f ActionParserFunc) ParseAction(completion Completion) (string, string, error) {
	return f(completion)
}
