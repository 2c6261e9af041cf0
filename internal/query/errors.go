package query

import "errors"

// ErrDisabled is returned when a query's guard condition is not met.
// It is not an error state: no request is made and nothing is recorded.
var ErrDisabled = errors.New("query disabled")

// FetchError is the error state of a query whose fetch function failed
type FetchError struct {
	Message string // user facing, may be empty
	Err     error
}

func (e *FetchError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "fetch failed"
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Message returns the user facing message for err, or fallback
func Message(err error, fallback string) string {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return fallback
}
