package postgres

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks errors caused by the database being unreachable or
// refusing the connection. Callers match it with errors.Is.
var ErrUnavailable = errors.New("store unavailable")

// DataRejectedError reports a batch the server refused for reasons other
// than the expected (ticker, date) conflict, such as a value outside the
// column's declared precision. The wrapped error carries the server detail.
type DataRejectedError struct {
	Ticker string
	Count  int
	Err    error
}

func (e *DataRejectedError) Error() string {
	return fmt.Sprintf("store rejected %d rows for %s: %v", e.Count, e.Ticker, e.Err)
}

func (e *DataRejectedError) Unwrap() error { return e.Err }
