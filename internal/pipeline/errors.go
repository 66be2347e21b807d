package pipeline

import "errors"

// ErrEmptyRange is returned by Visualize when the store has no rows for the
// requested ticker and date range.
var ErrEmptyRange = errors.New("no stored data in range")
