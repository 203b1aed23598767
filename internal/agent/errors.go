package agent

import "fmt"

// IoSinkError reports a failed write or flush of live output. The exchange
// it happened in is abandoned.
type IoSinkError struct {
	Err error
}

func (e *IoSinkError) Error() string { return fmt.Sprintf("output sink: %v", e.Err) }

func (e *IoSinkError) Unwrap() error { return e.Err }
