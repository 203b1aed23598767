package llm

import "fmt"

// TransportError is returned when a request could not be completed or a
// stream could not be established.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("llm transport: %v", e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// StreamFragmentError is returned by FragmentStream.Recv when an established
// stream fails part way through.
type StreamFragmentError struct {
	Err error
}

func (e *StreamFragmentError) Error() string { return fmt.Sprintf("llm stream: %v", e.Err) }

func (e *StreamFragmentError) Unwrap() error { return e.Err }
