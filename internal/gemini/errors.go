// internal/gemini/errors.go
package gemini

import (
	"errors"
	"fmt"
)

// ErrTransport matches every *TransportError, whatever its kind.
var ErrTransport = errors.New("gemini transport error")

type Kind int

const (
	// KindNetwork covers connection, timeout and read failures.
	KindNetwork Kind = iota
	// KindStatus is a non-2xx response.
	KindStatus
	// KindEnvelope is a 2xx response whose body is not JSON.
	KindEnvelope
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindEnvelope:
		return "envelope"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type TransportError struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gemini %s error: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }
