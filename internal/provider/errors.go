package provider

import (
	"errors"
	"fmt"
)

// ErrUnavailable classifies timeouts and transport failures talking to the
// provider. Callers treat it as "no data this attempt", never as terminal.
var ErrUnavailable = errors.New("provider unavailable")

// DomainError carries opaque provider error text verbatim so nothing is
// silently lost.
type DomainError struct {
	Raw string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("provider error: %s", e.Raw)
}
