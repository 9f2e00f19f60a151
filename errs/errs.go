// Package errs declares the typed error surface the metadata core reports to callers.
package errs

import "errors"

// Sentinel error kinds. Wrap with fmt.Errorf("...: %w", ErrX) to attach context;
// callers use errors.Is against these values.
var (
	ErrEndOfStream            = errors.New("clrmeta: end of stream")
	ErrMalformedCompressedInt = errors.New("clrmeta: malformed compressed integer")
	ErrMalformedSignature     = errors.New("clrmeta: malformed signature")
	ErrUnresolvableToken      = errors.New("clrmeta: unresolvable token")
	ErrInvalidHeapReference   = errors.New("clrmeta: invalid heap reference")
	ErrBadImageFormat         = errors.New("clrmeta: bad image format")
	ErrNotImplemented         = errors.New("clrmeta: not implemented")
)
