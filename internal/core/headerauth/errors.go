package headerauth

import "errors"

var (
	// ErrInvalidScheme is returned when the header does not carry the expected
	// scheme token, or has no scheme/parameter separator at all.
	ErrInvalidScheme = errors.New("invalid authorization scheme")

	// ErrInvalidParams is returned when the parameter blob cannot be decoded or
	// does not match the scheme's parameter schema.
	ErrInvalidParams = errors.New("invalid authorization parameters")

	// ErrUnknownScheme is returned when building or parsing against a scheme
	// that was never registered. This is a programming error, not a client fault.
	ErrUnknownScheme = errors.New("unknown authorization scheme")
)

// IsProtocolError reports whether err is a malformed-header error that should
// be surfaced to the client as a bad request.
func IsProtocolError(err error) bool {
	return errors.Is(err, ErrInvalidScheme) || errors.Is(err, ErrInvalidParams)
}
