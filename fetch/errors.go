package fetch

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMalformedResponse covers everything the server sent that does not
// conform to expectations: status line, headers, chunk framing, or a body
// that fails to decompress.
var ErrMalformedResponse = errors.New("malformed response")

var (
	ErrMalformedStatusLine = errors.WithMessage(ErrMalformedResponse, "status line is malformed")
	ErrMalformedFieldLine  = errors.WithMessage(ErrMalformedResponse, "field line is malformed")
)

// StatusError reports a non-200 status. This client doesn't follow
// redirects or retry, so any such status ends the request. The code and
// reason are carried for diagnostics.
type StatusError struct {
	Code   uint
	Reason string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Reason)
}
