// Package rule holds wire-format constants shared by the HTTP framing code.
package rule

const (
	CR   byte = '\r'
	LF   byte = '\n'
	SP   byte = ' '
	HTAB byte = '\t'
)

var (
	CRLF = []byte{CR, LF}

	// Optional whitespace around field values.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.3
	OWS = []byte{SP, HTAB}
)

func IsOWS(c byte) bool {
	for _, ws := range OWS {
		if c == ws {
			return true
		}
	}
	return false
}
