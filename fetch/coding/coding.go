// Package coding applies content codings negotiated via Content-Encoding.
package coding

import (
	"compress/flate"
	"compress/gzip"
	"io"
	"strings"

	"github.com/pkg/errors"
)

type Coding string

const (
	Identity Coding = "identity"
	Gzip     Coding = "gzip"
	Deflate  Coding = "deflate"
	Compress Coding = "compress"
	Brotli   Coding = "br"
)

// Supported lists the codings Decode can actually reverse,
// in the form advertised in Accept-Encoding.
func Supported() []Coding {
	return []Coding{Gzip, Deflate}
}

var (
	ErrUnsupportedCoding = errors.New("unsupported content coding")

	// ErrUnrecognizedCoding: the coding name means nothing to us.
	ErrUnrecognizedCoding = errors.WithMessage(ErrUnsupportedCoding, "unrecognized coding name")

	// ErrUnimplementedCoding: a valid coding we know of but cannot decode.
	ErrUnimplementedCoding = errors.WithMessage(ErrUnsupportedCoding, "coding not implemented")

	ErrCorrupt = errors.New("corrupt coded body")
)

// ParseCoding maps a Content-Encoding value to its tag, case-insensitively.
func ParseCoding(s string) (Coding, error) {
	switch c := Coding(strings.ToLower(s)); c {
	case Identity, Gzip, Deflate, Compress, Brotli:
		return c, nil
	}
	return "", errors.WithMessagef(ErrUnrecognizedCoding, "%q", s)
}

// Decode reads all of r and reverses c.
// Compress and Brotli are recognized names but fail with
// [ErrUnimplementedCoding]; nothing is ever partially decoded.
func Decode(c Coding, r io.Reader) ([]byte, error) {
	switch c {
	case Identity:
		return readAll(r)
	case Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.WithMessagef(ErrCorrupt, "gzip header: %v", err)
		}
		return readAll(gr)
	case Deflate:
		// Raw DEFLATE stream, no zlib wrapper.
		return readAll(flate.NewReader(r))
	case Compress, Brotli:
		return nil, errors.WithMessagef(ErrUnimplementedCoding, "%q", c)
	}

	return nil, errors.WithMessagef(ErrUnrecognizedCoding, "%q", c)
}

func readAll(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithMessagef(ErrCorrupt, "reading body: %v", err)
	}
	return b, nil
}
