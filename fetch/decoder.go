package fetch

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	bytesutil "browser-net/util/bytes"
	"browser-net/util/rule"

	"github.com/pkg/errors"
)

type DecodeOptions struct {
	// AllowSoleLF specifies whether a single LF character should be
	// recognized as a valid line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	AllowSoleLF bool

	// MaxLineLength bounds status and field lines. Zero means unbounded.
	MaxLineLength uint
}

var DefaultDecodeOptions = DecodeOptions{
	AllowSoleLF:   false,
	MaxLineLength: 0,
}

var errLineTooLong = errors.New("line length exceeds limit")

// ResponseDecoder reads the status line and header block off a stream and
// leaves the reader positioned at the first body byte.
type ResponseDecoder struct {
	br   *bufio.Reader
	opts DecodeOptions
}

func NewResponseDecoder(r io.Reader, opts DecodeOptions) *ResponseDecoder {
	return &ResponseDecoder{br: bufio.NewReader(r), opts: opts}
}

// r MUST be a non-nil pointer.
func (rd *ResponseDecoder) Decode(r *Response) error {
	if err := rd.decodeStatusLine(&r.statusLine); err != nil {
		return errors.Wrap(err, "parsing status line")
	}

	if err := rd.decodeHeaders(&r.Headers); err != nil {
		return errors.Wrap(err, "parsing headers")
	}

	r.Body = rd.br

	return nil
}

func (rd *ResponseDecoder) readLine() ([]byte, error) {
	b, err := bytesutil.ReadUntil(rd.br, []byte{rule.LF})
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errors.WithMessage(ErrMalformedResponse, "stream ended mid-line")
		}
		return nil, err
	}

	if rd.opts.MaxLineLength > 0 && uint(len(b)) > rd.opts.MaxLineLength {
		return nil, errLineTooLong
	}

	b = b[:len(b)-1] // Remove LF.

	if !rd.opts.AllowSoleLF {
		if len(b) == 0 || b[len(b)-1] != rule.CR {
			return nil, errors.WithMessage(ErrMalformedResponse, "missing CR before LF")
		}
		b = b[:len(b)-1] // Remove CR.
	} else {
		b = bytes.TrimSuffix(b, []byte{rule.CR})
	}

	return b, nil
}

func (rd *ResponseDecoder) decodeStatusLine(statLine *statusLine) error {
	line, err := rd.readLine()
	if err != nil {
		return err
	}

	parsed, err := parseStatusLine(line)
	if err != nil {
		return errors.WithMessage(ErrMalformedStatusLine, err.Error())
	}

	*statLine = parsed

	return nil
}

func parseStatusLine(line []byte) (statusLine, error) {
	parts := bytes.SplitN(line, []byte{rule.SP}, 3)
	if len(parts) < 2 {
		return statusLine{}, errors.New("less than two tokens")
	}

	ver, err := ParseVersion(parts[0])
	if err != nil {
		return statusLine{}, errors.Wrap(err, "parsing version")
	}

	statusCodeStr := string(parts[1])
	statusCode, err := strconv.ParseUint(statusCodeStr, 10, 64)
	if err != nil || len(statusCodeStr) != 3 {
		return statusLine{}, errors.Errorf("status code is malformed: %q", statusCodeStr)
	}

	// reason-phrase is optional.
	var reasonPhrase string
	if len(parts) == 3 {
		reasonPhrase = string(parts[2])
	}

	return statusLine{Version: ver, StatusCode: uint(statusCode), ReasonPhrase: reasonPhrase}, nil
}

func (rd *ResponseDecoder) decodeHeaders(headers *Headers) error {
	fields := make([]Field, 0)
	for {
		fieldLine, err := rd.readLine()
		if err != nil {
			return errors.Wrap(err, "reading line")
		}

		if len(fieldLine) == 0 {
			// The blank terminator. No more headers.
			break
		}

		field, err := ParseField(fieldLine)
		if err != nil {
			return errors.WithMessage(ErrMalformedFieldLine, err.Error())
		}

		fields = append(fields, field)
	}

	*headers = HeadersFrom(fields)

	return nil
}
