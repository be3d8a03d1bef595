package fetch

import (
	"bufio"
	"bytes"
	"io"

	"browser-net/util/rule"

	"github.com/pkg/errors"
)

// Request is what this client can send: a bodyless GET for a path.
type Request struct {
	Target  string
	Version Version

	Headers []Field
}

// RequestEncoder writes the request line and headers onto a stream,
// CRLF-terminated, ending with the blank line.
type RequestEncoder struct {
	bw *bufio.Writer
}

func NewRequestEncoder(w io.Writer) *RequestEncoder {
	return &RequestEncoder{bw: bufio.NewWriter(w)}
}

func (re *RequestEncoder) Encode(request Request) error {
	if err := re.encodeRequestLine(request); err != nil {
		return errors.Wrap(err, "encoding request line")
	}

	for _, field := range request.Headers {
		if err := re.writeLine(field.Text()); err != nil {
			return errors.Wrap(err, "writing field")
		}
	}

	// An empty line terminates the header block.
	if err := re.writeLine(nil); err != nil {
		return errors.Wrap(err, "writing terminator")
	}

	if err := re.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing request")
	}

	return nil
}

func (re *RequestEncoder) encodeRequestLine(request Request) error {
	buf := bytes.NewBuffer(nil)

	buf.WriteString("GET")
	buf.WriteByte(rule.SP)
	buf.WriteString(request.Target)
	buf.WriteByte(rule.SP)
	buf.Write(request.Version.Text())

	return re.writeLine(buf.Bytes())
}

func (re *RequestEncoder) writeLine(line []byte) error {
	if _, err := re.bw.Write(line); err != nil {
		return errors.Wrap(err, "writing line")
	}

	if _, err := re.bw.Write(rule.CRLF); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}
