// Package transfer strips transfer codings off a response body stream.
// Only chunked is implemented; it is the only one this client advertises.
package transfer

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	bytesutil "browser-net/util/bytes"
	"browser-net/util/rule"

	"github.com/pkg/errors"
)

type Coding string

const CodingChunked Coding = "chunked"

var (
	ErrUnsupportedCoding = errors.New("transfer coding is unsupported")
	ErrMalformedChunk    = errors.New("chunk framing is malformed")
)

// ChunkedReader turns a chunked message body into a contiguous byte stream.
// It returns io.EOF after the zero-size chunk, once any trailer fields and
// the final empty line have been consumed and discarded.
type ChunkedReader struct {
	br *bufio.Reader

	remain   uint64 // payload bytes left in the current chunk
	inChunk  bool
	done     bool
	crlfDump [2]byte
}

var _ io.Reader = (*ChunkedReader)(nil)

func NewChunkedReader(r io.Reader) *ChunkedReader {
	return &ChunkedReader{br: bufio.NewReader(r)}
}

func (cr *ChunkedReader) Read(p []byte) (int, error) {
	if cr.done {
		return 0, io.EOF
	}

	if !cr.inChunk {
		size, err := cr.decodeChunkSize()
		if err != nil {
			return 0, errors.Wrap(err, "decoding chunk size")
		}

		if size == 0 {
			// Last chunk. Trailers follow, which we don't surface.
			if err := cr.discardTrailers(); err != nil {
				return 0, errors.Wrap(err, "discarding trailers")
			}
			cr.done = true
			return 0, io.EOF
		}

		cr.remain = size
		cr.inChunk = true
	}

	if uint64(len(p)) > cr.remain {
		p = p[:cr.remain]
	}

	n, err := cr.br.Read(p)
	cr.remain -= uint64(n)

	if err != nil {
		if err == io.EOF {
			err = errors.WithMessage(ErrMalformedChunk, "stream ended inside chunk")
		}
		return n, err
	}

	if cr.remain == 0 {
		if err := cr.dropChunkCRLF(); err != nil {
			return n, err
		}
		cr.inChunk = false
	}

	return n, nil
}

// decodeChunkSize reads the size line. Chunk extensions after ';' are
// tolerated and ignored. A size that doesn't parse as hex is an error, not
// an implicit zero: silently truncating the body would hide real corruption.
func (cr *ChunkedReader) decodeChunkSize() (uint64, error) {
	line, err := readLine(cr.br)
	if err != nil {
		return 0, err
	}

	sizeRaw, _, _ := bytes.Cut(line, []byte{';'})
	sizeRaw = bytes.TrimFunc(sizeRaw, func(r rune) bool { return rule.IsOWS(byte(r)) })

	size, err := strconv.ParseUint(string(sizeRaw), 16, 64)
	if err != nil {
		return 0, errors.WithMessagef(ErrMalformedChunk, "size %q is not hex", string(sizeRaw))
	}

	return size, nil
}

// dropChunkCRLF consumes the mandatory CRLF that terminates chunk data.
func (cr *ChunkedReader) dropChunkCRLF() error {
	if _, err := io.ReadFull(cr.br, cr.crlfDump[:]); err != nil {
		return errors.WithMessage(ErrMalformedChunk, "chunk delimiter missing")
	}
	if !bytes.Equal(cr.crlfDump[:], rule.CRLF) {
		return errors.WithMessagef(ErrMalformedChunk, "chunk delimiter is %q, not CRLF", cr.crlfDump)
	}
	return nil
}

func (cr *ChunkedReader) discardTrailers() error {
	for {
		line, err := readLine(cr.br)
		if err != nil {
			return err
		}
		if len(line) == 0 {
			return nil
		}
	}
}

// WriteChunk frames p as a single chunk: hex size line, payload, CRLF.
// The zero-size terminator is the caller's business.
func WriteChunk(w io.Writer, p []byte) error {
	size := strconv.FormatUint(uint64(len(p)), 16)

	if _, err := w.Write(append([]byte(size), rule.CRLF...)); err != nil {
		return errors.Wrap(err, "writing chunk size")
	}
	if _, err := w.Write(p); err != nil {
		return errors.Wrap(err, "writing chunk data")
	}
	if _, err := w.Write(rule.CRLF); err != nil {
		return errors.Wrap(err, "writing chunk delimiter")
	}

	return nil
}

// readLine reads until CRLF and cuts it.
func readLine(br *bufio.Reader) ([]byte, error) {
	line, err := bytesutil.ReadUntil(br, rule.CRLF)
	if err != nil {
		return nil, err
	}
	return line[:len(line)-2], nil
}
