package bytesutil

import (
	"bufio"
	"bytes"
	"io"
)

// ReadUntil reads from r until delim is seen. The output includes delim.
// If the stream ends before delim, it returns [io.ErrUnexpectedEOF].
func ReadUntil(r *bufio.Reader, delim []byte) ([]byte, error) {
	last := delim[len(delim)-1]

	var buf bytes.Buffer
	for {
		b, err := r.ReadBytes(last)
		buf.Write(b)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}

		if bytes.HasSuffix(buf.Bytes(), delim) {
			return buf.Bytes(), nil
		}
	}
}
