package transfer

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ChunkedReaderTestSuite struct {
	suite.Suite
}

func TestChunkedReaderTestSuite(t *testing.T) {
	suite.Run(t, new(ChunkedReaderTestSuite))
}

func (s *ChunkedReaderTestSuite) TestReadAll() {
	input := []byte("" +
		"5\r\n" +
		"Hello\r\n" +
		"6\r\n" +
		" World\r\n" +
		"0\r\n" +
		"\r\n",
	)

	body, err := io.ReadAll(NewChunkedReader(bytes.NewReader(input)))
	s.Require().NoError(err)
	s.Equal([]byte("Hello World"), body)
}

func (s *ChunkedReaderTestSuite) TestReadPartial() {
	input := []byte("" +
		"5\r\n" +
		"ABCDE\r\n" +
		"a\r\n" +
		"FGHIJKLMNO\r\n" +
		"0\r\n" +
		"\r\n",
	)

	cr := NewChunkedReader(bytes.NewReader(input))

	buf := make([]byte, 2)
	// First read stops at the chunk boundary regardless of buffer size.
	n, err := cr.Read(buf)
	s.Require().NoError(err)
	s.Equal(len(buf), n)
	s.Equal([]byte("AB"), buf)

	buf = make([]byte, 10)
	// Second read drains the rest of the first chunk.
	n, err = cr.Read(buf)
	s.Require().NoError(err)
	s.Equal(3, n)
	s.Equal([]byte("CDE"), buf[:n])

	// Third read covers the whole second chunk.
	n, err = cr.Read(buf)
	s.Require().NoError(err)
	s.Equal(len(buf), n)
	s.Equal([]byte("FGHIJKLMNO"), buf)

	// Fourth read hits the last chunk.
	n, err = cr.Read(buf)
	s.Require().ErrorIs(err, io.EOF)
	s.Zero(n)

	// Reads after the end keep returning EOF.
	_, err = cr.Read(buf)
	s.ErrorIs(err, io.EOF)
}

func (s *ChunkedReaderTestSuite) TestExtensionsIgnored() {
	input := []byte("" +
		"5;ext=foo\r\n" +
		"ABCDE\r\n" +
		"0\r\n" +
		"\r\n",
	)

	body, err := io.ReadAll(NewChunkedReader(bytes.NewReader(input)))
	s.Require().NoError(err)
	s.Equal([]byte("ABCDE"), body)
}

func (s *ChunkedReaderTestSuite) TestTrailersDiscarded() {
	input := []byte("" +
		"3\r\n" +
		"ABC\r\n" +
		"0\r\n" +
		"Hello: World\r\n" +
		"\r\n",
	)

	body, err := io.ReadAll(NewChunkedReader(bytes.NewReader(input)))
	s.Require().NoError(err)
	s.Equal([]byte("ABC"), body)
}

func (s *ChunkedReaderTestSuite) TestMalformed() {
	testcases := []struct {
		desc  string
		input string
	}{
		{
			desc:  "size is not hex",
			input: "xyz\r\nABC\r\n0\r\n\r\n",
		},
		{
			desc:  "empty size line",
			input: "\r\nABC\r\n0\r\n\r\n",
		},
		{
			desc:  "missing CRLF after chunk data",
			input: "3\r\nABCDE\r\n0\r\n\r\n",
		},
		{
			desc:  "size too large for 64 bits",
			input: "FFFFFFFFFFFFFFFFFF\r\nABC\r\n",
		},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			_, err := io.ReadAll(NewChunkedReader(bytes.NewReader([]byte(tc.input))))
			s.ErrorIs(err, ErrMalformedChunk)
		})
	}
}

func (s *ChunkedReaderTestSuite) TestTruncated() {
	testcases := []struct {
		desc  string
		input string
	}{
		{
			desc:  "stream ends inside chunk data",
			input: "a\r\nABC",
		},
		{
			desc:  "stream ends before last chunk",
			input: "3\r\nABC\r\n",
		},
		{
			desc:  "stream ends inside trailers",
			input: "3\r\nABC\r\n0\r\n",
		},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			_, err := io.ReadAll(NewChunkedReader(bytes.NewReader([]byte(tc.input))))
			s.Error(err)
		})
	}
}

func TestWriteChunk(t *testing.T) {
	buf := bytes.NewBuffer(nil)

	require.NoError(t, WriteChunk(buf, []byte("123456789ABCDEF")))
	assert.Equal(t, []byte("f\r\n123456789ABCDEF\r\n"), buf.Bytes())

	// Framed output roundtrips through the reader.
	buf.WriteString("0\r\n\r\n")
	body, err := io.ReadAll(NewChunkedReader(buf))
	require.NoError(t, err)
	assert.Equal(t, []byte("123456789ABCDEF"), body)
}

func TestDecodeChunkSize(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected uint64
		wantErr  bool
	}{
		{
			desc:     "plain hex",
			input:    "ff\r\n",
			expected: 0xFF,
		},
		{
			desc:     "uppercase hex with trailing whitespace",
			input:    "1A \r\n",
			expected: 0x1A,
		},
		{
			desc:     "extension after size",
			input:    "5;name=value\r\n",
			expected: 5,
		},
		{
			desc:    "invalid hex",
			input:   "haha this aint hex\r\n",
			wantErr: true,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			cr := NewChunkedReader(bytes.NewReader([]byte(tc.input)))

			size, err := cr.decodeChunkSize()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMalformedChunk)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.expected, size)
		})
	}
}
