// Package fetch implements a one-shot HTTP/1.x GET pipeline over a raw byte
// stream: request framing, response parsing, dechunking and decompression.
// One call, one connection, no reuse.
package fetch

import (
	"bytes"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"

	"browser-net/fetch/coding"
	"browser-net/fetch/transfer"
	"browser-net/transport"
	"browser-net/weburl"

	"github.com/pkg/errors"
)

type Options struct {
	// UserAgent is sent with every request. Empty selects the default.
	UserAgent string

	// Version of the request line. Zero value selects HTTP/1.1.
	Version Version

	Decode DecodeOptions
}

func defaultUserAgent() string {
	return "Mozilla/5.0 (" + runtime.GOOS + ")"
}

// Client performs single GET-style requests. Each call allocates fully
// independent state, so a Client is safe for use from multiple goroutines
// in the trivial sense: nothing is shared, nothing is pooled.
type Client struct {
	dialer transport.Dialer
	logger *slog.Logger
	opts   Options
}

func New(dialer transport.Dialer, logger *slog.Logger, opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent()
	}
	if opts.Version == (Version{}) {
		opts.Version = Version11
	}

	return &Client{dialer: dialer, logger: logger, opts: opts}
}

// Fetch resolves url to decoded headers and body bytes.
//
// data URLs are answered inline without touching the network. For http and
// https the connection is closed unconditionally on every exit path.
func (c *Client) Fetch(url string) (Headers, []byte, error) {
	u, err := weburl.Parse(url)
	if err != nil {
		return Headers{}, nil, errors.Wrap(err, "parsing URL")
	}

	if u.Scheme == weburl.SchemeData {
		headers := NewHeaders()
		headers.Set("content-type", u.Data.ContentType)
		return headers, u.Data.Body, nil
	}

	stream, err := c.dialer.Dial(u.Host, u.Port, u.Scheme == weburl.SchemeHTTPS)
	if err != nil {
		return Headers{}, nil, errors.Wrap(err, "establishing stream")
	}
	defer stream.Close()

	if err := c.writeRequest(stream, u); err != nil {
		return Headers{}, nil, err
	}

	res, err := c.readResponse(stream)
	if err != nil {
		return Headers{}, nil, err
	}

	body, err := c.decodeBody(res)
	if err != nil {
		return Headers{}, nil, err
	}

	c.logger.Debug("fetched",
		"url", url, "status", res.StatusCode, "body_len", len(body))

	return res.Headers, body, nil
}

func (c *Client) writeRequest(stream transport.Stream, u weburl.URL) error {
	request := Request{
		Target:  u.Path,
		Version: c.opts.Version,
		Headers: []Field{
			{Name: []byte("Host"), Value: []byte(u.Host)},
			{Name: []byte("Connection"), Value: []byte("close")},
			{Name: []byte("User-Agent"), Value: []byte(c.opts.UserAgent)},
			{Name: []byte("Accept-Encoding"), Value: []byte(acceptEncoding())},
		},
	}

	if err := NewRequestEncoder(stream).Encode(request); err != nil {
		// A failed write means the connection is gone.
		return errors.WithMessagef(transport.ErrConnection, "writing request: %v", err)
	}

	return nil
}

func acceptEncoding() string {
	supported := coding.Supported()
	names := make([]string, len(supported))
	for i, c := range supported {
		names[i] = string(c)
	}
	return strings.Join(names, ",")
}

func (c *Client) readResponse(stream transport.Stream) (*Response, error) {
	var res Response
	if err := NewResponseDecoder(stream, c.opts.Decode).Decode(&res); err != nil {
		return nil, errors.Wrap(err, "decoding response")
	}

	if res.StatusCode != 200 {
		return nil, StatusError{Code: res.StatusCode, Reason: res.ReasonPhrase}
	}

	return &res, nil
}

// decodeBody strips transfer coding, then content coding.
func (c *Client) decodeBody(res *Response) ([]byte, error) {
	body := res.Body

	if te, ok := res.Headers.Get("transfer-encoding"); ok {
		if !strings.EqualFold(te, string(transfer.CodingChunked)) {
			return nil, errors.WithMessagef(transfer.ErrUnsupportedCoding, "%q", te)
		}

		unchunked, err := io.ReadAll(transfer.NewChunkedReader(body))
		if err != nil {
			return nil, errors.WithMessagef(ErrMalformedResponse, "dechunking: %v", err)
		}
		body = bytes.NewReader(unchunked)
	} else if cl, ok := res.Headers.Get("content-length"); ok {
		n, err := strconv.ParseUint(cl, 10, 63)
		if err != nil {
			return nil, errors.WithMessagef(ErrMalformedResponse, "content-length %q", cl)
		}
		body = io.LimitReader(body, int64(n))
	}

	contentCoding := coding.Identity
	if ce, ok := res.Headers.Get("content-encoding"); ok {
		parsed, err := coding.ParseCoding(ce)
		if err != nil {
			return nil, errors.Wrap(err, "parsing content coding")
		}
		contentCoding = parsed
	}

	decoded, err := coding.Decode(contentCoding, body)
	if err != nil {
		if errors.Is(err, coding.ErrCorrupt) {
			return nil, errors.WithMessagef(ErrMalformedResponse, "decoding body: %v", err)
		}
		return nil, errors.Wrap(err, "decoding body")
	}

	return decoded, nil
}
