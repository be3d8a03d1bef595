// Package weburl parses the small URL subset the fetch pipeline understands:
// http, https and inline data URLs.
package weburl

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
	SchemeData  Scheme = "data"
)

// DefaultPort returns the well-known port for scheme, or 0 if it has none.
func DefaultPort(scheme Scheme) uint16 {
	switch scheme {
	case SchemeHTTP:
		return 80
	case SchemeHTTPS:
		return 443
	}
	return 0
}

// DataPayload is the inline payload of a data URL.
// Its body is carried literally. No percent or base64 decoding is done.
type DataPayload struct {
	ContentType string
	Body        []byte
}

// URL is an immutable parse result. For http/https, Host, Port and Path are
// set and Data is nil. For data URLs only Data is set.
type URL struct {
	Scheme Scheme

	Host string
	Port uint16
	Path string

	Data *DataPayload
}

var ErrMalformedURL = errors.New("malformed URL")

// UnknownSchemeError reports a scheme this client cannot handle at all.
// It is deliberately not ErrMalformedURL: the URL may be fine, we just
// don't speak its protocol.
type UnknownSchemeError struct {
	Scheme string
}

func (e UnknownSchemeError) Error() string {
	return "unknown scheme: " + strconv.Quote(e.Scheme)
}

// Parse splits raw into its components.
//
// The scheme separator is the first colon. Input without a colon is treated
// as an https URL, so bare "host/path" strings work.
func Parse(raw string) (URL, error) {
	scheme, rest, found := strings.Cut(raw, ":")
	if !found {
		scheme, rest = string(SchemeHTTPS), raw
	}

	switch Scheme(scheme) {
	case SchemeData:
		return parseData(rest)
	case SchemeHTTP, SchemeHTTPS:
		return parseNetwork(Scheme(scheme), rest)
	}

	return URL{}, UnknownSchemeError{Scheme: scheme}
}

func parseData(rest string) (URL, error) {
	contentType, body, found := strings.Cut(rest, ",")
	if !found {
		return URL{}, errors.WithMessage(ErrMalformedURL, "data URL has no comma")
	}

	return URL{
		Scheme: SchemeData,
		Data:   &DataPayload{ContentType: contentType, Body: []byte(body)},
	}, nil
}

func parseNetwork(scheme Scheme, rest string) (URL, error) {
	rest = strings.TrimPrefix(rest, "//")

	hostport, path, found := strings.Cut(rest, "/")
	if !found {
		return URL{}, errors.WithMessage(ErrMalformedURL, "path separator not found")
	}
	path = "/" + path

	host := hostport
	port := DefaultPort(scheme)

	if h, p, found := strings.Cut(hostport, ":"); found {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return URL{}, errors.WithMessagef(ErrMalformedURL, "port %q is not a valid number", p)
		}
		host, port = h, uint16(n)
	}

	// The host is later used as a TLS server name, which only allows
	// printable ASCII. Reject bad hosts before any connection is made.
	if err := assertValidHost(host); err != nil {
		return URL{}, errors.WithMessage(ErrMalformedURL, err.Error())
	}

	return URL{Scheme: scheme, Host: host, Port: port, Path: path}, nil
}

func assertValidHost(host string) error {
	if host == "" {
		return errors.New("host is empty")
	}

	for i := 0; i < len(host); i++ {
		c := host[i]
		if c <= 0x20 || c >= 0x7F {
			return errors.Errorf("host contains non-ASCII or control byte at %d", i)
		}
	}

	return nil
}
