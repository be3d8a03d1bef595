package fetch

import "strings"

// Headers maps lower-cased header names to trimmed values. Names are unique;
// when a response repeats a name, the last occurrence wins. Insertion order
// is not kept.
type Headers struct{ underlying map[string]string }

func NewHeaders() Headers {
	return Headers{underlying: make(map[string]string)}
}

// HeadersFrom builds semantic headers from raw fields.
func HeadersFrom(fields []Field) Headers {
	h := Headers{underlying: make(map[string]string, len(fields))}
	for _, field := range fields {
		h.Set(string(field.Name), string(field.Value))
	}
	return h
}

func (h Headers) Get(key string) (value string, ok bool) {
	value, ok = h.underlying[canonical(key)]
	return
}

func (h Headers) Set(key, value string) {
	h.underlying[canonical(key)] = value
}

func (h Headers) Del(key string) {
	delete(h.underlying, canonical(key))
}

func (h Headers) Len() int { return len(h.underlying) }

// Fields returns a copy of all key-values in the header.
func (h Headers) Fields() map[string]string {
	clone := make(map[string]string, len(h.underlying))
	for k, v := range h.underlying {
		clone[k] = v
	}
	return clone
}

func canonical(s string) string { return strings.ToLower(s) }
