// Package lex turns markup bytes into displayable text.
package lex

import "strings"

// Extract drops every byte between a '<' and the next '>' and returns the
// rest. It is a single-state filter, not an HTML parser: no nesting, no
// entities, no awareness of brackets inside attribute strings. Text without
// angle brackets passes through unchanged.
func Extract(body []byte) string {
	var b strings.Builder
	b.Grow(len(body))

	inMarkup := false
	for _, c := range body {
		switch c {
		case '<':
			inMarkup = true
		case '>':
			inMarkup = false
		default:
			if !inMarkup {
				b.WriteByte(c)
			}
		}
	}

	return b.String()
}
