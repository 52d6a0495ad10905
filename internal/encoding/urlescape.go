// Package encoding provides the wire-format helpers the HTTP client and
// export sinks need: base64/hex come straight from the standard library
// (only RFC4648 base64 and uppercase hex are needed, and no third-party
// library is a better fit for either), but URL-escaping is a deliberate
// port rather than net/url.QueryEscape because the round-trip contract is
// pinned to the original firmware's exact unreserved-character set.
//
// Grounded on
// _examples/original_source/observability/ticos-firmware-sdk/components/http/src/ticos_http_utils.c
// (prv_is_unreserved, ticos_http_needs_escape, ticos_http_urlencode).
package encoding

import "strings"

func isUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	default:
		return false
	}
}

// NeedsEscape reports whether s contains any character outside the
// unreserved set and therefore requires URL-escaping.
func NeedsEscape(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isUnreserved(s[i]) {
			return true
		}
	}
	return false
}

const hexDigits = "0123456789ABCDEF"

// URLEscape percent-encodes every byte outside the unreserved set
// (alphanumerics, '-', '_', '.', '~'), matching RFC 3986's unreserved
// class exactly as the original firmware's query-parameter encoder does.
func URLEscape(s string) string {
	if !NeedsEscape(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0F])
	}
	return b.String()
}
