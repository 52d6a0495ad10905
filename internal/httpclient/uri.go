// Package httpclient builds the chunk-upload and OTA-fetch HTTP/1.1
// requests, parses the corresponding responses, and wraps both in a
// retry policy. The socket/TLS layer itself is out of scope (this is not
// an HTTP client implementation or TLS stack) so request dispatch is
// expressed against the stdlib net/http.Client via the Doer interface
// rather than a hand-rolled transport.
//
// Grounded on
// _examples/original_source/observability/ticos-firmware-sdk/components/http/src/ticos_http_utils.c.
package httpclient

import "strings"

// URIScheme mirrors eTicosUriScheme.
type URIScheme int

const (
	URISchemeUnrecognized URIScheme = iota
	URISchemeHTTP
	URISchemeHTTPS
)

func (s URIScheme) String() string {
	switch s {
	case URISchemeHTTPS:
		return "https"
	case URISchemeHTTP:
		return "http"
	default:
		return "unrecognized"
	}
}

// URIInfo is the result of parsing a URI into scheme/host/path/port,
// mirroring sTicosUriInfo.
type URIInfo struct {
	Scheme URIScheme
	Host   string
	Path   string // empty when the URI carries no path component
	Port   uint32
}

func schemeAndDefaultPort(uri string) (URIScheme, int, string) {
	switch {
	case strings.HasPrefix(strings.ToLower(uri), "https://"):
		return URISchemeHTTPS, 443, uri[len("https://"):]
	case strings.HasPrefix(strings.ToLower(uri), "http://"):
		return URISchemeHTTP, 80, uri[len("http://"):]
	default:
		return URISchemeUnrecognized, 0, ""
	}
}

// ParseURI splits uri into scheme, host, optional path, and port, porting
// ticos_http_parse_uri's authority-parsing logic: strip the scheme, drop
// any userinfo before an '@', handle a bracketed IPv6 literal host, and
// take the last ':' after that point as the port separator.
func ParseURI(uri string) (URIInfo, bool) {
	scheme, port, rest := schemeAndDefaultPort(uri)
	if scheme == URISchemeUnrecognized {
		return URIInfo{}, false
	}

	authority := rest
	path := ""
	if idx := strings.IndexByte(authority, '/'); idx >= 0 {
		path = authority[idx:]
		authority = authority[:idx]
	}

	if idx := strings.IndexByte(authority, '@'); idx >= 0 {
		if idx+1 == len(authority) {
			return URIInfo{}, false
		}
		authority = authority[idx+1:]
	}

	portSearchFrom := 0
	if len(authority) > 0 && authority[0] == '[' {
		end := strings.LastIndexByte(authority, ']')
		if end < 0 {
			return URIInfo{}, false
		}
		portSearchFrom = end
	}

	host := authority
	if idx := strings.LastIndexByte(authority, ':'); idx >= 0 && idx >= portSearchFrom {
		portStr := authority[idx+1:]
		p, ok := parseDecimal(portStr)
		if !ok {
			return URIInfo{}, false
		}
		port = p
		host = authority[:idx]
	}

	if host == "" {
		return URIInfo{}, false
	}

	return URIInfo{Scheme: scheme, Host: host, Path: path, Port: uint32(port)}, true
}

func parseDecimal(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
