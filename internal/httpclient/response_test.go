package httpclient

import (
	"testing"
)

func TestResponseParserParsesStatusAndBody(t *testing.T) {
	p := NewResponseParser(make([]byte, 128), make([]byte, 128))
	raw := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 5\r\n\r\nhello"
	done := p.Parse([]byte(raw))
	if !done {
		t.Fatalf("expected parse to complete")
	}
	if p.ParseError != ParseErrorNone {
		t.Fatalf("parse error = %v", p.ParseError)
	}
	if p.StatusCode != 200 {
		t.Errorf("status = %d, want 200", p.StatusCode)
	}
	if p.ContentLength != 5 {
		t.Errorf("content-length = %d, want 5", p.ContentLength)
	}
	if string(p.Body()) != "hello" {
		t.Errorf("body = %q, want hello", string(p.Body()))
	}
}

func TestResponseParserContentLengthIsCaseInsensitive(t *testing.T) {
	p := NewResponseParser(make([]byte, 128), make([]byte, 128))
	raw := "HTTP/1.1 200 OK\r\nCONTENT-LENGTH: 2\r\n\r\nhi"
	if !p.Parse([]byte(raw)) {
		t.Fatalf("expected parse to complete")
	}
	if p.ContentLength != 2 {
		t.Errorf("content-length = %d, want 2", p.ContentLength)
	}
	if string(p.Body()) != "hi" {
		t.Errorf("body = %q", string(p.Body()))
	}
}

func TestResponseParserNoBodyWhenContentLengthZero(t *testing.T) {
	p := NewResponseParser(make([]byte, 128), make([]byte, 128))
	raw := "HTTP/1.1 204 No Content\r\n\r\n"
	if !p.Parse([]byte(raw)) {
		t.Fatalf("expected parse to complete")
	}
	if p.StatusCode != 204 {
		t.Errorf("status = %d, want 204", p.StatusCode)
	}
	if len(p.Body()) != 0 {
		t.Errorf("body = %q, want empty", string(p.Body()))
	}
}

func TestResponseParserHeaderOnlyStopsBeforeBody(t *testing.T) {
	p := NewResponseParser(make([]byte, 128), make([]byte, 128))
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 3\r\n\r\nabc"
	if !p.ParseHeader([]byte(raw)) {
		t.Fatalf("expected header parse to complete")
	}
	if p.ContentLength != 3 {
		t.Errorf("content-length = %d, want 3", p.ContentLength)
	}
	if len(p.Body()) != 0 {
		t.Errorf("ParseHeader should not consume the body, got %q", string(p.Body()))
	}
}

func TestResponseParserRejectsMalformedStatusLine(t *testing.T) {
	p := NewResponseParser(make([]byte, 128), make([]byte, 128))
	raw := "NOT_HTTP 200 OK\r\n\r\n"
	if !p.Parse([]byte(raw)) {
		t.Fatalf("expected parse to complete (with error)")
	}
	if p.ParseError != ParseErrorStatusLine {
		t.Errorf("parse error = %v, want ParseErrorStatusLine", p.ParseError)
	}
}

func TestResponseParserOverlongStatusLineIsAnError(t *testing.T) {
	// Only the status line hits the hard "too long" error; an overlong
	// header line is truncated and parsing continues (see prv_parse_header
	// truncation handling in the original).
	p := NewResponseParser(make([]byte, 8), make([]byte, 128))
	raw := "HTTP/1.1 200 OK\r\n\r\n"
	if !p.Parse([]byte(raw)) {
		t.Fatalf("expected parse to complete (with error)")
	}
	if p.ParseError != ParseErrorHeaderTooLong {
		t.Errorf("parse error = %v, want ParseErrorHeaderTooLong", p.ParseError)
	}
}

func TestResponseParserOverlongHeaderLineIsTruncatedNotFailed(t *testing.T) {
	p := NewResponseParser(make([]byte, 20), make([]byte, 128))
	raw := "HTTP/1.1 200 OK\r\nX-Very-Long-Header-Name: some long value\r\nContent-Length: 2\r\n\r\nhi"
	if !p.Parse([]byte(raw)) {
		t.Fatalf("expected parse to complete")
	}
	if p.ParseError != ParseErrorNone {
		t.Errorf("parse error = %v, want none (truncated header should not fail the parse)", p.ParseError)
	}
	if p.ContentLength != 2 {
		t.Errorf("content-length = %d, want 2", p.ContentLength)
	}
}

func TestResponseParserIncrementalFeedAcrossCalls(t *testing.T) {
	p := NewResponseParser(make([]byte, 128), make([]byte, 128))
	first := "HTTP/1.1 200 OK\r\nContent-Length: 4\r\n\r\n"
	if p.Parse([]byte(first)) {
		t.Fatalf("should not be done until the body arrives")
	}
	if !p.Parse([]byte("data")) {
		t.Fatalf("expected parse to complete on the second call")
	}
	if string(p.Body()) != "data" {
		t.Errorf("body = %q, want data", string(p.Body()))
	}
}
