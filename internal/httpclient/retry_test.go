package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"
)

type fakeDoer struct {
	responses []*http.Response
	calls     int
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

func makeResp(status int, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{StatusCode: status, Header: header, Body: io.NopCloser(bytes.NewReader(nil))}
}

func newTestRequest() (*http.Request, error) {
	return http.NewRequest(http.MethodGet, "https://example.com/x", nil)
}

func TestClientDoReturnsImmediatelyOnSuccess(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{makeResp(200, nil)}}
	c := &Client{Doer: doer, Policy: RetryPolicy{MaxRetries: 4, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}}

	resp, err := c.Do(context.Background(), newTestRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if doer.calls != 1 {
		t.Errorf("calls = %d, want 1", doer.calls)
	}
}

func TestClientDoRetriesOnRetryableStatus(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{
		makeResp(503, nil),
		makeResp(503, nil),
		makeResp(200, nil),
	}}
	c := &Client{Doer: doer, Policy: RetryPolicy{MaxRetries: 4, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}}

	resp, err := c.Do(context.Background(), newTestRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if doer.calls != 3 {
		t.Errorf("calls = %d, want 3", doer.calls)
	}
}

func TestClientDoGivesUpAfterMaxRetries(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{
		makeResp(500, nil), makeResp(500, nil), makeResp(500, nil),
	}}
	c := &Client{Doer: doer, Policy: RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}}

	_, err := c.Do(context.Background(), newTestRequest)
	if err == nil {
		t.Fatalf("expected an error after exhausting retries")
	}
	if doer.calls != 3 {
		t.Errorf("calls = %d, want 3 (1 initial + 2 retries)", doer.calls)
	}
}

func TestClientDoHonorsRetryAfterSeconds(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "0")
	doer := &fakeDoer{responses: []*http.Response{makeResp(429, h), makeResp(200, nil)}}
	c := &Client{Doer: doer, Policy: RetryPolicy{MaxRetries: 4, BaseDelay: time.Second, MaxDelay: time.Minute}}

	start := time.Now()
	resp, err := c.Do(context.Background(), newTestRequest)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("elapsed = %v, Retry-After: 0 should have short-circuited the default backoff", elapsed)
	}
}

func TestClientDoCancelsOnContext(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{makeResp(503, nil), makeResp(503, nil)}}
	c := &Client{Doer: doer, Policy: RetryPolicy{MaxRetries: 4, BaseDelay: time.Second, MaxDelay: time.Minute}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Do(ctx, newTestRequest)
	if err == nil {
		t.Fatalf("expected context cancellation error")
	}
}

func TestIsRetryableStatus(t *testing.T) {
	retryable := []int{408, 429, 500, 502, 503, 504}
	for _, code := range retryable {
		if !isRetryableStatus(code) {
			t.Errorf("status %d should be retryable", code)
		}
	}
	nonRetryable := []int{200, 201, 400, 401, 403, 404}
	for _, code := range nonRetryable {
		if isRetryableStatus(code) {
			t.Errorf("status %d should not be retryable", code)
		}
	}
}
