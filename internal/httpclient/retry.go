package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ticos-sdk/go-ticos/internal/interfaces"
)

// RetryPolicy is the external HTTP retry policy:
// {max_retries=4, base_delay_ms=4000, max_delay_ms=120000}.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy returns the SDK's default policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 4, BaseDelay: 4 * time.Second, MaxDelay: 120 * time.Second}
}

func (p RetryPolicy) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = 0 // bounded by MaxRetries, not elapsed wall time
	return backoff.WithContext(b, ctx)
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// retryAfterDelay inspects Retry-After, Retry-After-ms and
// x-ms-retry-after-ms, in that precedence order, and reports the delay
// the server asked for, if any.
func retryAfterDelay(h http.Header) (time.Duration, bool) {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second, true
		}
		if t, err := http.ParseTime(v); err == nil {
			if d := time.Until(t); d > 0 {
				return d, true
			}
			return 0, true
		}
	}
	for _, key := range []string{"Retry-After-ms", "x-ms-retry-after-ms"} {
		if v := h.Get(key); v != "" {
			if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
				return time.Duration(ms) * time.Millisecond, true
			}
		}
	}
	return 0, false
}

// Doer is satisfied by *http.Client. Swapping implementations is the
// seam left for custom transports and test fakes.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps a Doer with the retry policy, rebuilding the request via
// newRequest on every attempt since an *http.Request's body cannot be
// safely replayed once consumed.
type Client struct {
	Doer   Doer
	Policy RetryPolicy
	Logger interfaces.Logger
}

// NewClient wires an httpclient.Client over the given Doer (typically
// &http.Client{}) with the default retry policy.
func NewClient(doer Doer, logger interfaces.Logger) *Client {
	return &Client{Doer: doer, Policy: DefaultRetryPolicy(), Logger: logger}
}

// Do executes newRequest's request, retrying on transport errors or a
// retryable status code per the configured RetryPolicy, honoring any
// Retry-After-style header the server returned in preference to the
// exponential backoff schedule.
func (c *Client) Do(ctx context.Context, newRequest func() (*http.Request, error)) (*http.Response, error) {
	bo := c.Policy.newBackOff(ctx)

	var lastErr error
	for attempt := 0; ; attempt++ {
		req, err := newRequest()
		if err != nil {
			return nil, err
		}

		resp, err := c.Doer.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case !isRetryableStatus(resp.StatusCode):
			return resp, nil
		default:
			lastErr = fmt.Errorf("httpclient: retryable status %d", resp.StatusCode)
			delay, overridden := retryAfterDelay(resp.Header)
			resp.Body.Close()
			if attempt >= c.Policy.MaxRetries {
				return nil, lastErr
			}
			if !overridden {
				delay = bo.NextBackOff()
				if delay == backoff.Stop {
					return nil, lastErr
				}
			}
			if c.Logger != nil {
				c.Logger.Warnf("httpclient: retrying after %v (attempt %d/%d): %v", delay, attempt+1, c.Policy.MaxRetries, lastErr)
			}
			if !c.sleep(ctx, delay) {
				return nil, ctx.Err()
			}
			continue
		}

		if attempt >= c.Policy.MaxRetries {
			return nil, lastErr
		}
		delay := bo.NextBackOff()
		if delay == backoff.Stop {
			return nil, lastErr
		}
		if c.Logger != nil {
			c.Logger.Warnf("httpclient: retrying after %v (attempt %d/%d): %v", delay, attempt+1, c.Policy.MaxRetries, lastErr)
		}
		if !c.sleep(ctx, delay) {
			return nil, ctx.Err()
		}
	}
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// PostChunk sends a single framed message as a chunk-upload request,
// retrying per policy.
func (c *Client) PostChunk(ctx context.Context, host, deviceSerial, projectKey string, body []byte) (*http.Response, error) {
	return c.Do(ctx, func() (*http.Request, error) {
		return NewChunkPostRequest(ctx, host, deviceSerial, projectKey, body)
	})
}

// GetLatestOTAPayloadURL resolves the latest release's payload URL,
// retrying per policy.
func (c *Client) GetLatestOTAPayloadURL(ctx context.Context, host, projectKey string, info DeviceInfo) (*http.Response, error) {
	return c.Do(ctx, func() (*http.Request, error) {
		return NewOTALatestRequest(ctx, host, projectKey, info)
	})
}

// GetOTAPayload downloads a previously-resolved OTA payload URL, retrying
// per policy.
func (c *Client) GetOTAPayload(ctx context.Context, payloadURL string) (*http.Response, error) {
	return c.Do(ctx, func() (*http.Request, error) {
		return NewOTAPayloadRequest(ctx, payloadURL)
	})
}

var _ interfaces.Transport = (*chunkTransport)(nil)

// chunkTransport adapts Client to interfaces.Transport for the
// packetizer's HTTP delivery path.
type chunkTransport struct {
	client       *Client
	host         string
	deviceSerial string
	projectKey   string
}

// NewTransport returns an interfaces.Transport that POSTs every chunk via
// PostChunk, treating any non-2xx response or transport error as a
// failed send so the packetizer aborts and retransmits from offset 0.
func NewTransport(client *Client, host, deviceSerial, projectKey string) interfaces.Transport {
	return &chunkTransport{client: client, host: host, deviceSerial: deviceSerial, projectKey: projectKey}
}

func (t *chunkTransport) Send(ctx context.Context, msgType byte, chunk []byte) error {
	resp, err := t.client.PostChunk(ctx, t.host, t.deviceSerial, t.projectKey, chunk)
	if err != nil {
		return fmt.Errorf("httpclient: post chunk (type %d): %w", msgType, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("httpclient: post chunk (type %d): unexpected status %d", msgType, resp.StatusCode)
	}
	return nil
}
