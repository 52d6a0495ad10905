package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ticos-sdk/go-ticos/internal/encoding"
)

const (
	sdkVersion = "0.1.0"
	userAgent  = "TicosSDK/" + sdkVersion
)

// DeviceInfo supplies the fields the OTA query string needs, a pared-down
// view of the platform device-info accessor (ticos_platform_get_device_info).
type DeviceInfo struct {
	DeviceSerial    string
	HardwareVersion string
	SoftwareType    string
	SoftwareVersion string
}

// NewChunkPostRequest builds the POST .../chunks/<device_serial> request,
// matching ticos_http_start_chunk_post's header set.
func NewChunkPostRequest(ctx context.Context, host, deviceSerial, projectKey string, body []byte) (*http.Request, error) {
	url := fmt.Sprintf("https://%s/api/v0/chunks/%s", host, deviceSerial)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Host = host
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Ticos-Project-Key", projectKey)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = int64(len(body))
	return req, nil
}

// NewOTALatestRequest builds the GET .../releases/latest/url request,
// matching ticos_http_get_latest_ota_payload_url's query-parameter order
// and its "&" prefix on every parameter (including the first), and
// URL-encoding values with the original's unreserved-character set rather
// than net/url's.
func NewOTALatestRequest(ctx context.Context, host, projectKey string, info DeviceInfo) (*http.Request, error) {
	var qs strings.Builder
	writeParam := func(name, value string) {
		qs.WriteByte('&')
		qs.WriteString(name)
		qs.WriteByte('=')
		qs.WriteString(encoding.URLEscape(value))
	}
	writeParam("device_serial", info.DeviceSerial)
	writeParam("hardware_version", info.HardwareVersion)
	writeParam("software_type", info.SoftwareType)
	writeParam("current_version", info.SoftwareVersion)

	url := fmt.Sprintf("https://%s/api/v0/releases/latest/url?%s", host, qs.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Host = host
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Ticos-Project-Key", projectKey)
	return req, nil
}

func isDefaultPort(scheme URIScheme, port uint32) bool {
	return (scheme == URISchemeHTTPS && port == 443) || (scheme == URISchemeHTTP && port == 80)
}

// NewOTAPayloadRequest builds the GET request for a previously-fetched
// OTA payload URL, parsing it with ParseURI exactly as
// ticos_http_get_ota_payload does to recover the Host header and
// Request-URI path separately.
func NewOTAPayloadRequest(ctx context.Context, payloadURL string) (*http.Request, error) {
	info, ok := ParseURI(payloadURL)
	if !ok {
		return nil, fmt.Errorf("httpclient: could not parse OTA payload URL %q", payloadURL)
	}
	path := info.Path
	if path == "" {
		path = "/"
	}
	host := info.Host
	if !isDefaultPort(info.Scheme, info.Port) {
		host = fmt.Sprintf("%s:%d", info.Host, info.Port)
	}
	url := fmt.Sprintf("%s://%s%s", info.Scheme.String(), host, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Host = host
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}
