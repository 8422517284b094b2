package http

import (
	"encoding/json"
	"fmt"
	neturl "net/url"
	"strings"
)

type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Headers: make(map[string]string),
	}
}

// SetJSONBody marshals v and marks the request as JSON. A nil v leaves the
// request without a body.
func (r *Request) SetJSONBody(v any) error {
	if v == nil {
		return nil
	}

	var data []byte
	switch body := v.(type) {
	case []byte:
		data = body
	case string:
		data = []byte(body)
	case json.RawMessage:
		data = body
	default:
		var err error
		data, err = json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	r.Body = data
	r.Headers["Content-Type"] = "application/json"
	return nil
}

// ResolveURL joins path onto baseURL. Absolute http(s) URLs are returned as-is.
func ResolveURL(baseURL, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if baseURL == "" {
		return path
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
