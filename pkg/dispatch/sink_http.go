package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrStatus is returned when the endpoint answers with a non-2xx status.
var ErrStatus = errors.New("unexpected HTTP status")

// HTTPSink posts each command as a form body.
type HTTPSink struct {
	url    string
	client *http.Client
}

// NewHTTPSink creates a sink posting to endpoint. A nil client uses a
// client with a 10 second timeout.
func NewHTTPSink(endpoint string, client *http.Client) (*HTTPSink, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q: scheme must be http or https", endpoint)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSink{url: u.String(), client: client}, nil
}

// Name returns "http".
func (s *HTTPSink) Name() string { return "http" }

// URL returns the endpoint.
func (s *HTTPSink) URL() string { return s.url }

// Send posts command. A "key=value" command is form-encoded so the value
// survives spaces and quotes.
func (s *HTTPSink) Send(ctx context.Context, command string) error {
	body := command
	if key, value, ok := strings.Cut(command, "="); ok {
		body = url.Values{key: {value}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}
	return nil
}
