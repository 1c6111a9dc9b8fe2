// Package httpx performs single-shot HTTP exchanges against the identity
// providers in the authentication chain. Every call makes exactly one
// attempt; retry policy belongs to the caller.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrMalformedResponse indicates a success status whose body is missing
// fields the provider contract requires.
var ErrMalformedResponse = errors.New("malformed provider response")

// StatusError reports a non-2xx provider response. The OAuth error code and
// the Xbox numeric error code are decoded once here so callers can match on
// them without re-parsing the body.
type StatusError struct {
	StatusCode int
	OAuthCode  string // "error" field of an OAuth2 error body, if present
	XErr       int64  // "XErr" field of an Xbox error body, if present
	Body       string
}

func (e *StatusError) Error() string {
	switch {
	case e.OAuthCode != "":
		return fmt.Sprintf("provider returned HTTP %d (%s)", e.StatusCode, e.OAuthCode)
	case e.XErr != 0:
		return fmt.Sprintf("provider returned HTTP %d (XErr %d)", e.StatusCode, e.XErr)
	default:
		return fmt.Sprintf("provider returned HTTP %d", e.StatusCode)
	}
}

// PostForm sends an application/x-www-form-urlencoded POST and decodes the
// JSON response into out.
func PostForm(ctx context.Context, client *http.Client, endpoint string, data url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return do(client, req, out)
}

// PostJSON sends a JSON POST body and decodes the JSON response into out.
func PostJSON(ctx context.Context, client *http.Client, endpoint string, body, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return do(client, req, out)
}

// Get sends a GET request with a bearer credential and decodes the JSON
// response into out.
func Get(ctx context.Context, client *http.Client, endpoint, bearer string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")

	return do(client, req, out)
}

// do sends the request and maps the response: non-2xx becomes *StatusError,
// an undecodable success body becomes ErrMalformedResponse.
func do(client *http.Client, req *http.Request, out interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return newStatusError(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", ErrMalformedResponse)
	}
	return nil
}

// newStatusError decodes the provider error envelope. Both the OAuth2 shape
// ({"error": ...}) and the Xbox shape ({"XErr": ...}) are attempted; a body
// that is not JSON at all still yields a StatusError with the raw body.
func newStatusError(status int, body []byte) *StatusError {
	var envelope struct {
		Error string `json:"error"`
		XErr  int64  `json:"XErr"`
	}
	// Decode failures are fine: the envelope fields stay zero.
	_ = json.Unmarshal(body, &envelope)

	return &StatusError{
		StatusCode: status,
		OAuthCode:  envelope.Error,
		XErr:       envelope.XErr,
		Body:       string(body),
	}
}
