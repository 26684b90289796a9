// Package google provides thin Gmail and Calendar API clients backed by an
// oauth2 offline-grant token source. The MCP toolsets and the calendar sync
// worker are the only consumers; the surface is deliberately small and does
// not pull in the generated Google SDKs.
package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	apperrors "github.com/angelahq/angela/internal/pkg/errors"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"

	maxErrorBody = 512
)

// Scopes covered by the stored offline grant.
var Scopes = []string{
	"https://www.googleapis.com/auth/gmail.modify",
	"https://www.googleapis.com/auth/calendar",
}

// Credentials holds an OAuth2 client plus the refresh token obtained from a
// one-time consent flow.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// HTTPClient returns a client that mints and renews access tokens from the
// refresh token. Token refresh happens lazily on the first request.
func (c Credentials) HTTPClient(ctx context.Context) *http.Client {
	conf := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthURL,
			TokenURL: googleTokenURL,
		},
		Scopes: Scopes,
	}

	return conf.Client(ctx, &oauth2.Token{RefreshToken: c.RefreshToken})
}

// apiCall performs one JSON round trip against a Google API endpoint.
// resource names what a 404 refers to in the returned NotFound error.
func apiCall(ctx context.Context, hc *http.Client, method, rawURL string, in, out any, resource string) error {
	var body io.Reader

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}

		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return apperrors.NotFound(resource)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("google api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// decodeBase64URL accepts both padded and unpadded base64url, which the
// Gmail API mixes freely across payload parts.
func decodeBase64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
