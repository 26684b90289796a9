package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const gmailBaseURL = "https://gmail.googleapis.com/gmail/v1"

const (
	defaultListMax = 10
	maxListMax     = 100
)

// GmailClient talks to the Gmail REST API for a single mailbox. sender is
// the From address stamped on outgoing mail.
type GmailClient struct {
	http    *http.Client
	baseURL string
	sender  string
}

func NewGmailClient(httpClient *http.Client, sender string) *GmailClient {
	return &GmailClient{
		http:    httpClient,
		baseURL: gmailBaseURL,
		sender:  sender,
	}
}

// EmailSummary is the header-level view of a message, enough for listings.
type EmailSummary struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Date     string `json:"date"`
	Snippet  string `json:"snippet"`
}

// Email is a full message including the decoded text body.
type Email struct {
	EmailSummary
	Body string `json:"body"`
}

type gmailMessage struct {
	ID       string        `json:"id"`
	ThreadID string        `json:"threadId"`
	Snippet  string        `json:"snippet"`
	Payload  *gmailPayload `json:"payload"`
}

type gmailPayload struct {
	MimeType string         `json:"mimeType"`
	Headers  []gmailHeader  `json:"headers"`
	Body     *gmailBody     `json:"body"`
	Parts    []gmailPayload `json:"parts"`
}

type gmailHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type gmailBody struct {
	Size int    `json:"size"`
	Data string `json:"data"`
}

// ListMessages runs a Gmail search query and returns header summaries for
// the first max matches. An empty query lists the most recent mail.
func (c *GmailClient) ListMessages(ctx context.Context, query string, max int) ([]EmailSummary, error) {
	if max <= 0 {
		max = defaultListMax
	}
	if max > maxListMax {
		max = maxListMax
	}

	params := url.Values{}
	params.Set("maxResults", strconv.Itoa(max))
	if query != "" {
		params.Set("q", query)
	}

	var list struct {
		Messages []struct {
			ID       string `json:"id"`
			ThreadID string `json:"threadId"`
		} `json:"messages"`
	}

	listURL := c.baseURL + "/users/me/messages?" + params.Encode()
	if err := apiCall(ctx, c.http, http.MethodGet, listURL, nil, &list, "message"); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	summaries := make([]EmailSummary, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := c.fetchMessage(ctx, ref.ID, "metadata")
		if err != nil {
			return nil, fmt.Errorf("failed to fetch message %s: %w", ref.ID, err)
		}

		summaries = append(summaries, summaryOf(msg))
	}

	return summaries, nil
}

// GetMessage retrieves one message with its text body decoded. Multipart
// messages prefer the text/plain part and fall back to text/html.
func (c *GmailClient) GetMessage(ctx context.Context, id string) (*Email, error) {
	msg, err := c.fetchMessage(ctx, id, "full")
	if err != nil {
		return nil, err
	}

	body := extractBody(msg.Payload, "text/plain")
	if body == "" {
		body = extractBody(msg.Payload, "text/html")
	}

	return &Email{EmailSummary: summaryOf(msg), Body: body}, nil
}

// Send delivers a plain-text message and returns the sent message ID.
func (c *GmailClient) Send(ctx context.Context, to, subject, body string) (string, error) {
	payload := map[string]string{"raw": buildRawMessage(c.sender, to, subject, body)}

	var resp struct {
		ID string `json:"id"`
	}

	sendURL := c.baseURL + "/users/me/messages/send"
	if err := apiCall(ctx, c.http, http.MethodPost, sendURL, payload, &resp, "message"); err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	return resp.ID, nil
}

// CreateDraft stores a plain-text draft and returns the draft ID.
func (c *GmailClient) CreateDraft(ctx context.Context, to, subject, body string) (string, error) {
	payload := map[string]any{
		"message": map[string]string{"raw": buildRawMessage(c.sender, to, subject, body)},
	}

	var resp struct {
		ID string `json:"id"`
	}

	draftURL := c.baseURL + "/users/me/drafts"
	if err := apiCall(ctx, c.http, http.MethodPost, draftURL, payload, &resp, "draft"); err != nil {
		return "", fmt.Errorf("failed to create draft: %w", err)
	}

	return resp.ID, nil
}

func (c *GmailClient) fetchMessage(ctx context.Context, id, format string) (*gmailMessage, error) {
	params := url.Values{}
	params.Set("format", format)

	if format == "metadata" {
		for _, h := range []string{"From", "To", "Subject", "Date"} {
			params.Add("metadataHeaders", h)
		}
	}

	var msg gmailMessage

	msgURL := fmt.Sprintf("%s/users/me/messages/%s?%s", c.baseURL, url.PathEscape(id), params.Encode())
	if err := apiCall(ctx, c.http, http.MethodGet, msgURL, nil, &msg, "message"); err != nil {
		return nil, err
	}

	return &msg, nil
}

func summaryOf(msg *gmailMessage) EmailSummary {
	s := EmailSummary{
		ID:       msg.ID,
		ThreadID: msg.ThreadID,
		Snippet:  msg.Snippet,
	}

	if msg.Payload != nil {
		s.From = headerValue(msg.Payload.Headers, "From")
		s.To = headerValue(msg.Payload.Headers, "To")
		s.Subject = headerValue(msg.Payload.Headers, "Subject")
		s.Date = headerValue(msg.Payload.Headers, "Date")
	}

	return s
}

func headerValue(headers []gmailHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}

	return ""
}

// extractBody walks the payload tree for the first part of the given MIME
// type and decodes its base64url data.
func extractBody(payload *gmailPayload, mimeType string) string {
	if payload == nil {
		return ""
	}

	if strings.HasPrefix(payload.MimeType, mimeType) && payload.Body != nil && payload.Body.Data != "" {
		decoded, err := decodeBase64URL(payload.Body.Data)
		if err != nil {
			return ""
		}

		return string(decoded)
	}

	for i := range payload.Parts {
		if body := extractBody(&payload.Parts[i], mimeType); body != "" {
			return body
		}
	}

	return ""
}

// buildRawMessage assembles an RFC 822 message and encodes it the way the
// Gmail API expects raw payloads, base64url without padding.
func buildRawMessage(from, to, subject, body string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	return base64.RawURLEncoding.EncodeToString([]byte(b.String()))
}
