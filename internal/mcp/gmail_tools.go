package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelahq/angela/internal/google"
)

// Gmail is the mail surface the gmail toolset needs.
type Gmail interface {
	ListMessages(ctx context.Context, query string, max int) ([]google.EmailSummary, error)
	GetMessage(ctx context.Context, id string) (*google.Email, error)
	Send(ctx context.Context, to, subject, body string) (string, error)
	CreateDraft(ctx context.Context, to, subject, body string) (string, error)
}

// maxBodyChars bounds message bodies handed to the model. Newsletters and
// quoted reply chains routinely run tens of kilobytes.
const maxBodyChars = 4000

// GmailToolset returns the gmail_* tools backed by client.
func GmailToolset(client Gmail) []Tool {
	return []Tool{
		{
			Name:        "gmail_list_messages",
			Description: "List the most recent messages in the inbox",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"max": map[string]any{
						"type":        "integer",
						"description": "Maximum number of messages to return (default 10)",
					},
				},
			},
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				summaries, err := client.ListMessages(ctx, "in:inbox", IntArg(args, "max", 0))
				if err != nil {
					return "", err
				}

				return formatEmailSummaries(summaries), nil
			},
		},
		{
			Name:        "gmail_search_messages",
			Description: "Search the mailbox using Gmail query syntax, e.g. 'from:alice is:unread'",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Gmail search query",
					},
					"max": map[string]any{
						"type":        "integer",
						"description": "Maximum number of messages to return (default 10)",
					},
				},
				"required": []string{"query"},
			},
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				summaries, err := client.ListMessages(ctx, StringArg(args, "query"), IntArg(args, "max", 0))
				if err != nil {
					return "", err
				}

				return formatEmailSummaries(summaries), nil
			},
		},
		{
			Name:        "gmail_get_message",
			Description: "Read a single message including its text body",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Message ID from a listing or search",
					},
				},
				"required": []string{"id"},
			},
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				email, err := client.GetMessage(ctx, StringArg(args, "id"))
				if err != nil {
					return "", err
				}

				var b strings.Builder
				fmt.Fprintf(&b, "From: %s\n", email.From)
				fmt.Fprintf(&b, "To: %s\n", email.To)
				fmt.Fprintf(&b, "Date: %s\n", email.Date)
				fmt.Fprintf(&b, "Subject: %s\n\n", email.Subject)
				b.WriteString(truncateText(email.Body, maxBodyChars))

				return b.String(), nil
			},
		},
		{
			Name:        "gmail_send_message",
			Description: "Send a plain-text email from the companion's address",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"to": map[string]any{
						"type":        "string",
						"description": "Recipient address",
					},
					"subject": map[string]any{
						"type":        "string",
						"description": "Subject line",
					},
					"body": map[string]any{
						"type":        "string",
						"description": "Message body",
					},
				},
				"required": []string{"to", "subject", "body"},
			},
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				to := StringArg(args, "to")

				id, err := client.Send(ctx, to, StringArg(args, "subject"), StringArg(args, "body"))
				if err != nil {
					return "", err
				}

				return fmt.Sprintf("Message sent to %s (id %s)", to, id), nil
			},
		},
		{
			Name:        "gmail_create_draft",
			Description: "Create a draft without sending it",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"to": map[string]any{
						"type":        "string",
						"description": "Recipient address",
					},
					"subject": map[string]any{
						"type":        "string",
						"description": "Subject line",
					},
					"body": map[string]any{
						"type":        "string",
						"description": "Draft body",
					},
				},
				"required": []string{"to", "subject"},
			},
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				id, err := client.CreateDraft(ctx, StringArg(args, "to"), StringArg(args, "subject"), StringArg(args, "body"))
				if err != nil {
					return "", err
				}

				return fmt.Sprintf("Draft created (id %s)", id), nil
			},
		},
	}
}

func formatEmailSummaries(summaries []google.EmailSummary) string {
	if len(summaries) == 0 {
		return "No messages found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d message(s):\n", len(summaries))

	for i, s := range summaries {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, s.Subject)
		fmt.Fprintf(&b, "   From: %s\n", s.From)
		fmt.Fprintf(&b, "   Date: %s\n", s.Date)
		fmt.Fprintf(&b, "   ID: %s\n", s.ID)

		if s.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", s.Snippet)
		}
	}

	return b.String()
}

func truncateText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	return s[:limit] + "\n[truncated]"
}
