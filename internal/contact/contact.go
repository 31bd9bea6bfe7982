// Package contact forwards contact-form submissions to a chat webhook.
package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNotConfigured is returned when no webhook URL is set.
var ErrNotConfigured = errors.New("contact webhook not configured")

// Message is one contact-form submission.
type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields"`
	Footer    embedFooter  `json:"footer"`
	Timestamp string       `json:"timestamp"`
}

type payload struct {
	Embeds []embed `json:"embeds"`
}

const embedColor = 3447003

// Notifier posts messages to a Discord-compatible webhook.
type Notifier struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) { n.client = c }
}

// WithClock overrides time.Now for the embed timestamp.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// NewNotifier returns a Notifier for webhookURL.
func NewNotifier(webhookURL string, opts ...Option) *Notifier {
	n := &Notifier{
		url:    webhookURL,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Configured reports whether a webhook URL is set.
func (n *Notifier) Configured() bool { return n.url != "" }

// Send posts m once. There is no retry.
func (n *Notifier) Send(ctx context.Context, m Message) error {
	if n.url == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(n.payload(m))
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (n *Notifier) payload(m Message) payload {
	e := embed{
		Title: "📩 New Contact Form Submission",
		Color: embedColor,
		Fields: []embedField{
			{Name: "👤 Name", Value: orDefault(m.Name, "No Name Provided"), Inline: true},
			{Name: "📧 Email", Value: orDefault(m.Email, "No Email Provided"), Inline: true},
			{Name: "💬 Message", Value: orDefault(m.Message, "No Message Provided")},
		},
		Footer:    embedFooter{Text: "Contact Form Submission"},
		Timestamp: n.now().UTC().Format(time.RFC3339Nano),
	}
	return payload{Embeds: []embed{e}}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
