package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender `json:"sender"`
	To          []BrevoTo   `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Sender delivers one workflow notification. Implementations with no API key
// configured are no-ops so the workflow runs without a mail provider.
type Sender interface {
	Send(ctx context.Context, receiver string, kind Kind, payload Payload) error
}

// BrevoClient sends notifications via the Brevo (Sendinblue) API.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "info@anticairapp.sixela.be"
}

// Send renders the template for kind and delivers it to receiver.
// An empty receiver or missing API key skips delivery without error.
func (c *BrevoClient) Send(ctx context.Context, receiver string, kind Kind, payload Payload) error {
	if c.APIKey == "" || receiver == "" {
		return nil
	}
	html, err := content(kind, payload)
	if err != nil {
		return err
	}
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "Anticair'App"},
		To:          []BrevoTo{{Email: receiver}},
		Subject:     kind.Subject(),
		HTMLContent: EmailLayout(html),
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoAPI, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}
