package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/noah-isme/talent-assessment-api/pkg/config"
)

// ErrDisabled is returned when no relay endpoint is configured.
var ErrDisabled = errors.New("mailer disabled")

// Message is an outbound email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	From    string `json:"from,omitempty"`
}

// Client posts messages to an HTTP mail relay.
type Client struct {
	http     *resty.Client
	endpoint string
	from     string
}

// New builds a relay client from configuration.
func New(cfg config.MailerConfig) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: client, endpoint: cfg.Endpoint, from: cfg.From}
}

// Enabled reports whether a relay endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != ""
}

// Send delivers msg and returns the relay's message id when it reports one.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	if msg.From == "" {
		msg.From = c.from
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(msg).
		Post(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("post mail relay: %w", err)
	}
	if resp.IsError() {
		reason := gjson.Get(resp.String(), "error.message").String()
		if reason == "" {
			reason = gjson.Get(resp.String(), "message").String()
		}
		if reason == "" {
			reason = resp.Status()
		}
		return "", fmt.Errorf("mail relay rejected message (%d): %s", resp.StatusCode(), reason)
	}

	id := gjson.Get(resp.String(), "id").String()
	if id == "" {
		id = gjson.Get(resp.String(), "data.id").String()
	}
	return id, nil
}
