// Package messaging implements the inbound trigger/control-word rules for
// the messaging-channel webhook and a reply client for sending the
// supervisor's answer back to the provider (spec.md §6's messaging
// channel trigger rules).
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/wk-archive/meetingmind/internal/apperr"
)

// ControlWord is a locally-handled keyword that never reaches the
// supervisor.
type ControlWord string

const (
	ControlHelp  ControlWord = "HELP"
	ControlStart ControlWord = "START"
	ControlStop  ControlWord = "STOP"
)

const helpText = "Mention @agent (or say \"hey agent\") in a group, or message me directly, with your question about past meetings and decisions. Reply STOP to pause, START to resume."

// InboundMessage is the parsed shape of one webhook delivery (spec.md §6's
// `From`, `Body`, `ProfileName` form fields).
type InboundMessage struct {
	From        string
	Body        string
	ProfileName string
	OneToOne    bool
}

// Decision is what the webhook handler should do with an inbound message.
type Decision struct {
	Process      bool
	ControlReply string
}

// Evaluate decides whether msg should be handed to the supervisor, and
// produces a local reply for recognized control words along the way.
// Trigger detection and control words are case-insensitive; a control word
// must be the entire (trimmed) message body to avoid false positives on
// ordinary sentences that happen to contain "stop".
func Evaluate(msg InboundMessage, triggers []string) Decision {
	trimmed := strings.TrimSpace(msg.Body)
	upper := strings.ToUpper(trimmed)

	switch ControlWord(upper) {
	case ControlHelp:
		return Decision{Process: false, ControlReply: helpText}
	case ControlStart:
		return Decision{Process: false, ControlReply: "Resumed. I will respond to your messages again."}
	case ControlStop:
		return Decision{Process: false, ControlReply: "Paused. Send START to resume."}
	}

	if msg.OneToOne {
		return Decision{Process: true}
	}

	lower := strings.ToLower(msg.Body)
	for _, t := range triggers {
		if strings.Contains(lower, strings.ToLower(t)) {
			return Decision{Process: true}
		}
	}
	return Decision{Process: false}
}

// StripTrigger removes the first occurrence of any configured trigger
// token from body, so the supervisor sees the bare question.
func StripTrigger(body string, triggers []string) string {
	lower := strings.ToLower(body)
	for _, t := range triggers {
		if idx := strings.Index(lower, strings.ToLower(t)); idx != -1 {
			return strings.TrimSpace(body[:idx] + body[idx+len(t):])
		}
	}
	return strings.TrimSpace(body)
}

// Client sends reply messages back to the messaging provider's REST API
// (spec.md §6: "A reply is sent back via the provider's REST API").
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a reply client. baseURL and apiKey are the external
// collaborator's webhook-reply endpoint, out of scope for this module per
// spec.md §1's "Out of scope: the messaging provider webhook transport".
func NewClient(baseURL, apiKey string) *Client {
	return &Client{baseURL: baseURL, apiKey: apiKey, http: &http.Client{Timeout: 10 * time.Second}}
}

type replyPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Reply sends one outbound message to the given recipient. Failures are
// non-fatal to the caller (the webhook contract always returns 200); the
// error is returned so the caller can log it.
func (c *Client) Reply(ctx context.Context, to, body string) error {
	if c.baseURL == "" {
		return nil
	}
	payload, err := json.Marshal(replyPayload{To: to, Body: body})
	if err != nil {
		return fmt.Errorf("marshal reply payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send reply: %v", apperr.ErrTransientExternal, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: reply provider status %d", apperr.ErrTransientExternal, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: reply provider status %d", apperr.ErrPermanentExternal, resp.StatusCode)
	}
	return nil
}
