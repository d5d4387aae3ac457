// Package mailer is a thin client for the external transactional email
// API. Delivery is a black box: a request either succeeds or returns an
// error; retry policy belongs to the caller.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fintrack/loan-engine/internal/domain"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, from string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		from:       from,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type sendError struct {
	Message string `json:"message"`
}

// Send delivers a due-tomorrow payment reminder for the candidate
// installment. It satisfies the dispatcher's Sender interface.
func (c *Client) Send(ctx context.Context, candidate *domain.ReminderCandidate) error {
	name := candidate.FullName
	if name == "" {
		name = "there"
	}

	payload := sendRequest{
		From:    c.from,
		To:      candidate.Email,
		Subject: fmt.Sprintf("Reminder: %s payment due tomorrow", candidate.LenderName),
		Text: fmt.Sprintf(
			"Hi %s,\n\nYour %s installment of %s is due on %s.\n\nFinTrack",
			name,
			candidate.LenderName,
			candidate.Amount.StringFixed(2),
			candidate.DueDate.Format("2006-01-02"),
		),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal reminder email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build reminder request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send reminder email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr sendError
		raw, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("mail API returned %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("mail API returned %d", resp.StatusCode)
	}

	return nil
}
