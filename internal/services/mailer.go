package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Message matches the email collaborator's wire contract.
type Message struct {
	Sender     string   `json:"sender"`
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	HTMLBody   string   `json:"html_body"`
	TextBody   string   `json:"text_body"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

// Mailer sends transactional email through an HTTP API.
type Mailer struct {
	apiURL string
	apiKey string
	sender string
	client *http.Client
}

// NewMailer creates a Mailer. An empty apiURL turns sends into logged no-ops.
func NewMailer(apiURL, apiKey, sender string) *Mailer {
	return &Mailer{
		apiURL: apiURL,
		apiKey: apiKey,
		sender: sender,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Send hands a message to the email collaborator and returns its message id.
// The error is success/failure only; callers do not interpret it further.
func (m *Mailer) Send(msg Message) (string, error) {
	if m.apiURL == "" {
		log.Println("[Mailer] API URL not configured, dropping message")
		return "", nil
	}

	if msg.Sender == "" {
		msg.Sender = m.sender
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		log.Printf("[Mailer] Failed to send message: %v", err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		log.Printf("[Mailer] Unexpected status: %d", resp.StatusCode)
		return "", fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}

	var parsed sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("mail API returned malformed response: %w", err)
	}

	return parsed.MessageID, nil
}
