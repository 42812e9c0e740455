package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"charter_backoffice/internal/config"
)

// SMSService sends text messages through an HTTP gateway. SMS is entirely
// optional: an unconfigured service is a normal state and callers are
// expected to skip it silently.
type SMSService struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
}

func NewSMSService(cfg config.Config) *SMSService {
	return &SMSService{
		baseURL: cfg.SMSBaseURL,
		apiKey:  cfg.SMSAPIKey,
		from:    cfg.SMSFrom,
		client:  &http.Client{},
	}
}

// Configured reports whether the gateway credentials are present.
func (s *SMSService) Configured() bool {
	return s.baseURL != "" && s.apiKey != ""
}

func (s *SMSService) makeRequest(method, endpoint string, payload interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, fmt.Sprintf("%s%s", s.baseURL, endpoint), bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// Send delivers a single text message.
func (s *SMSService) Send(to, body string) error {
	if !s.Configured() {
		return fmt.Errorf("SMS gateway not configured")
	}
	return s.makeRequest("POST", "/api/messages", map[string]string{
		"to":   to,
		"from": s.from,
		"body": body,
	})
}
