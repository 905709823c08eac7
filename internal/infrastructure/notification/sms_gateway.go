package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hostel/backend/internal/domain/billing"
)

var (
	// ErrGatewayUnavailable means the SMS gateway could not be reached
	ErrGatewayUnavailable = errors.New("notification: sms gateway unavailable")
	// ErrGatewayRejected means the SMS gateway answered with an error
	ErrGatewayRejected = errors.New("notification: sms gateway rejected message")
)

// SMSGatewayConfig holds the HTTP SMS gateway settings
type SMSGatewayConfig struct {
	URL    string
	Token  string
	Sender string
}

type smsRequest struct {
	To     string `json:"to"`
	From   string `json:"from,omitempty"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

type smsResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// SMSGatewaySink posts SMS messages as JSON to an HTTP gateway
type SMSGatewaySink struct {
	config     SMSGatewayConfig
	httpClient *http.Client
}

// NewSMSGatewaySink creates a gateway sink
func NewSMSGatewaySink(cfg SMSGatewayConfig) (*SMSGatewaySink, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("notification: sms gateway url is required")
	}
	return &SMSGatewaySink{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Send implements billing.NotificationSink
func (s *SMSGatewaySink) Send(ctx context.Context, n billing.Notification) (string, error) {
	if n.Recipient == "" {
		return "", errors.New("notification: sms recipient is empty")
	}

	body, err := json.Marshal(smsRequest{
		To:     n.Recipient,
		From:   s.config.Sender,
		Text:   n.Body,
		Source: "hostel-billing",
	})
	if err != nil {
		return "", fmt.Errorf("notification: failed to encode sms: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("notification: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.Token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("notification: failed to read response: %w", err)
	}

	var parsed smsResponse
	_ = json.Unmarshal(respBody, &parsed)

	if resp.StatusCode >= 400 {
		if parsed.Error != "" {
			return "", fmt.Errorf("%w: HTTP %d - %s", ErrGatewayRejected, resp.StatusCode, parsed.Error)
		}
		return "", fmt.Errorf("%w: HTTP %d", ErrGatewayRejected, resp.StatusCode)
	}
	if strings.EqualFold(parsed.Status, "failed") {
		return "", fmt.Errorf("%w: %s", ErrGatewayRejected, parsed.Error)
	}

	return parsed.MessageID, nil
}

var _ billing.NotificationSink = (*SMSGatewaySink)(nil)
