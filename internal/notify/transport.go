package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/healthwatch/go-health-alerts/internal/models"
)

// Transport is the external send capability. Implementations are expected
// to be safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, recipient, message string, channel models.Channel) error
}

// HTTPGateway delivers messages through the messaging-hub HTTP endpoint,
// which fans out to the concrete SMS/WhatsApp providers.
type HTTPGateway struct {
	url    string
	client *http.Client
}

func NewHTTPGateway(url string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type gatewayRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
	Channel string `json:"channel"`
}

type gatewayResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (g *HTTPGateway) Send(ctx context.Context, recipient, message string, channel models.Channel) error {
	body, err := json.Marshal(gatewayRequest{
		To:      recipient,
		Message: message,
		Channel: string(channel),
	})
	if err != nil {
		return fmt.Errorf("error encoding gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return fmt.Errorf("error decoding resp.Body: %w", err)
	}
	if !data.Success {
		return fmt.Errorf("gateway rejected message: %s", data.Error)
	}

	return nil
}
