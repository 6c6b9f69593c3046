// Package whatsapp implements the ports.Messenger collaborator on top of
// the GoWA WhatsApp HTTP gateway. Adapted from the project's original
// device-provisioning client, trimmed to the send-text/send-buttons surface
// the core actually depends on; QR login and device lifecycle
// management live outside the core's collaborator contract.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"campotech-ai-engine/internal/ports"
	"campotech-ai-engine/platform/config"
	"campotech-ai-engine/platform/logger"
)

// Adapter satisfies ports.Messenger against a GoWA gateway.
type Adapter struct {
	baseURL         string
	apiKey          string
	defaultDeviceID string
	http            *http.Client
	log             *logger.Logger
}

type gowaSendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type gowaButtonsRequest struct {
	Phone   string       `json:"phone"`
	Message string       `json:"message"`
	Buttons []gowaButton `json:"buttons"`
}

type gowaButton struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type gowaSendResponse struct {
	Results struct {
		MessageID string `json:"message_id"`
	} `json:"results"`
}

// ErrNoDevice is returned when no WhatsApp device is configured for a send.
var ErrNoDevice = errors.New("no whatsapp device configured")

// New builds an Adapter. Returns nil when no gateway URL is configured;
// every send through a nil adapter fails with ErrNoDevice.
func New(cfg config.MessengerConfig, log *logger.Logger) *Adapter {
	if cfg.GetWhatsAppURL() == "" {
		return nil
	}
	return &Adapter{
		baseURL:         strings.TrimRight(cfg.GetWhatsAppURL(), "/"),
		apiKey:          cfg.GetWhatsAppKey(),
		defaultDeviceID: cfg.GetWhatsAppDeviceID(),
		http:            &http.Client{Timeout: 10 * time.Second},
		log:             log,
	}
}

// SendText sends a plain-text outbound message.
func (a *Adapter) SendText(ctx context.Context, to, body, orgID string) (ports.SendResult, error) {
	if a == nil {
		return ports.SendResult{}, ErrNoDevice
	}
	payload := gowaSendRequest{Phone: strings.TrimPrefix(to, "+"), Message: body}
	return a.send(ctx, "/send/message", payload)
}

// SendButtons sends a message with up to 3 quick-reply buttons.
func (a *Adapter) SendButtons(ctx context.Context, to, body string, buttons []string, orgID string) (ports.SendResult, error) {
	if a == nil {
		return ports.SendResult{}, ErrNoDevice
	}
	if len(buttons) > 3 {
		buttons = buttons[:3]
	}
	gowaButtons := make([]gowaButton, 0, len(buttons))
	for i, label := range buttons {
		gowaButtons = append(gowaButtons, gowaButton{ID: fmt.Sprintf("btn-%d", i), Text: label})
	}
	payload := gowaButtonsRequest{Phone: strings.TrimPrefix(to, "+"), Message: body, Buttons: gowaButtons}
	return a.send(ctx, "/send/buttons", payload)
}

func (a *Adapter) send(ctx context.Context, path string, payload interface{}) (ports.SendResult, error) {
	if a.defaultDeviceID == "" {
		return ports.SendResult{}, ErrNoDevice
	}

	result, err := a.doSend(ctx, path, payload)
	if err != nil && isConnectionError(err) {
		a.log.Warn("whatsapp connection lost, attempting reconnect", "deviceId", a.defaultDeviceID)
		if reconErr := a.reconnect(ctx); reconErr == nil {
			time.Sleep(2 * time.Second)
			return a.doSend(ctx, path, payload)
		}
	}
	return result, err
}

func (a *Adapter) doSend(ctx context.Context, path string, payload interface{}) (ports.SendResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return ports.SendResult{}, fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := a.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return ports.SendResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	a.addHeaders(req)

	resp, err := a.http.Do(req)
	if err != nil {
		return ports.SendResult{}, fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return ports.SendResult{}, fmt.Errorf("whatsapp response read failed: %w", readErr)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return ports.SendResult{}, fmt.Errorf("whatsapp service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed gowaSendResponse
	_ = json.Unmarshal(data, &parsed)
	if a.log != nil {
		a.log.Info("whatsapp sent via gowa", "deviceId", a.defaultDeviceID)
	}
	return ports.SendResult{MessageID: parsed.Results.MessageID}, nil
}

func (a *Adapter) reconnect(ctx context.Context) error {
	url := fmt.Sprintf("%s/devices/%s/reconnect", a.baseURL, a.defaultDeviceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	a.addHeaders(req)

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("reconnect failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}

func (a *Adapter) addHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", formatAuthHeader(a.apiKey))
	}
	if a.defaultDeviceID != "" {
		req.Header.Set("X-Device-Id", a.defaultDeviceID)
	}
}

func isConnectionError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "client is not connected") || strings.Contains(msg, "context deadline exceeded")
}

func formatAuthHeader(apiKey string) string {
	if strings.HasPrefix(strings.ToLower(apiKey), "basic ") {
		return apiKey
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(apiKey))
}
