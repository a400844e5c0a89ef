package notify

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

	"go.uber.org/zap"

	"adopet/internal/config"
	"adopet/internal/domain"
)

const defaultWebhookTimeout = 5 * time.Second

// Sender delivers one notification to its recipients.
type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, n domain.Notification) error

func (f SenderFunc) Send(ctx context.Context, n domain.Notification) error { return f(ctx, n) }

// Fanout sends to every sender and joins their errors.
type Fanout []Sender

func (f Fanout) Send(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, s := range f {
		if err := s.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(_ context.Context, n domain.Notification) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("notification",
		zap.Int64("id", n.ID),
		zap.String("kind", n.Kind),
		zap.String("adoption_id", n.AdoptionID),
		zap.String("tutor_email", n.TutorEmail),
		zap.String("shelter_email", n.ShelterEmail),
		zap.String("subject", n.Subject),
	)
	return nil
}

// WebhookSender posts notifications as JSON to a URL.
type WebhookSender struct {
	URL     string
	Secret  string
	Kinds   []string
	Timeout time.Duration
	Client  *http.Client
}

func NewWebhookSender(hook config.WebhookConfig) *WebhookSender {
	timeout := defaultWebhookTimeout
	if hook.TimeoutSeconds > 0 {
		timeout = time.Duration(hook.TimeoutSeconds) * time.Second
	}
	return &WebhookSender{
		URL:     hook.URL,
		Secret:  hook.Secret,
		Kinds:   hook.Kinds,
		Timeout: timeout,
		Client:  &http.Client{Timeout: timeout},
	}
}

type webhookBody struct {
	ID           int64  `json:"id"`
	Kind         string `json:"kind"`
	AdoptionID   string `json:"adoption_id"`
	TutorID      string `json:"tutor_id,omitempty"`
	TutorEmail   string `json:"tutor_email,omitempty"`
	ShelterID    string `json:"shelter_id"`
	ShelterEmail string `json:"shelter_email"`
	Subject      string `json:"subject"`
	Body         string `json:"body"`
	CreatedAt    string `json:"created_at"`
}

func (s *WebhookSender) wants(kind string) bool {
	if len(s.Kinds) == 0 {
		return true
	}
	for _, k := range s.Kinds {
		if strings.TrimSpace(k) == kind {
			return true
		}
	}
	return false
}

func (s *WebhookSender) Send(ctx context.Context, n domain.Notification) error {
	if !s.wants(n.Kind) {
		return nil
	}
	data, err := json.Marshal(webhookBody{
		ID:           n.ID,
		Kind:         n.Kind,
		AdoptionID:   n.AdoptionID,
		TutorID:      n.TutorID,
		TutorEmail:   n.TutorEmail,
		ShelterID:    n.ShelterID,
		ShelterEmail: n.ShelterEmail,
		Subject:      n.Subject,
		Body:         n.Body,
		CreatedAt:    n.CreatedAt,
	})
	if err != nil {
		return err
	}
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: defaultWebhookTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Adopet-Notification", n.Kind)
	req.Header.Set("X-Adopet-Delivery", fmt.Sprintf("%d", n.ID))
	if strings.TrimSpace(s.Secret) != "" {
		req.Header.Set("X-Adopet-Secret", s.Secret)
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("webhook %s: status %d: %s", s.URL, res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// FromConfig builds the sender configured in cfg, or nil when neither the
// log nor any webhook is enabled.
func FromConfig(cfg config.Notifications, logger *zap.Logger) Sender {
	var out Fanout
	if cfg.Log {
		out = append(out, LogSender{Logger: logger})
	}
	for _, hook := range cfg.Webhooks {
		if !hook.Active() {
			continue
		}
		out = append(out, NewWebhookSender(hook))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
