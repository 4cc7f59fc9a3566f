package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crypverify-go/internal/models"

	"go.uber.org/zap"
)

// StatusNotification tells a submitter the outcome of their review
type StatusNotification struct {
	UserName    string
	UserEmail   string
	Status      models.SubmissionStatus
	ReferenceId string
}

// Notifier delivers one status notification. Callers treat failures as best effort.
type Notifier interface {
	Notify(ctx context.Context, n StatusNotification) error
}

// EmailJSNotifier sends notifications through the EmailJS REST API
type EmailJSNotifier struct {
	apiURL     string
	serviceId  string
	templateId string
	publicKey  string
	privateKey string
	client     *http.Client
}

type emailJSRequest struct {
	ServiceId      string            `json:"service_id"`
	TemplateId     string            `json:"template_id"`
	UserId         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

func NewEmailJSNotifier(cfg models.NotificationConfig, client *http.Client) *EmailJSNotifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &EmailJSNotifier{
		apiURL:     strings.TrimRight(cfg.ApiUrl, "/"),
		serviceId:  cfg.ServiceId,
		templateId: cfg.TemplateId,
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
		client:     client,
	}
}

func (e *EmailJSNotifier) Notify(ctx context.Context, n StatusNotification) error {
	payload := emailJSRequest{
		ServiceId:   e.serviceId,
		TemplateId:  e.templateId,
		UserId:      e.publicKey,
		AccessToken: e.privateKey,
		TemplateParams: map[string]string{
			"user_name":  n.UserName,
			"user_email": n.UserEmail,
			"status":     string(n.Status),
			"ref_id":     n.ReferenceId,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal emailjs payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiURL+"/api/v1.0/email/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send emailjs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("emailjs returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	zap.L().Info("Status notification sent",
		zap.String("reference_id", n.ReferenceId),
		zap.String("status", string(n.Status)))
	return nil
}

// LogNotifier records notifications in the log only
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n StatusNotification) error {
	zap.L().Info("Status notification (email disabled)",
		zap.String("reference_id", n.ReferenceId),
		zap.String("user_email", n.UserEmail),
		zap.String("status", string(n.Status)))
	return nil
}

// New returns the EmailJS notifier when a service id is configured, else LogNotifier
func New(cfg models.NotificationConfig, client *http.Client) Notifier {
	if cfg.ServiceId == "" || cfg.TemplateId == "" {
		return LogNotifier{}
	}
	return NewEmailJSNotifier(cfg, client)
}
