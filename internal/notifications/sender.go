package notifications

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/resend/resend-go/v2"

	"github.com/inventorypro/inventorypro-backend/pkg/config"
	"github.com/inventorypro/inventorypro-backend/pkg/logger"
)

// ErrPermanent marks a delivery that will fail the same way on every retry.
var ErrPermanent = errors.New("permanent delivery failure")

var recipientValidator = validator.New()

// Sender delivers low-stock alerts.
type Sender interface {
	SendLowStock(ctx context.Context, email LowStockEmail) error
}

type emailClient interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender sends alerts through the Resend API.
type ResendSender struct {
	emails emailClient
	from   string
	appURL string
	logg   *logger.Logger
}

// NewSender returns a Resend-backed sender, or a LogSender when no API key is
// configured.
func NewSender(cfg config.EmailConfig, appURL string, logg *logger.Logger) Sender {
	if strings.TrimSpace(cfg.ResendAPIKey) == "" {
		return NewLogSender(logg, appURL)
	}
	client := resend.NewCustomClient(&http.Client{
		Timeout:   30 * time.Second,
		Transport: statusRecorder{next: http.DefaultTransport},
	}, strings.TrimSpace(cfg.ResendAPIKey))
	return &ResendSender{
		emails: client.Emails,
		from:   cfg.From,
		appURL: appURL,
		logg:   logg,
	}
}

func (s *ResendSender) SendLowStock(ctx context.Context, email LowStockEmail) error {
	if err := recipientValidator.Var(strings.TrimSpace(email.To), "required,email"); err != nil {
		return fmt.Errorf("%w: invalid recipient %q", ErrPermanent, email.To)
	}
	html, err := email.RenderHTML(s.appURL)
	if err != nil {
		return fmt.Errorf("%w: render: %w", ErrPermanent, err)
	}
	var status int
	resp, err := s.emails.SendWithContext(context.WithValue(ctx, statusKey{}, &status), &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{email.To},
		Subject: email.Subject(),
		Html:    html,
		Text:    email.RenderText(s.appURL),
	})
	if err != nil {
		if permanentStatus(status) {
			return fmt.Errorf("%w: resend status %d: %w", ErrPermanent, status, err)
		}
		return fmt.Errorf("resend send: %w", err)
	}
	if s.logg != nil && resp != nil {
		s.logg.Info(s.logg.WithField(ctx, "email_id", resp.Id), "low stock email sent")
	}
	return nil
}

// permanentStatus reports client errors that a retry cannot fix. Rate limits
// and timeouts stay retryable.
func permanentStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusRequestTimeout, http.StatusConflict:
		return false
	}
	return status >= 400 && status < 500
}

type statusKey struct{}

// statusRecorder copies the response status into the *int stored under
// statusKey.
type statusRecorder struct {
	next http.RoundTripper
}

func (t statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if resp != nil {
		if status, ok := req.Context().Value(statusKey{}).(*int); ok {
			*status = resp.StatusCode
		}
	}
	return resp, err
}

// LogSender writes alerts to the log instead of sending them.
type LogSender struct {
	logg   *logger.Logger
	appURL string
}

func NewLogSender(logg *logger.Logger, appURL string) *LogSender {
	return &LogSender{logg: logg, appURL: appURL}
}

func (s *LogSender) SendLowStock(ctx context.Context, email LowStockEmail) error {
	if s.logg == nil {
		return nil
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"to":            email.To,
		"subject":       email.Subject(),
		"current_stock": email.CurrentStock,
		"threshold":     email.Threshold,
	})
	s.logg.Info(ctx, "low stock email (log only)")
	return nil
}
