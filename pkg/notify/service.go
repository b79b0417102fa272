// Package notify delivers one-time verification codes.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var ErrDeliveryFailed = errors.New("code delivery failed")

// Dispatcher sends code to destination (a phone number or email address).
type Dispatcher interface {
	Send(ctx context.Context, destination, code string) error
}

type SMSConfig struct {
	BaseURL             string
	AccountSID          string
	AuthToken           string
	MessagingServiceSID string
	Timeout             time.Duration
}

// SMSGateway posts messages to a Twilio-compatible REST endpoint.
type SMSGateway struct {
	httpClient *resty.Client
	cfg        SMSConfig
	logger     *zap.Logger
}

func NewSMSGateway(cfg SMSConfig, logger *zap.Logger) *SMSGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetHeader("Accept", "application/json")

	return &SMSGateway{httpClient: client, cfg: cfg, logger: logger}
}

type smsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (g *SMSGateway) Send(ctx context.Context, destination, code string) error {
	var apiErr smsError
	resp, err := g.httpClient.R().
		SetContext(ctx).
		SetPathParam("sid", g.cfg.AccountSID).
		SetFormData(map[string]string{
			"To":                  destination,
			"MessagingServiceSid": g.cfg.MessagingServiceSID,
			"Body":                fmt.Sprintf("Your OTP is %s", code),
		}).
		SetError(&apiErr).
		Post("/2010-04-01/Accounts/{sid}/Messages.json")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	if resp.IsError() {
		g.logger.Warn("SMS gateway rejected message",
			zap.Int("status", resp.StatusCode()),
			zap.Int("code", apiErr.Code),
			zap.String("message", apiErr.Message),
		)
		return fmt.Errorf("%w: gateway returned %d", ErrDeliveryFailed, resp.StatusCode())
	}
	return nil
}

// LogDispatcher writes codes to the log instead of sending them.
// Used when no SMS gateway is configured.
type LogDispatcher struct {
	Logger *zap.Logger
}

func (d LogDispatcher) Send(_ context.Context, destination, code string) error {
	d.Logger.Info("verification code", zap.String("destination", destination), zap.String("code", code))
	return nil
}

// Async sends in the background so the caller never waits on delivery.
// Failures are only logged.
func Async(d Dispatcher, logger *zap.Logger, timeout time.Duration, destination, code string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := d.Send(ctx, destination, code); err != nil {
			logger.Error("Failed to deliver verification code", zap.String("destination", destination), zap.Error(err))
		}
	}()
}
