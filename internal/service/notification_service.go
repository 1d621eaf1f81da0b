package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/config"
	"github.com/spec-kit/identity-service/internal/events"
)

// NotificationService is the outbound notifier boundary. It subscribes to
// identity events and hands reset/verification links off for delivery;
// delivery mechanics themselves are stubbed.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAccountRegistered, n.handleAccountRegistered)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
	n.dispatcher.Subscribe(events.EventEmailVerificationRequested, n.handleEmailVerificationRequested)
}

func (n *NotificationService) handleAccountRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("AccountRegistered", zap.Int64("account_id", event.AccountID))
	return nil
}

func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		return nil
	}
	link := n.cfg.FrontendURL + "/reset-password?token=" + payload.Token
	n.sendEmailStub(ctx, event.Email, "password reset", link)
	return nil
}

func (n *NotificationService) handleEmailVerificationRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.EmailVerificationRequestedPayload)
	if !ok {
		return nil
	}
	link := n.cfg.FrontendURL + "/verify-email?token=" + payload.Token
	n.sendEmailStub(ctx, event.Email, "email verification", link)
	return nil
}

func (n *NotificationService) sendEmailStub(_ context.Context, to, subject, link string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("link", link))
}
