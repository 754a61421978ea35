package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/config"
	"github.com/spec-kit/incident-service/internal/events"
)

// NotificationService handles emitting notifications for domain events and
// doubles as the development mailer.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to incident events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventIncidentCreated, n.handleIncidentCreated)
	n.dispatcher.Subscribe(events.EventIncidentClaimed, n.handleLifecycleEvent)
	n.dispatcher.Subscribe(events.EventIncidentResolved, n.handleLifecycleEvent)
	n.dispatcher.Subscribe(events.EventIncidentUpdated, n.handleIncidentUpdated)
	n.dispatcher.Subscribe(events.EventIncidentDeleted, n.handleLifecycleEvent)
}

func (n *NotificationService) handleIncidentCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("IncidentCreated", zap.String("incident_id", event.IncidentID), zap.Any("payload", event.Payload))
	if snapshot, ok := event.Payload.(events.IncidentSnapshot); ok && snapshot.IsEmergency {
		n.sendWebhookNotificationStub(ctx, event)
	}
	return nil
}

func (n *NotificationService) handleLifecycleEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("IncidentLifecycle",
		zap.String("event_type", string(event.Type)),
		zap.String("incident_id", event.IncidentID),
		zap.String("staff_id", event.Actor.StaffID),
	)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleIncidentUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.IncidentUpdatedPayload)
	if ok && payload.TouchedLifecycle {
		n.logger.Warn("IncidentUpdated", zap.String("incident_id", event.IncidentID), zap.Strings("fields", payload.Fields))
		n.sendWebhookNotificationStub(ctx, event)
		return nil
	}
	n.logger.Info("IncidentUpdated", zap.String("incident_id", event.IncidentID))
	return nil
}

// SendPasswordReset logs the reset mail instead of delivering it.
func (n *NotificationService) SendPasswordReset(_ context.Context, to, resetURL string) error {
	n.logger.Info("sendPasswordResetStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("subject", "Reset your password"),
		zap.String("body", "Reset link: "+resetURL),
	)
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("incident_id", event.IncidentID),
		zap.String("event_type", string(event.Type)))
}
