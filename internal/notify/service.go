package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/panjf2000/ants/v2"
	"github.com/sweetlabs/sweetshop/config"
	"github.com/sweetlabs/sweetshop/internal/domain"
	"github.com/sweetlabs/sweetshop/internal/ledger"
	"github.com/sweetlabs/sweetshop/internal/notify/channels"
	"go.uber.org/zap"
)

const defaultWorkers = 4

// SettingsSource exposes the runtime toggles controlling which channels
// receive which topics.
type SettingsSource interface {
	GetSettingsBoolValue(category, key string) bool
}

// Service fans inventory events out to the configured notification
// channels through a bounded worker pool.
type Service struct {
	bus      EventBus.Bus
	pool     *ants.Pool
	settings SettingsSource
	email    channels.Channel
	webhook  channels.Channel
}

func NewService(cfg *config.AppConfig, bus EventBus.Bus, settings SettingsSource) (*Service, error) {
	workers := cfg.Notify.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}

	s := &Service{bus: bus, pool: pool, settings: settings}

	if cfg.Mail.Enable {
		s.email = channels.NewEmailChannel(channels.EmailConfig{
			SMTPHost: cfg.Mail.SMTPHost,
			SMTPPort: cfg.Mail.SMTPPort,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			To:       splitRecipients(cfg.Mail.To),
		})
	}
	if cfg.Notify.WebhookEnable && cfg.Notify.WebhookURL != "" {
		s.webhook = channels.NewWebhookChannel(cfg.Notify.WebhookURL)
	}

	return s, nil
}

// Start subscribes the service to the inventory event topics.
func (s *Service) Start() error {
	if err := s.bus.SubscribeAsync(ledger.TopicPurchase, s.onPurchase, false); err != nil {
		return err
	}
	if err := s.bus.SubscribeAsync(ledger.TopicRestock, s.onRestock, false); err != nil {
		return err
	}
	if err := s.bus.SubscribeAsync(ledger.TopicLowStock, s.onLowStock, false); err != nil {
		return err
	}
	zap.L().Info("notification service started",
		zap.Bool("email", s.email != nil),
		zap.Bool("webhook", s.webhook != nil))
	return nil
}

// Stop unsubscribes from the bus and releases the worker pool.
func (s *Service) Stop() {
	_ = s.bus.Unsubscribe(ledger.TopicPurchase, s.onPurchase)
	_ = s.bus.Unsubscribe(ledger.TopicRestock, s.onRestock)
	_ = s.bus.Unsubscribe(ledger.TopicLowStock, s.onLowStock)
	s.pool.Release()
	for _, ch := range []channels.Channel{s.email, s.webhook} {
		if ch != nil {
			_ = ch.Close()
		}
	}
}

func (s *Service) onPurchase(evt ledger.PurchaseEvent) {
	s.dispatch(&channels.Message{
		Topic:   ledger.TopicPurchase,
		Subject: "Sweet purchased",
		Body: fmt.Sprintf("%s: %d sold for %.2f, %d left",
			evt.Sweet.Name, evt.Quantity, evt.TotalPrice, evt.Sweet.Quantity),
		Data:    evt,
	}, false)
}

func (s *Service) onRestock(evt ledger.RestockEvent) {
	s.dispatch(&channels.Message{
		Topic:   ledger.TopicRestock,
		Subject: "Sweet restocked",
		Body: fmt.Sprintf("%s: %d added, now %d in stock",
			evt.Sweet.Name, evt.Quantity, evt.Sweet.Quantity),
		Data:    evt,
	}, false)
}

// onLowStock is the only topic that can reach operators by email.
func (s *Service) onLowStock(sweets []domain.Sweet) {
	if len(sweets) == 0 {
		return
	}
	names := make([]string, 0, len(sweets))
	for _, sw := range sweets {
		names = append(names, fmt.Sprintf("%s (%d left)", sw.Name, sw.Quantity))
	}
	s.dispatch(&channels.Message{
		Topic:   ledger.TopicLowStock,
		Subject: fmt.Sprintf("Low stock alert: %d sweets below threshold", len(sweets)),
		Body:    strings.Join(names, "\n"),
		Data:    sweets,
	}, true)
}

func (s *Service) dispatch(msg *channels.Message, allowEmail bool) {
	targets := make([]channels.Channel, 0, 2)
	if s.webhook != nil && s.settings.GetSettingsBoolValue("inventory", "notify_webhook") {
		targets = append(targets, s.webhook)
	}
	if allowEmail && s.email != nil && s.settings.GetSettingsBoolValue("inventory", "notify_email") {
		targets = append(targets, s.email)
	}

	for _, ch := range targets {
		ch := ch
		err := s.pool.Submit(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := ch.Send(ctx, msg); err != nil {
				zap.L().Warn("notification delivery failed",
					zap.String("channel", ch.Name()),
					zap.String("topic", msg.Topic),
					zap.Error(err))
			}
		})
		if err != nil {
			zap.L().Warn("notification pool rejected task", zap.Error(err))
		}
	}
}

func splitRecipients(to string) []string {
	parts := strings.Split(to, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
