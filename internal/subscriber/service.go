package subscriber

import (
	"context"
	"fmt"
	"log/slog"
)

// Reply texts for the lifecycle commands.
const (
	welcomeText       = "Welcome to Pravaha AI! You'll now receive real-time market announcement analysis directly here. To stop receiving updates, send /stop."
	farewellText      = "You've been unsubscribed from Pravaha AI updates. You can resubscribe anytime by sending /start."
	notSubscribedText = "You were not subscribed to updates. Send /start to subscribe."
	helpText          = "I'm Pravaha AI's notification bot. Send /start to subscribe to market updates or /stop to unsubscribe."
)

// Service implements the subscriber lifecycle. Both operations are
// idempotent: re-subscribing refreshes the profile, unsubscribing an
// unknown channel is a no-op.
type Service struct {
	store  Store
	sender Sender
	logger *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates the subscriber lifecycle service. sender may be nil
// when push is disabled; lifecycle replies are then skipped.
func NewService(store Store, sender Sender, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("subscriber store is required")
	}
	s := &Service{store: store, sender: sender, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Subscribe opts the channel in and refreshes its profile.
func (s *Service) Subscribe(ctx context.Context, channelID string, profile Profile) error {
	if channelID == "" {
		return fmt.Errorf("channel id is required")
	}
	if err := s.store.Upsert(ctx, &Subscriber{ChannelID: channelID, Profile: profile}); err != nil {
		return fmt.Errorf("subscribe %s: %w", channelID, err)
	}
	s.logger.Info("subscriber opted in", "channel_id", channelID)
	s.reply(ctx, channelID, welcomeText)
	return nil
}

// Unsubscribe opts the channel out. Unknown channels are a no-op.
func (s *Service) Unsubscribe(ctx context.Context, channelID string) error {
	if channelID == "" {
		return fmt.Errorf("channel id is required")
	}
	deleted, err := s.store.Delete(ctx, channelID)
	if err != nil {
		return fmt.Errorf("unsubscribe %s: %w", channelID, err)
	}
	if deleted {
		s.logger.Info("subscriber opted out", "channel_id", channelID)
		s.reply(ctx, channelID, farewellText)
	} else {
		s.reply(ctx, channelID, notSubscribedText)
	}
	return nil
}

// HandleCommand routes one inbound chat message.
func (s *Service) HandleCommand(ctx context.Context, channelID, text string, profile Profile) error {
	switch text {
	case "/start":
		return s.Subscribe(ctx, channelID, profile)
	case "/stop":
		return s.Unsubscribe(ctx, channelID)
	default:
		s.reply(ctx, channelID, helpText)
		return nil
	}
}

// reply is best-effort; a failed reply never fails the lifecycle change.
func (s *Service) reply(ctx context.Context, channelID, text string) {
	if s.sender == nil {
		return
	}
	if err := s.sender.Send(ctx, channelID, CleanMarkdownV2(text)); err != nil {
		s.logger.Warn("lifecycle reply failed", "channel_id", channelID, "error", err)
	}
}
