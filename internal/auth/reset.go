package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	errs "github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/core/events"
	"github.com/frahmantamala/storefront/internal/mailer"
	"github.com/frahmantamala/storefront/pkg/logger"
)

// Notifier accepts a message for best-effort delivery.
type Notifier interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type ResetServiceAPI interface {
	RequestReset(ctx context.Context, dto RequestResetDTO) (*MessageResponse, error)
	CompleteReset(ctx context.Context, dto ResetPasswordDTO) (*User, string, error)
}

type ResetConfig struct {
	FrontendURL string
	SignOff     string
	// Grace accepts tokens up to this long past their stored expiry.
	Grace time.Duration
}

// ResetService runs the two-phase password reset handshake.
type ResetService struct {
	users     UserRepository
	hasher    PasswordHasher
	tokens    TokenGenerator
	notifier  Notifier
	publisher events.Publisher
	cfg       ResetConfig
	now       func() time.Time
	logger    *slog.Logger

	// OnNotifyFailure, when set, is called after a reset email could not be handed off.
	OnNotifyFailure func()
}

func NewResetService(users UserRepository, hasher PasswordHasher, tokens TokenGenerator, notifier Notifier, publisher events.Publisher, cfg ResetConfig, logger *slog.Logger) *ResetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResetService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		notifier:  notifier,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the time source used for the expiry cutoff.
func (s *ResetService) WithClock(now func() time.Time) *ResetService {
	s.now = now
	return s
}

// RequestReset stores a fresh reset token on the principal and mails the link.
//
// An unknown email fails with NotFound, which lets callers probe for registered
// addresses. Delivery is best effort: the token stays valid when the hand-off fails.
func (s *ResetService) RequestReset(ctx context.Context, dto RequestResetDTO) (*MessageResponse, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, s.upstream(ctx, "reset request: failed to load user", err)
	}

	token, err := s.tokens.GenerateResetToken()
	if err != nil {
		return nil, errs.NewInternalError("failed to generate reset token", err)
	}

	if err := s.users.SetResetToken(ctx, user.ID, token.Value, token.ExpiresAt); err != nil {
		return nil, s.upstream(ctx, "reset request: failed to store token", err)
	}

	s.notify(ctx, user, token.Value)
	s.publish(ctx, events.NewUserEvent(events.EventTypePasswordResetRequested, user.ID, map[string]interface{}{
		"expires_at": token.ExpiresAt,
	}))

	return &MessageResponse{Message: "Thanks!"}, nil
}

// CompleteReset consumes a reset token, sets the new password and signs the principal in.
// Sessions issued before the reset remain valid until their own expiry.
func (s *ResetService) CompleteReset(ctx context.Context, dto ResetPasswordDTO) (*User, string, error) {
	if err := dto.Validate(); err != nil {
		return nil, "", err
	}

	cutoff := s.now().Add(-s.cfg.Grace)
	if _, err := s.users.FindByResetToken(ctx, dto.ResetToken, cutoff); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.InfoContext(ctx, "reset rejected: token invalid or expired")
			return nil, "", errs.ErrInvalidOrExpiredToken
		}
		return nil, "", s.upstream(ctx, "reset completion: failed to look up token", err)
	}

	// the lookup only avoids hashing for dead tokens; consumption below is still conditional
	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, "", errs.NewInternalError("failed to secure password", err)
	}

	user, err := s.users.ConsumeResetToken(ctx, dto.ResetToken, cutoff, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.InfoContext(ctx, "reset rejected: token invalid or expired")
			return nil, "", errs.ErrInvalidOrExpiredToken
		}
		return nil, "", s.upstream(ctx, "reset completion: failed to consume token", err)
	}

	session, err := s.tokens.SignSession(user.ID)
	if err != nil {
		return nil, "", errs.NewInternalError("failed to issue session", err)
	}

	s.logger.InfoContext(ctx, "password reset completed", "user_id", user.ID)
	s.publish(ctx, events.NewUserEvent(events.EventTypePasswordResetCompleted, user.ID, nil))
	return user, session, nil
}

func (s *ResetService) notify(ctx context.Context, user *User, token string) {
	link, err := mailer.ResetLink(s.cfg.FrontendURL, token)
	if err != nil {
		s.notifyFailed(ctx, user, err)
		return
	}
	body, err := mailer.RenderResetEmail(link, s.cfg.SignOff)
	if err != nil {
		s.notifyFailed(ctx, user, err)
		return
	}

	msg := mailer.Message{To: user.Email, Subject: mailer.ResetSubject, HTMLBody: body}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.notifyFailed(ctx, user, err)
	}
}

func (s *ResetService) notifyFailed(ctx context.Context, user *User, err error) {
	s.logger.WarnContext(ctx, "reset email not dispatched; token remains valid", "user_id", user.ID, "error", err)
	if s.OnNotifyFailure != nil {
		s.OnNotifyFailure()
	}
}

func (s *ResetService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func (s *ResetService) upstream(ctx context.Context, msg string, err error) error {
	logger.LogError(s.logger, msg, err, "request_principal", errs.PrincipalIDFromContext(ctx))
	return errs.NewUpstreamError("The service is temporarily unavailable", err)
}
