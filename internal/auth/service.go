package auth

import (
	"context"
	"errors"
	"log/slog"

	errs "github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/core/events"
	"github.com/frahmantamala/storefront/internal/core/permission"
	"github.com/frahmantamala/storefront/pkg/logger"
)

// ServiceAPI is the session manager as seen by the HTTP handler.
type ServiceAPI interface {
	Signup(ctx context.Context, dto SignupDTO) (*User, string, error)
	Signin(ctx context.Context, dto SigninDTO) (*User, string, error)
	Signout(ctx context.Context)
	CurrentPrincipal(ctx context.Context, token string) (*User, error)
}

// Service is the session manager: it turns credentials into session tokens and back.
type Service struct {
	users     UserRepository
	hasher    PasswordHasher
	tokens    TokenGenerator
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(users UserRepository, hasher PasswordHasher, tokens TokenGenerator, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		publisher: publisher,
		logger:    logger,
	}
}

// Signup registers a principal holding only USER and signs it in.
func (s *Service) Signup(ctx context.Context, dto SignupDTO) (*User, string, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, "", err
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, "", errs.NewInternalError("failed to secure password", err)
	}

	user := &User{
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: hash,
		Permissions:  []permission.Permission{permission.User},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, "", errs.ErrEmailTaken
		}
		return nil, "", s.upstream(ctx, "signup: failed to create user", err)
	}

	token, err := s.tokens.SignSession(user.ID)
	if err != nil {
		return nil, "", errs.NewInternalError("failed to issue session", err)
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	s.publish(ctx, events.NewUserEvent(events.EventTypeUserSignedUp, user.ID, nil))
	return user, token, nil
}

func (s *Service) Signin(ctx context.Context, dto SigninDTO) (*User, string, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, "", err
	}

	user, err := s.users.GetByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", errs.ErrUserNotFound
		}
		return nil, "", s.upstream(ctx, "signin: failed to load user", err)
	}

	ok, err := s.hasher.Verify(dto.Password, user.PasswordHash)
	if err != nil {
		return nil, "", errs.NewInternalError("stored credential is unreadable", err)
	}
	if !ok {
		s.logger.InfoContext(ctx, "signin rejected: wrong password", "user_id", user.ID)
		return nil, "", errs.ErrInvalidCredentials
	}

	token, err := s.tokens.SignSession(user.ID)
	if err != nil {
		return nil, "", errs.NewInternalError("failed to issue session", err)
	}

	s.publish(ctx, events.NewUserEvent(events.EventTypeUserSignedIn, user.ID, nil))
	return user, token, nil
}

// Signout has no server-side state to drop. It only records the event when a
// principal was signed in; anonymous calls are a no-op.
func (s *Service) Signout(ctx context.Context) {
	if user, ok := UserFromContext(ctx); ok {
		s.publish(ctx, events.NewUserEvent(events.EventTypeUserSignedOut, user.ID, nil))
	}
}

// CurrentPrincipal resolves a session token. An empty token, or one naming a
// principal that no longer exists, yields nil without error.
func (s *Service) CurrentPrincipal(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}

	principalID, err := s.tokens.VerifySession(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, s.upstream(ctx, "session: failed to load principal", err)
	}
	return user, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func (s *Service) upstream(ctx context.Context, msg string, err error) error {
	logger.LogError(s.logger, msg, err, "request_principal", errs.PrincipalIDFromContext(ctx))
	return errs.NewUpstreamError("The service is temporarily unavailable", err)
}
