package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/directory"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// loginFailedMessage is returned for both unknown emails and wrong
// passwords so that responses cannot be used to enumerate accounts.
const loginFailedMessage = "invalid credentials"

// AuthService coordinates signup, login and password flows.
type AuthService struct {
	directory  directory.Directory
	tokens     *auth.TokenManager
	limiter    *LoginLimiter
	dispatcher events.Dispatcher
}

// NewAuthService builds the service. The limiter may be nil when login
// throttling is disabled.
func NewAuthService(dir directory.Directory, tokens *auth.TokenManager, limiter *LoginLimiter, dispatcher events.Dispatcher) *AuthService {
	return &AuthService{directory: dir, tokens: tokens, limiter: limiter, dispatcher: dispatcher}
}

// Signup creates a new identity and issues its first token. The actor is
// the already-authenticated caller, if any; it is consulted only when an
// elevated role is requested. Check order is fixed: role defaulting,
// then the escalation guard, then duplicate email. A request that
// violates both rules reports the role violation.
func (s *AuthService) Signup(ctx context.Context, actor *domain.Identity, name, email, password string, role domain.Role) (*domain.Identity, string, time.Time, error) {
	if role == "" {
		role = domain.RoleSales
	}
	if !role.Valid() {
		return nil, "", time.Time{}, apperrors.NewValidationError("invalid role", nil)
	}

	if role == domain.RoleAdministrator {
		if actor == nil || actor.Role != domain.RoleAdministrator {
			return nil, "", time.Time{}, apperrors.NewForbidden("not authorized to create admin users")
		}
	}

	email = strings.TrimSpace(email)
	taken, err := s.directory.EmailTaken(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	if taken {
		return nil, "", time.Time{}, apperrors.NewConflict("email already in use", nil)
	}

	identity := &domain.Identity{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Role:     role,
		IsActive: true,
	}
	if err := s.directory.Create(ctx, identity, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	token, expiresAt, err := s.tokens.Issue(identity.ID, identity.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventIdentityCreated,
		SubjectID: identity.ID,
		Email:     identity.Email,
		ActorID:   actorID(actor),
	})
	return identity, token, expiresAt, nil
}

// Login verifies credentials and issues a token carrying the identity's
// current role as a snapshot.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Identity, string, time.Time, error) {
	email = strings.TrimSpace(email)
	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, email); err != nil {
			return nil, "", time.Time{}, err
		}
	}

	record, err := s.directory.FindByEmailWithCredential(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			s.publishLoginFailed(ctx, email, "unknown email")
			return nil, "", time.Time{}, apperrors.NewUnauthorized(apperrors.CodeInvalidCredentials, loginFailedMessage)
		}
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	if !record.IsActive {
		s.publishLoginFailed(ctx, email, "account disabled")
		return nil, "", time.Time{}, apperrors.NewUnauthorized(apperrors.CodeAccountDisabled, "account is disabled")
	}

	if !directory.VerifyCredential(record, password) {
		s.publishLoginFailed(ctx, email, "password mismatch")
		return nil, "", time.Time{}, apperrors.NewUnauthorized(apperrors.CodeInvalidCredentials, loginFailedMessage)
	}

	token, expiresAt, err := s.tokens.Issue(record.ID, record.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventLoginSucceeded,
		SubjectID: record.ID,
		Email:     record.Email,
	})
	identity := record.Identity
	return &identity, token, expiresAt, nil
}

// ChangePassword verifies the caller's current password before storing a
// new hash.
func (s *AuthService) ChangePassword(ctx context.Context, subjectID, currentPassword, newPassword string) error {
	record, err := s.directory.FindByIDWithCredential(ctx, subjectID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return apperrors.NewUnauthorized(apperrors.CodeUnknownIdentity, "user not found")
		}
		return apperrors.NewInternalError(err)
	}
	if !directory.VerifyCredential(record, currentPassword) {
		return apperrors.NewValidationError("current password is incorrect", nil)
	}
	if err := s.directory.UpdatePassword(ctx, subjectID, newPassword); err != nil {
		return apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventPasswordChanged,
		SubjectID: record.ID,
		Email:     record.Email,
	})
	return nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.OccurredAt = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *AuthService) publishLoginFailed(ctx context.Context, email, reason string) {
	s.publish(ctx, events.Event{Type: events.EventLoginFailed, Email: email, Reason: reason})
}

func actorID(actor *domain.Identity) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}
