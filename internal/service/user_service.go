package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/account-service/internal/directory"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// UserService wraps directory administration. Its routes are admin-gated
// by the router, so the service itself does not re-check roles except
// where a requested role value must be validated.
type UserService struct {
	directory  directory.Directory
	dispatcher events.Dispatcher
}

// NewUserService builds the service.
func NewUserService(dir directory.Directory, dispatcher events.Dispatcher) *UserService {
	return &UserService{directory: dir, dispatcher: dispatcher}
}

// UpdateParams carries a partial identity update; nil fields are left
// untouched.
type UpdateParams struct {
	Name     *string
	Email    *string
	Role     *domain.Role
	IsActive *bool
}

// List returns a page of identities, optionally filtered by name.
func (s *UserService) List(ctx context.Context, page int, search string) ([]domain.Identity, int, error) {
	identities, total, err := s.directory.List(ctx, directory.ListFilter{Page: page, Search: search})
	if err != nil {
		return nil, 0, apperrors.NewInternalError(err)
	}
	return identities, total, nil
}

// ListOthers returns a page of identities excluding the caller.
func (s *UserService) ListOthers(ctx context.Context, actorID string, page int, search string) ([]domain.Identity, int, error) {
	identities, total, err := s.directory.List(ctx, directory.ListFilter{Page: page, Search: search, ExcludeID: actorID})
	if err != nil {
		return nil, 0, apperrors.NewInternalError(err)
	}
	return identities, total, nil
}

// Get returns a single identity.
func (s *UserService) Get(ctx context.Context, id string) (*domain.Identity, error) {
	identity, err := s.directory.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return identity, nil
}

// Create adds an identity on behalf of an administrator. Unlike signup
// there is no escalation guard: the route gating already guarantees an
// administrator actor.
func (s *UserService) Create(ctx context.Context, actor *domain.Identity, name, email, password string, role domain.Role) (*domain.Identity, error) {
	if role == "" {
		role = domain.RoleSales
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", nil)
	}

	email = strings.TrimSpace(email)
	taken, err := s.directory.EmailTaken(ctx, email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if taken {
		return nil, apperrors.NewConflict("email already in use", nil)
	}

	identity := &domain.Identity{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Role:     role,
		IsActive: true,
	}
	if err := s.directory.Create(ctx, identity, password); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventIdentityCreated,
		SubjectID: identity.ID,
		Email:     identity.Email,
		ActorID:   actorID(actor),
	})
	return identity, nil
}

// Update applies a partial change to an identity. Deactivation takes
// effect on the target's next request: the authentication gate reads the
// live record. Role changes likewise apply on lookup, while any role
// snapshot inside an outstanding token stays as issued.
func (s *UserService) Update(ctx context.Context, actor *domain.Identity, id string, params UpdateParams) (*domain.Identity, error) {
	identity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		identity.Name = strings.TrimSpace(*params.Name)
	}
	if params.Email != nil {
		email := strings.TrimSpace(*params.Email)
		if email != identity.Email {
			taken, err := s.directory.EmailTaken(ctx, email)
			if err != nil {
				return nil, apperrors.NewInternalError(err)
			}
			if taken {
				return nil, apperrors.NewConflict("email already in use", nil)
			}
			identity.Email = email
		}
	}
	if params.Role != nil {
		if !params.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", nil)
		}
		identity.Role = *params.Role
	}
	if params.IsActive != nil {
		identity.IsActive = *params.IsActive
	}

	if err := s.directory.Update(ctx, identity); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventIdentityUpdated,
		SubjectID: identity.ID,
		Email:     identity.Email,
		ActorID:   actorID(actor),
	})
	return identity, nil
}

// Delete removes an identity.
func (s *UserService) Delete(ctx context.Context, actor *domain.Identity, id string) error {
	if err := s.directory.Delete(ctx, id); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return apperrors.NewNotFound("user")
		}
		return apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventIdentityDeleted,
		SubjectID: id,
		ActorID:   actorID(actor),
	})
	return nil
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.OccurredAt = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}
