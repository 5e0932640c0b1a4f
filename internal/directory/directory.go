package directory

import (
	"context"
	"errors"

	"github.com/spec-kit/account-service/internal/domain"
)

// ErrNotFound is returned when no identity matches the lookup. Callers
// must treat it separately from transport failures: a miss is an
// authentication outcome, a transport failure is not.
var ErrNotFound = errors.New("identity not found")

// DefaultPageSize bounds List results.
const DefaultPageSize = 20

// ListFilter narrows a List call.
type ListFilter struct {
	Page      int
	Search    string
	ExcludeID string
}

// Directory resolves and mutates identities. It is the only component
// that ever sees credential material: lookups return the public
// projection unless the caller explicitly asks for the credential-bearing
// one.
type Directory interface {
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	FindByEmailWithCredential(ctx context.Context, email string) (*domain.IdentityWithCredential, error)
	FindByIDWithCredential(ctx context.Context, id string) (*domain.IdentityWithCredential, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, identity *domain.Identity, password string) error
	Update(ctx context.Context, identity *domain.Identity) error
	UpdatePassword(ctx context.Context, id, password string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Identity, int, error)
}
