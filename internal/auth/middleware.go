package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/directory"
	"github.com/spec-kit/account-service/internal/domain"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

const identityKey = "auth_identity"

// Gate authenticates requests: it extracts a bearer token, verifies it,
// loads the referenced identity from the directory and attaches the live
// record to the request. The checks run in a fixed order and the first
// failure wins; gates never write the HTTP response themselves.
type Gate struct {
	tokens    *TokenManager
	directory directory.Directory
}

// NewGate constructs the authentication gate.
func NewGate(tokens *TokenManager, dir directory.Directory) *Gate {
	return &Gate{tokens: tokens, directory: dir}
}

// Handle enforces authentication for protected routes.
func (g *Gate) Handle(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return err
	}
	identity, err := g.resolve(c, token)
	if err != nil {
		return err
	}
	c.Locals(identityKey, identity)
	return c.Next()
}

// OptionalHandle attaches an identity when a bearer token is presented
// but lets anonymous requests through. A presented token is still held
// to the full check ordering: offering credentials means they get
// verified.
func (g *Gate) OptionalHandle(c *fiber.Ctx) error {
	if c.Get(fiber.HeaderAuthorization) == "" {
		return c.Next()
	}
	return g.Handle(c)
}

func (g *Gate) resolve(c *fiber.Ctx, token string) (*domain.Identity, error) {
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized(apperrors.CodeInvalidToken, "invalid token")
	}

	identity, err := g.directory.FindByID(c.Context(), claims.SubjectID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, apperrors.NewUnauthorized(apperrors.CodeUnknownIdentity, "user not found")
		}
		return nil, apperrors.NewInternalError(err)
	}

	if !identity.IsActive {
		return nil, apperrors.NewUnauthorized(apperrors.CodeAccountDisabled, "user account is disabled")
	}
	return identity, nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", apperrors.NewUnauthorized(apperrors.CodeNoToken, "missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", apperrors.NewUnauthorized(apperrors.CodeNoToken, "invalid authorization header")
	}
	return parts[1], nil
}

// IdentityFromContext retrieves the identity attached by the gate.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}
