package http_test

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/account-service/internal/api/http"
	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/directory"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/service"
)

// fakeDirectory is an in-memory Directory for transport tests.
type fakeDirectory struct {
	identities  map[string]*domain.IdentityWithCredential
	createCalls int
	failWith    error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{identities: map[string]*domain.IdentityWithCredential{}}
}

func (f *fakeDirectory) add(identity domain.Identity, password string) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	f.identities[identity.ID] = &domain.IdentityWithCredential{Identity: identity, PasswordHash: string(hash)}
}

func (f *fakeDirectory) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	record, ok := f.identities[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	identity := record.Identity
	return &identity, nil
}

func (f *fakeDirectory) FindByEmailWithCredential(_ context.Context, email string) (*domain.IdentityWithCredential, error) {
	for _, record := range f.identities {
		if record.Email == email {
			clone := *record
			return &clone, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (f *fakeDirectory) FindByIDWithCredential(_ context.Context, id string) (*domain.IdentityWithCredential, error) {
	record, ok := f.identities[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (f *fakeDirectory) EmailTaken(_ context.Context, email string) (bool, error) {
	for _, record := range f.identities {
		if record.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDirectory) Create(_ context.Context, identity *domain.Identity, password string) error {
	f.createCalls++
	if identity.ID == "" {
		identity.ID = "generated-" + identity.Email
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	f.identities[identity.ID] = &domain.IdentityWithCredential{Identity: *identity, PasswordHash: string(hash)}
	return nil
}

func (f *fakeDirectory) Update(_ context.Context, identity *domain.Identity) error {
	record, ok := f.identities[identity.ID]
	if !ok {
		return directory.ErrNotFound
	}
	record.Identity = *identity
	return nil
}

func (f *fakeDirectory) UpdatePassword(_ context.Context, id, password string) error {
	record, ok := f.identities[id]
	if !ok {
		return directory.ErrNotFound
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	record.PasswordHash = string(hash)
	return nil
}

func (f *fakeDirectory) Delete(_ context.Context, id string) error {
	if _, ok := f.identities[id]; !ok {
		return directory.ErrNotFound
	}
	delete(f.identities, id)
	return nil
}

func (f *fakeDirectory) List(_ context.Context, filter directory.ListFilter) ([]domain.Identity, int, error) {
	out := []domain.Identity{}
	for _, record := range f.identities {
		if filter.ExcludeID != "" && record.ID == filter.ExcludeID {
			continue
		}
		out = append(out, record.Identity)
	}
	return out, len(out), nil
}

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, resp *nethttp.Response) errorEnvelope {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var envelope errorEnvelope
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

func newTestApp(t *testing.T, dir *fakeDirectory, tokens *auth.TokenManager) *fiber.App {
	t.Helper()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), nil, 0)

	gate := auth.NewGate(tokens, dir)
	authService := service.NewAuthService(dir, tokens, nil, nil)
	authHandler := handlers.NewAuthHandler(authService)

	api := app.Group("/api")
	authGroup := api.Group("/auth")
	authGroup.Post("/signup", gate.OptionalHandle, authHandler.Signup)
	authGroup.Get("/me", gate.Handle, auth.RequireRole(), authHandler.Me)

	admin := api.Group("/admin", gate.Handle, auth.AdminOnly())
	admin.Get("/ping", func(c *fiber.Ctx) error {
		identity, _ := auth.IdentityFromContext(c)
		return c.JSON(fiber.Map{"success": true, "data": identity.Email})
	})

	// Route with the role check but no authentication gate, to prove
	// the check refuses to assume public access.
	app.Get("/miswired", auth.AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendString("unreachable")
	})

	return app
}

func seededApp(t *testing.T) (*fiber.App, *fakeDirectory, *auth.TokenManager) {
	t.Helper()
	dir := newFakeDirectory()
	dir.add(domain.Identity{ID: "admin-1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleAdministrator, IsActive: true}, "password1")
	dir.add(domain.Identity{ID: "sales-1", Name: "Sam", Email: "sam@example.com", Role: domain.RoleSales, IsActive: true}, "password2")
	dir.add(domain.Identity{ID: "gone-1", Name: "Dee", Email: "dee@example.com", Role: domain.RoleSales, IsActive: false}, "password3")

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return newTestApp(t, dir, tokens), dir, tokens
}

func get(t *testing.T, app *fiber.App, path, token string) *nethttp.Response {
	t.Helper()
	req := httptest.NewRequest(nethttp.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestGateMissingHeaderPreemptsRoleCheck(t *testing.T) {
	app, _, _ := seededApp(t)

	// Admin-gated route, no header: authentication failure must win.
	resp := get(t, app, "/api/admin/ping", "")
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	envelope := decodeError(t, resp)
	assert.False(t, envelope.Success)
	assert.Equal(t, "NO_TOKEN", envelope.Error.Code)
}

func TestGateWrongScheme(t *testing.T) {
	app, _, _ := seededApp(t)

	req := httptest.NewRequest(nethttp.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "NO_TOKEN", decodeError(t, resp).Error.Code)
}

func TestGateInvalidToken(t *testing.T) {
	app, _, _ := seededApp(t)

	resp := get(t, app, "/api/auth/me", "not.a.token")
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", decodeError(t, resp).Error.Code)
}

func TestGateExpiredToken(t *testing.T) {
	app, _, _ := seededApp(t)

	claims := jwt.MapClaims{
		"sub":  "admin-1",
		"role": string(domain.RoleAdministrator),
		"iat":  time.Now().Add(-2 * time.Hour).Unix(),
		"exp":  time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	resp := get(t, app, "/api/auth/me", token)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", decodeError(t, resp).Error.Code)
}

func TestGateUnknownIdentity(t *testing.T) {
	app, _, tokens := seededApp(t)

	token, _, err := tokens.Issue("missing-1", domain.RoleSales)
	require.NoError(t, err)

	resp := get(t, app, "/api/auth/me", token)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNKNOWN_IDENTITY", decodeError(t, resp).Error.Code)
}

func TestGateDisabledAccount(t *testing.T) {
	app, _, tokens := seededApp(t)

	// Valid unexpired token for a deactivated identity.
	token, _, err := tokens.Issue("gone-1", domain.RoleSales)
	require.NoError(t, err)

	resp := get(t, app, "/api/auth/me", token)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "ACCOUNT_DISABLED", decodeError(t, resp).Error.Code)
}

func TestGateAttachesLiveRecord(t *testing.T) {
	app, _, tokens := seededApp(t)

	token, _, err := tokens.Issue("admin-1", domain.RoleAdministrator)
	require.NoError(t, err)

	resp := get(t, app, "/api/admin/ping", token)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "ada@example.com"))
}

func TestRoleGate(t *testing.T) {
	app, _, tokens := seededApp(t)

	salesToken, _, err := tokens.Issue("sales-1", domain.RoleSales)
	require.NoError(t, err)
	resp := get(t, app, "/api/admin/ping", salesToken)
	assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Error.Code)

	adminToken, _, err := tokens.Issue("admin-1", domain.RoleAdministrator)
	require.NoError(t, err)
	resp = get(t, app, "/api/admin/ping", adminToken)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}

func TestRoleGateWithoutAuthGate(t *testing.T) {
	app, _, _ := seededApp(t)

	resp := get(t, app, "/miswired", "")
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "NOT_AUTHENTICATED", decodeError(t, resp).Error.Code)
}

func TestSignupElevationOverHTTP(t *testing.T) {
	app, dir, tokens := seededApp(t)

	body := `{"name":"Eve","email":"eve@example.com","password":"secret1","role":"ADMINISTRATOR"}`

	// Unauthenticated elevated signup: rejected, nothing created.
	req := httptest.NewRequest(nethttp.MethodPost, "/api/auth/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Error.Code)
	assert.Zero(t, dir.createCalls)

	// Same request from an authenticated administrator succeeds.
	adminToken, _, err := tokens.Issue("admin-1", domain.RoleAdministrator)
	require.NoError(t, err)
	req = httptest.NewRequest(nethttp.MethodPost, "/api/auth/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, dir.createCalls)
}

func TestSignupInvalidTokenOnOptionalGate(t *testing.T) {
	app, dir, _ := seededApp(t)

	body := `{"name":"Eve","email":"eve@example.com","password":"secret1"}`
	req := httptest.NewRequest(nethttp.MethodPost, "/api/auth/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := app.Test(req)
	require.NoError(t, err)

	// Presented credentials are checked even on the optional gate.
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", decodeError(t, resp).Error.Code)
	assert.Zero(t, dir.createCalls)
}
