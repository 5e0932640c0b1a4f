package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewUnauthorized(CodeNoToken, "missing authorization header"), CodeNoToken, http.StatusUnauthorized},
		{NewUnauthorized(CodeInvalidToken, "invalid token"), CodeInvalidToken, http.StatusUnauthorized},
		{NewUnauthorized(CodeUnknownIdentity, "user not found"), CodeUnknownIdentity, http.StatusUnauthorized},
		{NewUnauthorized(CodeAccountDisabled, "user account is disabled"), CodeAccountDisabled, http.StatusUnauthorized},
		{NewUnauthorized(CodeNotAuthenticated, "not authenticated"), CodeNotAuthenticated, http.StatusUnauthorized},
		{NewForbidden("nope"), CodeForbidden, http.StatusForbidden},
		{NewConflict("email already in use", nil), CodeConflict, http.StatusConflict},
		{NewRateLimited("slow down"), CodeRateLimited, http.StatusTooManyRequests},
		{NewNotFound("user"), CodeNotFound, http.StatusNotFound},
		{NewInternalError(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			domainErr := ToDomainError(tc.err)
			assert.Equal(t, tc.code, domainErr.Code)
			assert.Equal(t, tc.status, domainErr.HTTPStatus)
		})
	}
}

func TestToDomainErrorUntyped(t *testing.T) {
	domainErr := ToDomainError(errors.New("directory unreachable"))
	require.NotNil(t, domainErr)
	assert.Equal(t, CodeInternal, domainErr.Code)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)
	// Opaque message; the cause stays wrapped for server-side logs.
	assert.Equal(t, "internal server error", domainErr.Message)
	assert.ErrorContains(t, domainErr.Unwrap(), "directory unreachable")
}

func TestToDomainErrorUnwrapsWrapped(t *testing.T) {
	wrapped := fmt.Errorf("gate: %w", NewForbidden("nope"))
	domainErr := ToDomainError(wrapped)
	assert.Equal(t, CodeForbidden, domainErr.Code)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeForbidden, CodeOf(NewForbidden("nope")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("anything")))
}
