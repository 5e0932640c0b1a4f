package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginLimiterDisabled(t *testing.T) {
	// No client configured: throttling is off, never an error.
	limiter := NewLoginLimiter(nil, 10, time.Minute, nil)
	assert.NoError(t, limiter.Allow(context.Background(), "a@example.com"))

	// Non-positive limit likewise disables the throttle.
	limiter = NewLoginLimiter(nil, 0, time.Minute, nil)
	assert.NoError(t, limiter.Allow(context.Background(), "a@example.com"))

	var nilLimiter *LoginLimiter
	assert.NoError(t, nilLimiter.Allow(context.Background(), "a@example.com"))
}
