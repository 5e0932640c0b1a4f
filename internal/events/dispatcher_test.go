package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherInvokesSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var seen []EventType
	dispatcher.Subscribe(EventLoginFailed, func(_ context.Context, event Event) error {
		seen = append(seen, event.Type)
		return nil
	})
	dispatcher.Subscribe(EventLoginSucceeded, func(_ context.Context, event Event) error {
		seen = append(seen, event.Type)
		return nil
	})

	assert.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventLoginFailed, Email: "a@example.com"}))
	assert.Equal(t, []EventType{EventLoginFailed}, seen)
}

func TestDispatcherHandlerErrorDoesNotStopOthers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	calls := 0
	dispatcher.Subscribe(EventIdentityCreated, func(context.Context, Event) error {
		calls++
		return errors.New("sink down")
	})
	dispatcher.Subscribe(EventIdentityCreated, func(context.Context, Event) error {
		calls++
		return nil
	})

	assert.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventIdentityCreated}))
	assert.Equal(t, 2, calls)
}

func TestDispatcherUnsubscribedTypeIsNoop(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	assert.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventPasswordChanged}))
}
