package events

import (
	"context"

	"go.uber.org/zap"
)

var auditedTypes = []EventType{
	EventIdentityCreated,
	EventIdentityUpdated,
	EventIdentityDeleted,
	EventLoginSucceeded,
	EventLoginFailed,
	EventPasswordChanged,
}

// RegisterAuditLogger subscribes a structured-log sink for every audit
// event type. Failure reasons stay in server-side logs; clients never
// see them.
func RegisterAuditLogger(dispatcher Dispatcher, logger *zap.Logger) {
	handler := func(_ context.Context, event Event) error {
		logger.Info("audit",
			zap.String("event", string(event.Type)),
			zap.String("subject_id", event.SubjectID),
			zap.String("email", event.Email),
			zap.String("actor_id", event.ActorID),
			zap.String("reason", event.Reason),
			zap.Time("occurred_at", event.OccurredAt),
		)
		return nil
	}
	for _, eventType := range auditedTypes {
		dispatcher.Subscribe(eventType, handler)
	}
}
