package events

import "time"

// EventType labels audit events emitted by the auth flows.
type EventType string

const (
	EventIdentityCreated EventType = "identity.created"
	EventIdentityUpdated EventType = "identity.updated"
	EventIdentityDeleted EventType = "identity.deleted"
	EventLoginSucceeded  EventType = "login.succeeded"
	EventLoginFailed     EventType = "login.failed"
	EventPasswordChanged EventType = "password.changed"
)

// Event is an audit record. SubjectID may be empty for failures where no
// identity was resolved (failed logins record the attempted email only).
type Event struct {
	Type       EventType
	SubjectID  string
	Email      string
	ActorID    string
	Reason     string
	OccurredAt time.Time
}
