package notify

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies what happened to a resource.
type Kind string

const (
	Acquired  Kind = "acquired"
	Extended  Kind = "extended"
	Released  Kind = "released"
	Exhausted Kind = "exhausted"
)

// Event is a single lifecycle notification for one resource, the unit a
// Bus carries end to end. The Coordinator emits one Event per resource for
// each acquire, extend or release outcome; a failed operation is reported
// with Kind Exhausted and an empty Token.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Resource  string    `json:"resource"`
	Token     string    `json:"token,omitempty"`
	Endpoints int       `json:"endpoints"`
	Quorum    int       `json:"quorum"`
	Votes     int       `json:"votes"`
	At        time.Time `json:"at"`
}

// withID returns ev with a freshly generated ID if it doesn't already have
// one, so dashboard consumers can dedupe retried deliveries. Callers that
// already correlate events by their own ID may set it before publishing.
func (ev Event) withID() Event {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	return ev
}
