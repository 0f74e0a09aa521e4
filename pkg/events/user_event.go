package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// User lifecycle event types, also used as the AMQP message type.
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"
)

// UserEvent is the JSON payload put on the RabbitMQ queue after a user mutation.
type UserEvent struct {
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewUserEvent(eventType string, userID int64, email string) UserEvent {
	return UserEvent{Type: eventType, UserID: userID, Email: email, OccurredAt: time.Now().UTC()}
}

// Decode parses a queued payload and rejects unknown event types.
func Decode(body []byte) (UserEvent, error) {
	var ev UserEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return UserEvent{}, err
	}
	switch ev.Type {
	case UserCreated, UserUpdated, UserDeleted:
	default:
		return UserEvent{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.UserID <= 0 {
		return UserEvent{}, fmt.Errorf("event %s without user id", ev.Type)
	}
	return ev, nil
}
