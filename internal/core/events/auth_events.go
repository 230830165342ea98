package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserSignedUp           = "user.signed_up"
	EventTypeUserSignedIn           = "user.signed_in"
	EventTypeUserSignedOut          = "user.signed_out"
	EventTypePasswordResetRequested = "password_reset.requested"
	EventTypePasswordResetCompleted = "password_reset.completed"
	EventTypePermissionsUpdated     = "user.permissions_updated"
)

// AllAuthEventTypes lists the event types emitted by the session and reset services.
func AllAuthEventTypes() []string {
	return []string{
		EventTypeUserSignedUp,
		EventTypeUserSignedIn,
		EventTypeUserSignedOut,
		EventTypePasswordResetRequested,
		EventTypePasswordResetCompleted,
		EventTypePermissionsUpdated,
	}
}

// UserEvent is emitted for lifecycle changes of a principal. It never carries
// credentials or reset tokens.
type UserEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

func NewUserEvent(eventType, userID string, data map[string]interface{}) *UserEvent {
	payload := map[string]interface{}{"user_id": userID}
	for k, v := range data {
		payload[k] = v
	}
	return &UserEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      payload,
		},
		UserID: userID,
	}
}
