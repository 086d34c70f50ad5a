package models

import "time"

type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// Notification is a transient, user-facing outcome message. The renderer
// shows it as a toast; other sinks log or publish it.
type Notification struct {
	Level         NotificationLevel `json:"level"`
	Message       string            `json:"message"`
	Operation     string            `json:"operation"`
	ApplicationID string            `json:"applicationId,omitempty"`
	At            time.Time         `json:"at"`
}
