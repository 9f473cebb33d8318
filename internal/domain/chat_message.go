package domain

import "time"

// ChatMessage is a transient chat payload. It is broadcast to the
// event's chat room and never persisted.
type ChatMessage struct {
	EventID    EventID  `json:"eventid"`
	UserID     UserID   `json:"userid"`
	SenderName string   `json:"sender_name"`
	Role       ChatRole `json:"role"`
	Message    string   `json:"message"`
	Timestamp  string   `json:"timestamp"`
}

func NewChatMessage(eventID EventID, sender User, role ChatRole, text string) ChatMessage {
	return ChatMessage{
		EventID:    eventID,
		UserID:     sender.ID,
		SenderName: sender.Name,
		Role:       role,
		Message:    text,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}
