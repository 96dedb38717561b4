package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is the persisted chat entity. Immutable once created, except
// for deletion by its original sender.
type ChatMessage struct {
	ID             uuid.UUID
	ConsultationID uuid.UUID
	SenderID       uuid.UUID
	SenderName     string
	Text           string
	Timestamp      time.Time
}

func NewChatMessage(consultationID, senderID uuid.UUID, senderName, text string) *ChatMessage {
	return &ChatMessage{
		ID:             uuid.New(),
		ConsultationID: consultationID,
		SenderID:       senderID,
		SenderName:     senderName,
		Text:           text,
		Timestamp:      time.Now().UTC(),
	}
}
