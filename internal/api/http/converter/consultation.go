package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/medatlas/teleconsult/internal/domain"
)

type ConsultationResponse struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	PatientID   uuid.UUID `json:"patient_id"`
	Status      string    `json:"status"`
	ScheduledAt time.Time `json:"scheduled_at"`
	EndedAt     time.Time `json:"ended_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ParticipantResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	Role        string    `json:"role"`
	DisplayName string    `json:"display_name"`
	Initiator   bool      `json:"initiator"`
	Status      string    `json:"status"`
	JoinedAt    time.Time `json:"joined_at"`
}

type ChatMessageResponse struct {
	ID             uuid.UUID `json:"id"`
	ConsultationID uuid.UUID `json:"consultation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
}

func ConsultationToAPI(c *domain.Consultation) *ConsultationResponse {
	return &ConsultationResponse{
		ID:          c.ID,
		DoctorID:    c.DoctorID,
		PatientID:   c.PatientID,
		Status:      string(c.Status),
		ScheduledAt: c.ScheduledAt,
		EndedAt:     c.EndedAt,
		CreatedAt:   c.CreatedAt,
	}
}

func ParticipantToAPI(p *domain.Participant) ParticipantResponse {
	return ParticipantResponse{
		UserID:      p.UserID,
		Role:        string(p.Role),
		DisplayName: p.DisplayName,
		Initiator:   p.Initiator,
		Status:      string(p.GetStatus()),
		JoinedAt:    p.JoinedAt,
	}
}

func ParticipantsToAPI(participants []*domain.Participant) []ParticipantResponse {
	result := make([]ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		result = append(result, ParticipantToAPI(p))
	}
	return result
}

func ChatMessageToAPI(m *domain.ChatMessage) *ChatMessageResponse {
	return &ChatMessageResponse{
		ID:             m.ID,
		ConsultationID: m.ConsultationID,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		Text:           m.Text,
		Timestamp:      m.Timestamp,
	}
}

func ChatMessagesToAPI(messages []*domain.ChatMessage) []*ChatMessageResponse {
	result := make([]*ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		result = append(result, ChatMessageToAPI(m))
	}
	return result
}
