package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/medatlas/teleconsult/internal/domain"
)

type SignalingInteractor interface {
	Join(ctx context.Context, consultationID, userID uuid.UUID, displayName string) (*domain.Participant, error)
	Leave(ctx context.Context, consultationID, userID uuid.UUID) error
	Disconnect(consultationID uuid.UUID, dropped *domain.Participant)
	HandleSignal(ctx context.Context, consultationID, senderID uuid.UUID, msg *domain.SignalMessage) error
	EndConsultation(ctx context.Context, consultationID, byUserID uuid.UUID) error
}

type ChatInteractor interface {
	SendMessage(ctx context.Context, consultationID, senderID uuid.UUID, senderName, text string) (*domain.ChatMessage, error)
	ListMessages(ctx context.Context, consultationID, requesterID uuid.UUID) ([]*domain.ChatMessage, error)
	DeleteMessage(ctx context.Context, messageID, requesterID uuid.UUID) error
}

type ConsultationInteractor interface {
	CreateConsultation(ctx context.Context, doctorID, patientID uuid.UUID, scheduledAt time.Time) (*domain.Consultation, error)
	GetConsultation(ctx context.Context, id uuid.UUID) (*domain.Consultation, error)
}
