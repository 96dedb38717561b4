package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/medatlas/teleconsult/internal/domain"
)

var (
	ErrConsultationNotFound = errors.New("consultation not found")
	ErrMessageNotFound      = errors.New("chat message not found")
)

type ConsultationRepository interface {
	Create(ctx context.Context, consultation *domain.Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Consultation, error)
	Update(ctx context.Context, consultation *domain.Consultation) error
}

type ChatMessageRepository interface {
	Create(ctx context.Context, message *domain.ChatMessage) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ChatMessage, error)
	// ListByConsultation returns messages in ascending timestamp order.
	ListByConsultation(ctx context.Context, consultationID uuid.UUID) ([]*domain.ChatMessage, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
