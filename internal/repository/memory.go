package repository

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/medatlas/teleconsult/internal/domain"
)

type InMemoryConsultationRepository struct {
	mu            sync.RWMutex
	consultations map[uuid.UUID]*domain.Consultation
}

func NewInMemoryConsultationRepository() *InMemoryConsultationRepository {
	return &InMemoryConsultationRepository{
		consultations: make(map[uuid.UUID]*domain.Consultation),
	}
}

func (r *InMemoryConsultationRepository) Create(ctx context.Context, consultation *domain.Consultation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.consultations[consultation.ID] = consultation
	return nil
}

func (r *InMemoryConsultationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Consultation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	consultation, ok := r.consultations[id]
	if !ok {
		return nil, ErrConsultationNotFound
	}

	return consultation, nil
}

func (r *InMemoryConsultationRepository) Update(ctx context.Context, consultation *domain.Consultation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.consultations[consultation.ID]; !ok {
		return ErrConsultationNotFound
	}

	r.consultations[consultation.ID] = consultation
	return nil
}

type InMemoryChatMessageRepository struct {
	mu       sync.RWMutex
	messages map[uuid.UUID]*domain.ChatMessage
}

func NewInMemoryChatMessageRepository() *InMemoryChatMessageRepository {
	return &InMemoryChatMessageRepository{
		messages: make(map[uuid.UUID]*domain.ChatMessage),
	}
}

func (r *InMemoryChatMessageRepository) Create(ctx context.Context, message *domain.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages[message.ID] = message
	return nil
}

func (r *InMemoryChatMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	message, ok := r.messages[id]
	if !ok {
		return nil, ErrMessageNotFound
	}

	return message, nil
}

func (r *InMemoryChatMessageRepository) ListByConsultation(ctx context.Context, consultationID uuid.UUID) ([]*domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.ChatMessage, 0)
	for _, message := range r.messages {
		if message.ConsultationID == consultationID {
			result = append(result, message)
		}
	}

	// Map iteration order varies between calls, so ties on timestamp need a
	// deterministic tie-break to keep repeated listings identical.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.Before(result[j].Timestamp)
		}
		return bytes.Compare(result[i].ID[:], result[j].ID[:]) < 0
	})

	return result, nil
}

func (r *InMemoryChatMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.messages[id]; !ok {
		return ErrMessageNotFound
	}

	delete(r.messages, id)
	return nil
}
