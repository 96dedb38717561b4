package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/medatlas/teleconsult/internal/domain"
	"github.com/medatlas/teleconsult/internal/repository"
	"github.com/medatlas/teleconsult/lib/logger/sl"
)

const maxChatMessageLength = 4000

// ChatService persists consultation chat and fans messages out to whoever
// is in the room right now. Persistence and delivery are deliberately
// decoupled: a failed durable write never suppresses the real-time
// broadcast, it only turns the sender's acknowledgment into a failure so
// the client can mark the message retryable.
type ChatService struct {
	registry      *RoomRegistry
	messages      repository.ChatMessageRepository
	consultations repository.ConsultationRepository
	log           *slog.Logger
}

func NewChatService(
	registry *RoomRegistry,
	messages repository.ChatMessageRepository,
	consultations repository.ConsultationRepository,
	log *slog.Logger,
) *ChatService {
	if log == nil {
		log = slog.Default()
	}
	return &ChatService{
		registry:      registry,
		messages:      messages,
		consultations: consultations,
		log:           log,
	}
}

// SendMessage validates, persists and broadcasts a chat message. The
// returned message is non-nil whenever delivery to the room was attempted;
// a non-nil error alongside it means the durable write failed and the
// sender must be told the send did not stick.
func (s *ChatService) SendMessage(ctx context.Context, consultationID, senderID uuid.UUID, senderName, text string) (*domain.ChatMessage, error) {
	const op = "service.chat.send"
	log := s.log.With(
		slog.String("op", op),
		slog.String("consultation_id", consultationID.String()),
	)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > maxChatMessageLength {
		return nil, ErrMessageTooLong
	}

	consultation, err := s.consultations.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if _, ok := consultation.RoleOf(senderID); !ok {
		return nil, ErrUnauthorizedRoomAccess
	}

	message := domain.NewChatMessage(consultationID, senderID, senderName, text)

	persistErr := s.messages.Create(ctx, message)
	if persistErr != nil {
		log.Error("chat message persist failed, broadcasting anyway", sl.Err(persistErr))
	}

	event := domain.SignalMessage{
		Type:           domain.SignalChatMessage,
		ConsultationID: consultationID.String(),
		SenderID:       senderID.String(),
		Chat: &domain.ChatPayload{
			ID:         message.ID.String(),
			Sender:     senderID.String(),
			SenderName: senderName,
			Text:       text,
			Timestamp:  message.Timestamp,
		},
	}

	// Deliver to every other room member; the sender reconciles its own
	// optimistic copy through the acknowledgment.
	for _, peer := range s.registry.Peers(consultationID, senderID) {
		if !peer.EnqueueEvent(event) {
			log.Debug("chat broadcast dropped, peer buffer full", "peer", peer.UserID.String())
		}
	}

	if persistErr != nil {
		return message, fmt.Errorf("%s: %w", op, persistErr)
	}
	return message, nil
}

// ListMessages hydrates a chat view: all messages of the consultation in
// ascending timestamp order. Only the consultation's parties may read it.
func (s *ChatService) ListMessages(ctx context.Context, consultationID, requesterID uuid.UUID) ([]*domain.ChatMessage, error) {
	consultation, err := s.consultations.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if _, ok := consultation.RoleOf(requesterID); !ok {
		return nil, ErrUnauthorizedRoomAccess
	}

	return s.messages.ListByConsultation(ctx, consultationID)
}

// DeleteMessage removes a message permanently. Only the original sender may
// do so.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID, requesterID uuid.UUID) error {
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	if message.SenderID != requesterID {
		return ErrForbidden
	}

	return s.messages.Delete(ctx, messageID)
}
