package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medatlas/teleconsult/internal/domain"
	"github.com/medatlas/teleconsult/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingChatRepository struct {
	*repository.InMemoryChatMessageRepository
	createErr error
}

func (r *failingChatRepository) Create(ctx context.Context, message *domain.ChatMessage) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.InMemoryChatMessageRepository.Create(ctx, message)
}

func newChatFixture(t *testing.T) (*ChatService, *SignalingService, *repository.InMemoryChatMessageRepository, *domain.Consultation) {
	t.Helper()

	consultations := repository.NewInMemoryConsultationRepository()
	consultation := domain.NewConsultation(uuid.New(), uuid.New(), time.Now())
	require.NoError(t, consultations.Create(context.Background(), consultation))

	messages := repository.NewInMemoryChatMessageRepository()
	registry := NewRoomRegistry()
	signaling := NewSignalingService(registry, consultations, discardLogger(), time.Minute, 16)
	chat := NewChatService(registry, messages, consultations, discardLogger())
	return chat, signaling, messages, consultation
}

func TestSendMessagePersistsAndBroadcasts(t *testing.T) {
	chat, signaling, _, consultation := newChatFixture(t)
	ctx := context.Background()

	_, err := signaling.Join(ctx, consultation.ID, consultation.DoctorID, "Dr. Smith")
	require.NoError(t, err)
	patient, err := signaling.Join(ctx, consultation.ID, consultation.PatientID, "Pat")
	require.NoError(t, err)
	recvEvent(t, patient.Events)

	message, err := chat.SendMessage(ctx, consultation.ID, consultation.DoctorID, "Dr. Smith", "hello there")
	require.NoError(t, err)
	require.NotNil(t, message)
	assert.Equal(t, "hello there", message.Text)

	event := recvEvent(t, patient.Events)
	assert.Equal(t, domain.SignalChatMessage, event.Type)
	require.NotNil(t, event.Chat)
	assert.Equal(t, message.ID.String(), event.Chat.ID)
	assert.Equal(t, consultation.DoctorID.String(), event.Chat.Sender)
	assert.Equal(t, "hello there", event.Chat.Text)

	stored, err := chat.ListMessages(ctx, consultation.ID, consultation.PatientID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, message.ID, stored[0].ID)
}

func TestSendMessageValidation(t *testing.T) {
	chat, _, _, consultation := newChatFixture(t)
	ctx := context.Background()

	_, err := chat.SendMessage(ctx, consultation.ID, consultation.DoctorID, "Dr. Smith", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	long := strings.Repeat("a", maxChatMessageLength+1)
	_, err = chat.SendMessage(ctx, consultation.ID, consultation.DoctorID, "Dr. Smith", long)
	assert.ErrorIs(t, err, ErrMessageTooLong)

	_, err = chat.SendMessage(ctx, consultation.ID, uuid.New(), "stranger", "hi")
	assert.ErrorIs(t, err, ErrUnauthorizedRoomAccess)

	_, err = chat.SendMessage(ctx, uuid.New(), consultation.DoctorID, "Dr. Smith", "hi")
	assert.ErrorIs(t, err, repository.ErrConsultationNotFound)
}

func TestSendMessagePersistFailureStillBroadcasts(t *testing.T) {
	consultations := repository.NewInMemoryConsultationRepository()
	consultation := domain.NewConsultation(uuid.New(), uuid.New(), time.Now())
	ctx := context.Background()
	require.NoError(t, consultations.Create(ctx, consultation))

	storeErr := errors.New("disk on fire")
	messages := &failingChatRepository{
		InMemoryChatMessageRepository: repository.NewInMemoryChatMessageRepository(),
		createErr:                     storeErr,
	}
	registry := NewRoomRegistry()
	signaling := NewSignalingService(registry, consultations, discardLogger(), time.Minute, 16)
	chat := NewChatService(registry, messages, consultations, discardLogger())

	_, err := signaling.Join(ctx, consultation.ID, consultation.DoctorID, "Dr. Smith")
	require.NoError(t, err)
	patient, err := signaling.Join(ctx, consultation.ID, consultation.PatientID, "Pat")
	require.NoError(t, err)
	recvEvent(t, patient.Events)

	message, err := chat.SendMessage(ctx, consultation.ID, consultation.DoctorID, "Dr. Smith", "still delivered")
	require.ErrorIs(t, err, storeErr)
	require.NotNil(t, message)

	event := recvEvent(t, patient.Events)
	assert.Equal(t, domain.SignalChatMessage, event.Type)
	assert.Equal(t, "still delivered", event.Chat.Text)
}

func TestSendMessageWithoutRecipientsStillPersists(t *testing.T) {
	chat, signaling, _, consultation := newChatFixture(t)
	ctx := context.Background()

	_, err := signaling.Join(ctx, consultation.ID, consultation.DoctorID, "Dr. Smith")
	require.NoError(t, err)

	message, err := chat.SendMessage(ctx, consultation.ID, consultation.DoctorID, "Dr. Smith", "anyone home?")
	require.NoError(t, err)

	// The patient was never in the room but can still read the history.
	stored, err := chat.ListMessages(ctx, consultation.ID, consultation.PatientID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, message.ID, stored[0].ID)
}

func TestListMessagesAscendingAndStable(t *testing.T) {
	chat, _, messages, consultation := newChatFixture(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	store := func(text string, offset time.Duration) {
		require.NoError(t, messages.Create(ctx, &domain.ChatMessage{
			ID:             uuid.New(),
			ConsultationID: consultation.ID,
			SenderID:       consultation.DoctorID,
			SenderName:     "Dr. Smith",
			Text:           text,
			Timestamp:      base.Add(offset),
		}))
	}
	// Inserted out of order on purpose.
	store("second", time.Minute)
	store("third", 2*time.Minute)
	store("first", 0)

	texts := []string{"first", "second", "third"}
	for attempt := 0; attempt < 2; attempt++ {
		listed, err := chat.ListMessages(ctx, consultation.ID, consultation.DoctorID)
		require.NoError(t, err)
		require.Len(t, listed, 3)
		for i, text := range texts {
			assert.Equal(t, text, listed[i].Text)
		}
	}
}

func TestListMessagesRequiresParty(t *testing.T) {
	chat, _, _, consultation := newChatFixture(t)

	_, err := chat.ListMessages(context.Background(), consultation.ID, uuid.New())
	assert.ErrorIs(t, err, ErrUnauthorizedRoomAccess)
}

func TestDeleteMessageSenderOnly(t *testing.T) {
	chat, _, _, consultation := newChatFixture(t)
	ctx := context.Background()

	message, err := chat.SendMessage(ctx, consultation.ID, consultation.DoctorID, "Dr. Smith", "oops")
	require.NoError(t, err)

	err = chat.DeleteMessage(ctx, message.ID, consultation.PatientID)
	assert.ErrorIs(t, err, ErrForbidden)

	stored, err := chat.ListMessages(ctx, consultation.ID, consultation.DoctorID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	require.NoError(t, chat.DeleteMessage(ctx, message.ID, consultation.DoctorID))

	stored, err = chat.ListMessages(ctx, consultation.ID, consultation.DoctorID)
	require.NoError(t, err)
	assert.Empty(t, stored)

	err = chat.DeleteMessage(ctx, message.ID, consultation.DoctorID)
	assert.ErrorIs(t, err, repository.ErrMessageNotFound)
}
