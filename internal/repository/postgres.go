package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/medatlas/teleconsult/internal/domain"
	"github.com/medatlas/teleconsult/internal/repository/model"
	"gorm.io/gorm"
)

type PostgresConsultationRepository struct {
	db *gorm.DB
}

func NewPostgresConsultationRepository(db *gorm.DB) *PostgresConsultationRepository {
	return &PostgresConsultationRepository{db: db}
}

func (r *PostgresConsultationRepository) Create(ctx context.Context, consultation *domain.Consultation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if consultation == nil {
		return errors.New("consultation is nil")
	}

	return r.db.WithContext(ctx).Create(toModelConsultation(consultation)).Error
}

func (r *PostgresConsultationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Consultation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var consultation model.Consultation
	err := r.db.WithContext(ctx).First(&consultation, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConsultationNotFound
		}
		return nil, err
	}

	return toDomainConsultation(&consultation), nil
}

func (r *PostgresConsultationRepository) Update(ctx context.Context, consultation *domain.Consultation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if consultation == nil {
		return errors.New("consultation is nil")
	}

	consultationModel := toModelConsultation(consultation)

	updates := map[string]any{
		"status":       consultationModel.Status,
		"scheduled_at": consultationModel.ScheduledAt,
	}

	if consultationModel.EndedAt == nil {
		updates["ended_at"] = gorm.Expr("NULL")
	} else {
		updates["ended_at"] = consultationModel.EndedAt
	}

	res := r.db.WithContext(ctx).Model(&model.Consultation{}).Where("id = ?", consultationModel.ID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConsultationNotFound
	}

	return nil
}

type PostgresChatMessageRepository struct {
	db *gorm.DB
}

func NewPostgresChatMessageRepository(db *gorm.DB) *PostgresChatMessageRepository {
	return &PostgresChatMessageRepository{db: db}
}

func (r *PostgresChatMessageRepository) Create(ctx context.Context, message *domain.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if message == nil {
		return errors.New("message is nil")
	}

	return r.db.WithContext(ctx).Create(toModelChatMessage(message)).Error
}

func (r *PostgresChatMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var message model.ChatMessage
	err := r.db.WithContext(ctx).First(&message, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}

	return toDomainChatMessage(&message), nil
}

func (r *PostgresChatMessageRepository) ListByConsultation(ctx context.Context, consultationID uuid.UUID) ([]*domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var messages []model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("consultation_id = ?", consultationID).
		Order("timestamp ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	result := make([]*domain.ChatMessage, 0, len(messages))
	for i := range messages {
		result = append(result, toDomainChatMessage(&messages[i]))
	}

	return result, nil
}

func (r *PostgresChatMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.ChatMessage{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func toModelConsultation(c *domain.Consultation) *model.Consultation {
	var endedAt *time.Time
	if !c.EndedAt.IsZero() {
		t := c.EndedAt.UTC()
		endedAt = &t
	}

	return &model.Consultation{
		ID:          c.ID,
		DoctorID:    c.DoctorID,
		PatientID:   c.PatientID,
		Status:      string(c.Status),
		ScheduledAt: c.ScheduledAt.UTC(),
		EndedAt:     endedAt,
		CreatedAt:   c.CreatedAt.UTC(),
	}
}

func toDomainConsultation(c *model.Consultation) *domain.Consultation {
	var endedAt time.Time
	if c.EndedAt != nil {
		endedAt = c.EndedAt.UTC()
	}

	status := domain.ConsultationStatus(c.Status)
	if status == "" {
		status = domain.ConsultationScheduled
	}

	return &domain.Consultation{
		ID:          c.ID,
		DoctorID:    c.DoctorID,
		PatientID:   c.PatientID,
		Status:      status,
		ScheduledAt: c.ScheduledAt.UTC(),
		EndedAt:     endedAt,
		CreatedAt:   c.CreatedAt.UTC(),
	}
}

func toModelChatMessage(m *domain.ChatMessage) *model.ChatMessage {
	return &model.ChatMessage{
		ID:             m.ID,
		ConsultationID: m.ConsultationID,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		Text:           m.Text,
		Timestamp:      m.Timestamp.UTC(),
	}
}

func toDomainChatMessage(m *model.ChatMessage) *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:             m.ID,
		ConsultationID: m.ConsultationID,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		Text:           m.Text,
		Timestamp:      m.Timestamp.UTC(),
	}
}
