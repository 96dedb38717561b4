package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/medatlas/teleconsult/internal/domain"
	"github.com/medatlas/teleconsult/internal/repository"
)

// ConsultationService fronts the booking records the signaling core
// authorizes against. Creation normally belongs to the appointment
// subsystem; this surface exists so the service runs standalone.
type ConsultationService struct {
	consultations repository.ConsultationRepository
	log           *slog.Logger
}

func NewConsultationService(consultations repository.ConsultationRepository, log *slog.Logger) *ConsultationService {
	if log == nil {
		log = slog.Default()
	}
	return &ConsultationService{consultations: consultations, log: log}
}

func (s *ConsultationService) CreateConsultation(ctx context.Context, doctorID, patientID uuid.UUID, scheduledAt time.Time) (*domain.Consultation, error) {
	const op = "service.consultation.create"

	if doctorID == uuid.Nil || patientID == uuid.Nil {
		return nil, errors.New("doctor and patient are required")
	}
	if doctorID == patientID {
		return nil, errors.New("doctor and patient must differ")
	}
	if scheduledAt.IsZero() {
		scheduledAt = time.Now().UTC()
	}

	consultation := domain.NewConsultation(doctorID, patientID, scheduledAt)
	if err := s.consultations.Create(ctx, consultation); err != nil {
		return nil, err
	}

	s.log.Info("consultation created",
		"op", op,
		"consultation_id", consultation.ID.String(),
	)
	return consultation, nil
}

func (s *ConsultationService) GetConsultation(ctx context.Context, id uuid.UUID) (*domain.Consultation, error) {
	return s.consultations.GetByID(ctx, id)
}
