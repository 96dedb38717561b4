package domain

import (
	"time"

	"github.com/google/uuid"
)

type ConsultationStatus string

const (
	ConsultationScheduled ConsultationStatus = "scheduled"
	ConsultationActive    ConsultationStatus = "active"
	ConsultationEnded     ConsultationStatus = "ended"
)

// Consultation is the booking record behind a signaling room. It names the
// two users entitled to join and decides which of them initiates the
// offer/answer exchange. That is always the doctor, assigned server-side,
// so the client cannot race its peer into negotiation glare.
type Consultation struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	Status      ConsultationStatus
	ScheduledAt time.Time
	EndedAt     time.Time
	CreatedAt   time.Time
}

func NewConsultation(doctorID, patientID uuid.UUID, scheduledAt time.Time) *Consultation {
	return &Consultation{
		ID:          uuid.New(),
		DoctorID:    doctorID,
		PatientID:   patientID,
		Status:      ConsultationScheduled,
		ScheduledAt: scheduledAt,
		CreatedAt:   time.Now().UTC(),
	}
}

// RoleOf reports the role a user plays in this consultation, or false when
// the user is not one of the two parties on record.
func (c *Consultation) RoleOf(userID uuid.UUID) (Role, bool) {
	switch userID {
	case c.DoctorID:
		return RoleDoctor, true
	case c.PatientID:
		return RolePatient, true
	default:
		return "", false
	}
}

func (c *Consultation) IsEnded() bool {
	return c == nil || c.Status == ConsultationEnded
}
