package model

import (
	"time"

	"github.com/google/uuid"
)

type Consultation struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	DoctorID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	PatientID   uuid.UUID  `gorm:"type:uuid;index;not null"`
	Status      string     `gorm:"size:32;not null"`
	ScheduledAt time.Time  `gorm:"not null"`
	EndedAt     *time.Time `gorm:"index"`
	CreatedAt   time.Time  `gorm:"not null"`
	UpdatedAt   time.Time
}

type ChatMessage struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConsultationID uuid.UUID `gorm:"type:uuid;index;not null"`
	SenderID       uuid.UUID `gorm:"type:uuid;index;not null"`
	SenderName     string    `gorm:"size:255;not null"`
	Text           string    `gorm:"type:text;not null"`
	Timestamp      time.Time `gorm:"index;not null"`
	CreatedAt      time.Time
}
