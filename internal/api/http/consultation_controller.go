package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/medatlas/teleconsult/internal/api/http/converter"
	"github.com/medatlas/teleconsult/internal/middleware"
	"github.com/medatlas/teleconsult/internal/repository"
	"github.com/medatlas/teleconsult/internal/service"
)

type ConsultationController struct {
	consultations service.ConsultationInteractor
	signaling     service.SignalingInteractor
	registry      *service.RoomRegistry
}

func NewConsultationController(
	consultations service.ConsultationInteractor,
	signaling service.SignalingInteractor,
	registry *service.RoomRegistry,
) *ConsultationController {
	return &ConsultationController{
		consultations: consultations,
		signaling:     signaling,
		registry:      registry,
	}
}

func (c *ConsultationController) CreateConsultation(ctx *gin.Context) {
	type request struct {
		PatientID   string    `json:"patient_id" binding:"required"`
		ScheduledAt time.Time `json:"scheduled_at"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return
	}

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "identity required"})
		return
	}

	consultation, err := c.consultations.CreateConsultation(ctx.Request.Context(), identity.UserID, patientID, req.ScheduledAt)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"consultation": converter.ConsultationToAPI(consultation)})
}

func (c *ConsultationController) GetConsultation(ctx *gin.Context) {
	consultationID, err := uuid.Parse(ctx.Param("consultationID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid consultation id"})
		return
	}

	consultation, err := c.consultations.GetConsultation(ctx.Request.Context(), consultationID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrConsultationNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"consultation": converter.ConsultationToAPI(consultation)})
}

// ListParticipants reports who is live in the room right now. An inactive
// room is an empty list, not an error.
func (c *ConsultationController) ListParticipants(ctx *gin.Context) {
	consultationID, err := uuid.Parse(ctx.Param("consultationID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid consultation id"})
		return
	}

	participants := c.registry.Peers(consultationID, uuid.Nil)
	ctx.JSON(http.StatusOK, gin.H{"participants": converter.ParticipantsToAPI(participants)})
}

func (c *ConsultationController) EndConsultation(ctx *gin.Context) {
	consultationID, err := uuid.Parse(ctx.Param("consultationID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid consultation id"})
		return
	}

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "identity required"})
		return
	}

	if err := c.signaling.EndConsultation(ctx.Request.Context(), consultationID, identity.UserID); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrUnauthorizedRoomAccess):
			status = http.StatusForbidden
		case errors.Is(err, repository.ErrConsultationNotFound):
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ended"})
}
