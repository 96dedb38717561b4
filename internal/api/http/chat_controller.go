package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/medatlas/teleconsult/internal/api/http/converter"
	"github.com/medatlas/teleconsult/internal/middleware"
	"github.com/medatlas/teleconsult/internal/repository"
	"github.com/medatlas/teleconsult/internal/service"
)

type ChatController struct {
	chat service.ChatInteractor
}

func NewChatController(chat service.ChatInteractor) *ChatController {
	return &ChatController{chat: chat}
}

func (c *ChatController) CreateMessage(ctx *gin.Context) {
	type request struct {
		ConsultationID string `json:"consultation_id" binding:"required"`
		Text           string `json:"text" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	consultationID, err := uuid.Parse(req.ConsultationID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid consultation id"})
		return
	}

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "identity required"})
		return
	}

	message, err := c.chat.SendMessage(ctx.Request.Context(), consultationID, identity.UserID, identity.DisplayName, req.Text)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrEmptyMessage), errors.Is(err, service.ErrMessageTooLong):
			status = http.StatusBadRequest
		case errors.Is(err, service.ErrUnauthorizedRoomAccess):
			status = http.StatusForbidden
		case errors.Is(err, repository.ErrConsultationNotFound):
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": converter.ChatMessageToAPI(message)})
}

func (c *ChatController) ListMessages(ctx *gin.Context) {
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

	messages, err := c.chat.ListMessages(ctx.Request.Context(), consultationID, identity.UserID)
	if err != nil {
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

	ctx.JSON(http.StatusOK, gin.H{"messages": converter.ChatMessagesToAPI(messages)})
}

func (c *ChatController) DeleteMessage(ctx *gin.Context) {
	messageID, err := uuid.Parse(ctx.Param("messageID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "identity required"})
		return
	}

	if err := c.chat.DeleteMessage(ctx.Request.Context(), messageID, identity.UserID); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, repository.ErrMessageNotFound):
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
