package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/medatlas/teleconsult/internal/middleware"
)

type RouterOptions struct {
	JWTSecret      string
	AllowedOrigins []string
	STUNServers    []string
}

func SetupRouter(
	signalingController *SignalingController,
	chatController *ChatController,
	consultationController *ConsultationController,
	opts RouterOptions,
) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = opts.AllowedOrigins
	config.AllowCredentials = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	auth := middleware.JWTAuth(opts.JWTSecret)

	// Clients fetch their ICE servers here instead of hard-coding them.
	api.GET("/webrtc-config", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{
			"iceServers": []gin.H{
				{"urls": opts.STUNServers},
			},
		})
	})

	if consultationController != nil {
		consultations := api.Group("/consultations", auth)
		consultations.POST("", consultationController.CreateConsultation)
		consultations.GET("/:consultationID", consultationController.GetConsultation)
		consultations.GET("/:consultationID/participants", consultationController.ListParticipants)
		consultations.POST("/:consultationID/end", consultationController.EndConsultation)
		if signalingController != nil {
			consultations.GET("/:consultationID/ws", signalingController.JoinRoom)
		}
	}

	if chatController != nil {
		messages := api.Group("/chat-messages", auth)
		messages.POST("", chatController.CreateMessage)
		messages.GET("/consultation/:consultationID", chatController.ListMessages)
		messages.DELETE("/:messageID", chatController.DeleteMessage)
	}

	return router
}
