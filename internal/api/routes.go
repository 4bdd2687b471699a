package api

import (
	"net/http"

	"github.com/Sushant9818/SmartScheduling/internal/domain"
	"github.com/Sushant9818/SmartScheduling/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires all handlers onto the router under /api/v1.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	therapistService service.TherapistService,
	clientService service.ClientService,
	schedulingService service.SchedulingService,
	bookingService service.BookingService,
) {
	authHandler := NewAuthHandler(authService)
	therapistHandler := NewTherapistHandler(therapistService)
	clientHandler := NewClientHandler(clientService)
	scheduleHandler := NewScheduleHandler(schedulingService, therapistService)
	bookingHandler := NewBookingHandler(bookingService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			identity, err := getIdentityFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user identity from token.")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": identity.UserID.Hex(), "role": identity.Role})
		})

		// --- Schedule Discovery (any authenticated user) ---
		protected.GET("/therapists", scheduleHandler.ListTherapists)
		protected.GET("/slots", scheduleHandler.ListAvailableSlots)
		protected.GET("/slots/suggest", scheduleHandler.SuggestSlots)

		// --- Therapist Schedule Management ---
		therapistGroup := protected.Group("/therapist")
		therapistGroup.Use(RoleMiddleware(domain.RoleTherapist))
		{
			therapistGroup.GET("/profile", therapistHandler.GetProfile)

			therapistGroup.POST("/availability", therapistHandler.AddAvailabilityBlock)
			therapistGroup.PUT("/availability/:blockId", therapistHandler.UpdateAvailabilityBlock)
			therapistGroup.DELETE("/availability/:blockId", therapistHandler.RemoveAvailabilityBlock)

			therapistGroup.POST("/time-off", therapistHandler.AddTimeOff)
			therapistGroup.DELETE("/time-off/:timeOffId", therapistHandler.RemoveTimeOff)
		}

		// --- Client Preferences ---
		clientGroup := protected.Group("/client")
		clientGroup.Use(RoleMiddleware(domain.RoleClient))
		{
			clientGroup.GET("/profile", clientHandler.GetProfile)
			clientGroup.PUT("/preferences", clientHandler.UpdatePreferences)
		}

		// --- Session Lifecycle ---
		sessionGroup := protected.Group("/sessions")
		{
			sessionGroup.POST("", RoleMiddleware(domain.RoleClient), bookingHandler.BookSession)
			sessionGroup.GET("", bookingHandler.ListSessions)

			sessionGroup.POST("/:sessionId/reschedule/check", bookingHandler.CheckReschedule)
			sessionGroup.POST("/:sessionId/reschedule", bookingHandler.ApplyReschedule)
			sessionGroup.POST("/:sessionId/cancel", bookingHandler.CancelSession)
			sessionGroup.POST("/:sessionId/complete", RoleMiddleware(domain.RoleTherapist, domain.RoleAdmin), bookingHandler.CompleteSession)

			sessionGroup.POST("/:sessionId/attachment/upload-url", bookingHandler.GetAttachmentUploadURL)
			sessionGroup.POST("/:sessionId/attachment/confirm", bookingHandler.ConfirmAttachment)
			sessionGroup.GET("/:sessionId/attachment/download-url", bookingHandler.GetAttachmentDownloadURL)
		}
	}
}
