package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Sushant9818/SmartScheduling/internal/domain"
	"github.com/Sushant9818/SmartScheduling/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingHandler exposes the session booking and lifecycle endpoints.
type BookingHandler struct {
	bookingService service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// --- DTOs ---

type BookSessionRequest struct {
	TherapistID string    `json:"therapistId" binding:"required"`
	Start       time.Time `json:"start" binding:"required"`
	End         time.Time `json:"end" binding:"required"`
	Notes       string    `json:"notes"`
}

type RescheduleRequest struct {
	NewStart time.Time `json:"newStart" binding:"required"`
	NewEnd   time.Time `json:"newEnd" binding:"required"`
}

type AttachmentUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmAttachmentRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

type SessionResponse struct {
	ID            string    `json:"id"`
	TherapistID   string    `json:"therapistId"`
	ClientID      string    `json:"clientId"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	HasAttachment bool      `json:"hasAttachment"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func mapSessionToResponse(s *domain.Session) SessionResponse {
	return SessionResponse{
		ID:            s.ID.Hex(),
		TherapistID:   s.TherapistID.Hex(),
		ClientID:      s.ClientID.Hex(),
		Start:         s.Start,
		End:           s.End,
		Status:        string(s.Status),
		Notes:         s.Notes,
		HasAttachment: s.AttachmentKey != "",
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func sessionIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("sessionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// --- Handler Methods ---

// BookSession godoc
// @Summary Book a session with a therapist
// @Description Validates the interval against the therapist's availability,
// @Description time off and existing sessions, then commits atomically. A slot
// @Description seen as free in a listing may still be rejected here.
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param session body BookSessionRequest true "Requested interval"
// @Success 201 {object} SessionResponse
// @Failure 409 {object} gin.H "Interval already taken"
// @Failure 422 {object} gin.H "Outside availability"
// @Router /sessions [post]
func (h *BookingHandler) BookSession(c *gin.Context) {
	var req BookSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	therapistID, err := primitive.ObjectIDFromHex(req.TherapistID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid therapist ID format.")
		return
	}
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	session, err := h.bookingService.BookSession(c.Request.Context(), identity, therapistID, req.Start, req.End, req.Notes)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapSessionToResponse(session))
}

// ListSessions godoc
// @Summary List the caller's sessions
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} SessionResponse
// @Router /sessions [get]
func (h *BookingHandler) ListSessions(c *gin.Context) {
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	sessions, err := h.bookingService.ListSessions(c.Request.Context(), identity)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	resp := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		resp = append(resp, mapSessionToResponse(&sessions[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// CheckReschedule godoc
// @Summary Check whether a session could move to a new interval
// @Description Read-only dry run. A positive answer is advisory; the apply
// @Description step re-validates under the booking lock.
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param interval body RescheduleRequest true "Proposed interval"
// @Success 200 {object} service.RescheduleCheck
// @Router /sessions/{sessionId}/reschedule/check [post]
func (h *BookingHandler) CheckReschedule(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	check, err := h.bookingService.CheckReschedule(c.Request.Context(), identity, sessionID, req.NewStart, req.NewEnd)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

// ApplyReschedule godoc
// @Summary Move a session to a new interval
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param interval body RescheduleRequest true "New interval"
// @Success 200 {object} SessionResponse
// @Failure 409 {object} gin.H "New interval already taken"
// @Router /sessions/{sessionId}/reschedule [post]
func (h *BookingHandler) ApplyReschedule(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	session, err := h.bookingService.ApplyReschedule(c.Request.Context(), identity, sessionID, req.NewStart, req.NewEnd)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSessionToResponse(session))
}

// CancelSession godoc
// @Summary Cancel a session
// @Description Cancelling an already-cancelled session succeeds without change.
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Router /sessions/{sessionId}/cancel [post]
func (h *BookingHandler) CancelSession(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	session, err := h.bookingService.CancelSession(c.Request.Context(), identity, sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSessionToResponse(session))
}

// CompleteSession godoc
// @Summary Mark a session completed
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Router /sessions/{sessionId}/complete [post]
func (h *BookingHandler) CompleteSession(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	session, err := h.bookingService.CompleteSession(c.Request.Context(), identity, sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSessionToResponse(session))
}

// GetAttachmentUploadURL godoc
// @Summary Get a presigned URL for uploading a session document
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param upload body AttachmentUploadRequest true "Content type of the document"
// @Success 200 {object} service.AttachmentUploadResponse
// @Router /sessions/{sessionId}/attachment/upload-url [post]
func (h *BookingHandler) GetAttachmentUploadURL(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	var req AttachmentUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	resp, err := h.bookingService.GetAttachmentUploadURL(c.Request.Context(), identity, sessionID, req.ContentType)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmAttachment godoc
// @Summary Confirm an uploaded session document
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param confirmation body ConfirmAttachmentRequest true "Uploaded object key"
// @Success 200 {object} SessionResponse
// @Router /sessions/{sessionId}/attachment/confirm [post]
func (h *BookingHandler) ConfirmAttachment(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	var req ConfirmAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	session, err := h.bookingService.ConfirmAttachment(c.Request.Context(), identity, sessionID, req.ObjectKey)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSessionToResponse(session))
}

// GetAttachmentDownloadURL godoc
// @Summary Get a presigned URL for downloading a session document
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} gin.H "downloadUrl"
// @Router /sessions/{sessionId}/attachment/download-url [get]
func (h *BookingHandler) GetAttachmentDownloadURL(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	url, err := h.bookingService.GetAttachmentDownloadURL(c.Request.Context(), identity, sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}
