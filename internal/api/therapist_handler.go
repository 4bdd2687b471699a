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

// TherapistHandler exposes availability and time-off management for the
// authenticated therapist.
type TherapistHandler struct {
	therapistService service.TherapistService
}

// NewTherapistHandler creates a new TherapistHandler.
func NewTherapistHandler(therapistService service.TherapistService) *TherapistHandler {
	return &TherapistHandler{therapistService: therapistService}
}

// --- DTOs ---

// AvailabilityBlockRequest carries the weekday as its integer value
// (0 = Sunday .. 6 = Saturday); this is the only place the wire integer is
// converted into the domain's weekday type.
type AvailabilityBlockRequest struct {
	DayOfWeek       int    `json:"dayOfWeek" binding:"min=0,max=6"`
	StartTime       string `json:"startTime" binding:"required"` // "HH:MM"
	EndTime         string `json:"endTime" binding:"required"`   // "HH:MM"
	RecurringWeekly bool   `json:"recurringWeekly"`
}

type AvailabilityBlockResponse struct {
	ID              string `json:"id"`
	DayOfWeek       int    `json:"dayOfWeek"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	RecurringWeekly bool   `json:"recurringWeekly"`
}

type TimeOffRequest struct {
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
	Reason string    `json:"reason"`
}

type TimeOffResponse struct {
	ID     string    `json:"id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason string    `json:"reason,omitempty"`
}

type TherapistProfileResponse struct {
	ID           string                      `json:"id"`
	UserID       string                      `json:"userId"`
	Bio          string                      `json:"bio,omitempty"`
	Availability []AvailabilityBlockResponse `json:"availability"`
	TimeOff      []TimeOffResponse           `json:"timeOff"`
}

func mapBlockToResponse(b domain.AvailabilityBlock) AvailabilityBlockResponse {
	return AvailabilityBlockResponse{
		ID:              b.ID.Hex(),
		DayOfWeek:       int(b.DayOfWeek),
		StartTime:       b.StartTime,
		EndTime:         b.EndTime,
		RecurringWeekly: b.RecurringWeekly,
	}
}

func mapTimeOffToResponse(o domain.TimeOff) TimeOffResponse {
	return TimeOffResponse{ID: o.ID.Hex(), Start: o.Start, End: o.End, Reason: o.Reason}
}

func mapProfileToResponse(p *domain.TherapistProfile) TherapistProfileResponse {
	resp := TherapistProfileResponse{
		ID:           p.ID.Hex(),
		UserID:       p.UserID.Hex(),
		Bio:          p.Bio,
		Availability: make([]AvailabilityBlockResponse, 0, len(p.Availability)),
		TimeOff:      make([]TimeOffResponse, 0, len(p.TimeOff)),
	}
	for _, b := range p.Availability {
		resp.Availability = append(resp.Availability, mapBlockToResponse(b))
	}
	for _, o := range p.TimeOff {
		resp.TimeOff = append(resp.TimeOff, mapTimeOffToResponse(o))
	}
	return resp
}

// --- Handler Methods ---

// GetProfile godoc
// @Summary Get the authenticated therapist's schedule definition
// @Tags Therapist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} TherapistProfileResponse
// @Failure 404 {object} gin.H "Profile not found"
// @Router /therapist/profile [get]
func (h *TherapistHandler) GetProfile(c *gin.Context) {
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify therapist from token.")
		return
	}

	profile, err := h.therapistService.GetProfile(c.Request.Context(), identity.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapProfileToResponse(profile))
}

// AddAvailabilityBlock godoc
// @Summary Add a weekly availability block
// @Description Blocks for the same weekday must not overlap; overlapping requests are rejected with CONFLICT.
// @Tags Therapist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param block body AvailabilityBlockRequest true "Weekly block"
// @Success 201 {object} AvailabilityBlockResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 409 {object} gin.H "Overlapping block"
// @Router /therapist/availability [post]
func (h *TherapistHandler) AddAvailabilityBlock(c *gin.Context) {
	var req AvailabilityBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify therapist from token.")
		return
	}

	block := domain.AvailabilityBlock{
		DayOfWeek:       time.Weekday(req.DayOfWeek),
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		RecurringWeekly: req.RecurringWeekly,
	}
	created, err := h.therapistService.AddAvailabilityBlock(c.Request.Context(), identity.UserID, block)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapBlockToResponse(*created))
}

// UpdateAvailabilityBlock godoc
// @Summary Replace an existing weekly availability block
// @Tags Therapist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param blockId path string true "Block ID"
// @Param block body AvailabilityBlockRequest true "Weekly block"
// @Success 200 {object} AvailabilityBlockResponse
// @Router /therapist/availability/{blockId} [put]
func (h *TherapistHandler) UpdateAvailabilityBlock(c *gin.Context) {
	blockID, err := primitive.ObjectIDFromHex(c.Param("blockId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid block ID format.")
		return
	}
	var req AvailabilityBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify therapist from token.")
		return
	}

	block := domain.AvailabilityBlock{
		ID:              blockID,
		DayOfWeek:       time.Weekday(req.DayOfWeek),
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		RecurringWeekly: req.RecurringWeekly,
	}
	if err := h.therapistService.UpdateAvailabilityBlock(c.Request.Context(), identity.UserID, block); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapBlockToResponse(block))
}

// RemoveAvailabilityBlock godoc
// @Summary Remove a weekly availability block
// @Tags Therapist
// @Security BearerAuth
// @Param blockId path string true "Block ID"
// @Success 204 "Removed"
// @Router /therapist/availability/{blockId} [delete]
func (h *TherapistHandler) RemoveAvailabilityBlock(c *gin.Context) {
	blockID, err := primitive.ObjectIDFromHex(c.Param("blockId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid block ID format.")
		return
	}
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify therapist from token.")
		return
	}

	if err := h.therapistService.RemoveAvailabilityBlock(c.Request.Context(), identity.UserID, blockID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddTimeOff godoc
// @Summary Record a time-off interval
// @Tags Therapist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param timeOff body TimeOffRequest true "Time-off interval"
// @Success 201 {object} TimeOffResponse
// @Router /therapist/time-off [post]
func (h *TherapistHandler) AddTimeOff(c *gin.Context) {
	var req TimeOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify therapist from token.")
		return
	}

	off, err := h.therapistService.AddTimeOff(c.Request.Context(), identity.UserID, req.Start, req.End, req.Reason)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapTimeOffToResponse(*off))
}

// RemoveTimeOff godoc
// @Summary Remove a time-off interval
// @Tags Therapist
// @Security BearerAuth
// @Param timeOffId path string true "Time-off ID"
// @Success 204 "Removed"
// @Router /therapist/time-off/{timeOffId} [delete]
func (h *TherapistHandler) RemoveTimeOff(c *gin.Context) {
	timeOffID, err := primitive.ObjectIDFromHex(c.Param("timeOffId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid time-off ID format.")
		return
	}
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify therapist from token.")
		return
	}

	if err := h.therapistService.RemoveTimeOff(c.Request.Context(), identity.UserID, timeOffID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
