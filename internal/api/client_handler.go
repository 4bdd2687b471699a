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

// ClientHandler exposes booking-preference management for the authenticated
// client.
type ClientHandler struct {
	clientService service.ClientService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clientService service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// --- DTOs ---

type TimeRangeRequest struct {
	StartTime string `json:"startTime" binding:"required"` // "HH:MM"
	EndTime   string `json:"endTime" binding:"required"`   // "HH:MM"
}

// PreferencesRequest carries weekdays as their integer values
// (0 = Sunday .. 6 = Saturday) and therapist IDs as hex strings.
type PreferencesRequest struct {
	PreferredDaysOfWeek   []int              `json:"preferredDaysOfWeek" binding:"omitempty,dive,min=0,max=6"`
	PreferredTimeRanges   []TimeRangeRequest `json:"preferredTimeRanges"`
	PreferredTherapistIDs []string           `json:"preferredTherapistIds"`
	NoEarlierThan         string             `json:"noEarlierThan"`
	NoLaterThan           string             `json:"noLaterThan"`
}

type PreferencesResponse struct {
	PreferredDaysOfWeek   []int              `json:"preferredDaysOfWeek"`
	PreferredTimeRanges   []TimeRangeRequest `json:"preferredTimeRanges"`
	PreferredTherapistIDs []string           `json:"preferredTherapistIds"`
	NoEarlierThan         string             `json:"noEarlierThan,omitempty"`
	NoLaterThan           string             `json:"noLaterThan,omitempty"`
}

type ClientProfileResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"userId"`
	Preferences PreferencesResponse `json:"preferences"`
}

func mapPreferencesToResponse(p domain.Preferences) PreferencesResponse {
	resp := PreferencesResponse{
		PreferredDaysOfWeek:   make([]int, 0, len(p.PreferredDaysOfWeek)),
		PreferredTimeRanges:   make([]TimeRangeRequest, 0, len(p.PreferredTimeRanges)),
		PreferredTherapistIDs: make([]string, 0, len(p.PreferredTherapistIDs)),
		NoEarlierThan:         p.NoEarlierThan,
		NoLaterThan:           p.NoLaterThan,
	}
	for _, d := range p.PreferredDaysOfWeek {
		resp.PreferredDaysOfWeek = append(resp.PreferredDaysOfWeek, int(d))
	}
	for _, r := range p.PreferredTimeRanges {
		resp.PreferredTimeRanges = append(resp.PreferredTimeRanges, TimeRangeRequest{StartTime: r.StartTime, EndTime: r.EndTime})
	}
	for _, id := range p.PreferredTherapistIDs {
		resp.PreferredTherapistIDs = append(resp.PreferredTherapistIDs, id.Hex())
	}
	return resp
}

func mapClientProfileToResponse(p *domain.ClientProfile) ClientProfileResponse {
	return ClientProfileResponse{
		ID:          p.ID.Hex(),
		UserID:      p.UserID.Hex(),
		Preferences: mapPreferencesToResponse(p.Preferences),
	}
}

// --- Handler Methods ---

// GetProfile godoc
// @Summary Get the authenticated client's profile and preferences
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ClientProfileResponse
// @Failure 404 {object} gin.H "Profile not found"
// @Router /client/profile [get]
func (h *ClientHandler) GetProfile(c *gin.Context) {
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client from token.")
		return
	}

	profile, err := h.clientService.GetProfile(c.Request.Context(), identity.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapClientProfileToResponse(profile))
}

// UpdatePreferences godoc
// @Summary Replace the authenticated client's booking preferences
// @Tags Client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param preferences body PreferencesRequest true "Preferences"
// @Success 200 {object} ClientProfileResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /client/preferences [put]
func (h *ClientHandler) UpdatePreferences(c *gin.Context) {
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client from token.")
		return
	}

	prefs := domain.Preferences{
		NoEarlierThan: req.NoEarlierThan,
		NoLaterThan:   req.NoLaterThan,
	}
	for _, d := range req.PreferredDaysOfWeek {
		prefs.PreferredDaysOfWeek = append(prefs.PreferredDaysOfWeek, time.Weekday(d))
	}
	for _, r := range req.PreferredTimeRanges {
		prefs.PreferredTimeRanges = append(prefs.PreferredTimeRanges, domain.TimeRange{StartTime: r.StartTime, EndTime: r.EndTime})
	}
	for _, hex := range req.PreferredTherapistIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid therapist ID format: %s", hex))
			return
		}
		prefs.PreferredTherapistIDs = append(prefs.PreferredTherapistIDs, id)
	}

	profile, err := h.clientService.UpdatePreferences(c.Request.Context(), identity.UserID, prefs)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapClientProfileToResponse(profile))
}
