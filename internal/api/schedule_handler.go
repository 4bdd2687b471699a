package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Sushant9818/SmartScheduling/internal/schedule"
	"github.com/Sushant9818/SmartScheduling/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleHandler exposes the read-only slot listing and suggestion endpoints.
type ScheduleHandler struct {
	schedulingService service.SchedulingService
	therapistService  service.TherapistService
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(schedulingService service.SchedulingService, therapistService service.TherapistService) *ScheduleHandler {
	return &ScheduleHandler{schedulingService: schedulingService, therapistService: therapistService}
}

// --- DTOs ---

type TherapistSlotsResponse struct {
	TherapistID string      `json:"therapistId"`
	Starts      []time.Time `json:"starts"`
}

type RankedSlotResponse struct {
	TherapistID string    `json:"therapistId"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Score       int       `json:"score"`
}

type TherapistSummaryResponse struct {
	UserID string `json:"userId"`
	Bio    string `json:"bio,omitempty"`
}

func mapRankedSlotToResponse(r schedule.RankedSlot) RankedSlotResponse {
	return RankedSlotResponse{
		TherapistID: r.Slot.TherapistID.Hex(),
		Start:       r.Slot.Start,
		End:         r.Slot.End,
		Score:       r.Score,
	}
}

// parseDateParam parses a required YYYY-MM-DD query parameter as a UTC date.
func parseDateParam(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Missing required query parameter %q.", name))
		return time.Time{}, false
	}
	date, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %q: expected YYYY-MM-DD.", name))
		return time.Time{}, false
	}
	return date, true
}

// parseDurationParam parses the slot duration query parameter, in minutes.
func parseDurationParam(c *gin.Context) (time.Duration, bool) {
	raw := c.Query("duration")
	if raw == "" {
		abortWithError(c, http.StatusBadRequest, "Missing required query parameter \"duration\" (minutes).")
		return 0, false
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		abortWithError(c, http.StatusBadRequest, "Invalid \"duration\": expected a positive integer number of minutes.")
		return 0, false
	}
	return time.Duration(minutes) * time.Minute, true
}

// --- Handler Methods ---

// ListTherapists godoc
// @Summary List therapists available for booking
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Success 200 {array} TherapistSummaryResponse
// @Router /therapists [get]
func (h *ScheduleHandler) ListTherapists(c *gin.Context) {
	profiles, err := h.therapistService.ListTherapists(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	resp := make([]TherapistSummaryResponse, 0, len(profiles))
	for _, p := range profiles {
		resp = append(resp, TherapistSummaryResponse{UserID: p.UserID.Hex(), Bio: p.Bio})
	}
	c.JSON(http.StatusOK, resp)
}

// ListAvailableSlots godoc
// @Summary List free slot start times per therapist for a date
// @Description Returns, for every therapist, the start times at which a
// @Description session of the requested duration could begin on the given date.
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param date query string true "Date (YYYY-MM-DD, UTC)"
// @Param duration query int true "Slot duration in minutes"
// @Success 200 {array} TherapistSlotsResponse
// @Failure 400 {object} gin.H "Invalid parameters"
// @Router /slots [get]
func (h *ScheduleHandler) ListAvailableSlots(c *gin.Context) {
	date, ok := parseDateParam(c, "date")
	if !ok {
		return
	}
	duration, ok := parseDurationParam(c)
	if !ok {
		return
	}

	results, err := h.schedulingService.ListAvailableSlots(c.Request.Context(), date, duration)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	resp := make([]TherapistSlotsResponse, 0, len(results))
	for _, r := range results {
		resp = append(resp, TherapistSlotsResponse{TherapistID: r.TherapistID.Hex(), Starts: r.Starts})
	}
	c.JSON(http.StatusOK, resp)
}

// SuggestSlots godoc
// @Summary Suggest ranked slots for the requesting client
// @Description Generates candidate slots with one therapist across a date
// @Description range, filters them by the client's hard constraints and scores
// @Description them by preference fit. Highest score first.
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param therapistId query string true "Therapist user ID"
// @Param from query string true "Range start date (YYYY-MM-DD, UTC)"
// @Param to query string true "Range end date (YYYY-MM-DD, UTC, inclusive)"
// @Param duration query int true "Slot duration in minutes"
// @Param limit query int false "Maximum suggestions to return"
// @Success 200 {array} RankedSlotResponse
// @Failure 400 {object} gin.H "Invalid parameters"
// @Router /slots/suggest [get]
func (h *ScheduleHandler) SuggestSlots(c *gin.Context) {
	therapistID, err := primitive.ObjectIDFromHex(c.Query("therapistId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid or missing \"therapistId\".")
		return
	}
	from, ok := parseDateParam(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateParam(c, "to")
	if !ok {
		return
	}
	duration, ok := parseDurationParam(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			abortWithError(c, http.StatusBadRequest, "Invalid \"limit\": expected a non-negative integer.")
			return
		}
	}
	identity, err := getIdentityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	ranked, err := h.schedulingService.SuggestSlots(c.Request.Context(), identity, therapistID, from, to, duration, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	resp := make([]RankedSlotResponse, 0, len(ranked))
	for _, r := range ranked {
		resp = append(resp, mapRankedSlotToResponse(r))
	}
	c.JSON(http.StatusOK, resp)
}
