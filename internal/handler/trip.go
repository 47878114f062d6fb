package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"metro/internal/domain"
	"metro/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService    *service.TripService
	commandService *service.CommandService
	defaultDevice  string
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService, commandService *service.CommandService, defaultDevice string) *TripHandler {
	return &TripHandler{
		tripService:    tripService,
		commandService: commandService,
		defaultDevice:  defaultDevice,
	}
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	TripID               string  `json:"trip_id"`
	UserID               string  `json:"user_id"`
	FingerprintID        int64   `json:"fingerprint_id"`
	SourceStation        string  `json:"source_station"`
	DestinationStation   string  `json:"destination_station,omitempty"`
	Fare                 float64 `json:"fare,omitempty"`
	SourceTimestamp      string  `json:"source_timestamp"`
	DestinationTimestamp string  `json:"destination_timestamp,omitempty"`
	Status               string  `json:"status"`
}

func toTripResponse(trip *domain.Trip) TripResponse {
	response := TripResponse{
		TripID:          trip.ID,
		UserID:          trip.UserID,
		FingerprintID:   trip.FingerprintID,
		SourceStation:   trip.SourceStation,
		SourceTimestamp: trip.SourceTimestamp.Format("2006-01-02T15:04:05Z07:00"),
		Status:          string(trip.Status),
	}

	if trip.DestinationStation != "" {
		response.DestinationStation = trip.DestinationStation
	}
	if trip.Status == domain.TripStatusCompleted {
		response.Fare = trip.Fare
	}
	if !trip.DestinationTimestamp.IsZero() {
		response.DestinationTimestamp = trip.DestinationTimestamp.Format("2006-01-02T15:04:05Z07:00")
	}

	return response
}

// StartTripRequest is the HTTP request body for starting a trip.
type StartTripRequest struct {
	DeviceID string `json:"deviceId"`
}

// StartTrip handles POST /api/trip/start. It only dispatches a SOURCE
// command to the gate reader; the trip record itself is created when the
// rider's scan comes back through Verify.
func (h *TripHandler) StartTrip(c *gin.Context) {
	var req StartTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Message: "invalid request body"})
		return
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = h.defaultDevice
	}

	if _, err := h.commandService.Enqueue(c.Request.Context(), deviceID, domain.CommandKindSource); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"success": true,
		"message": "Trip initialization started, waiting for fingerprint verification",
	})
}

// SetDestinationRequest is the HTTP request body for binding a destination.
type SetDestinationRequest struct {
	TripID             string `json:"tripId"`
	DestinationStation string `json:"destinationStation"`
	DeviceID           string `json:"deviceId"`
}

// SetDestination handles POST /api/trip/setDestination.
func (h *TripHandler) SetDestination(c *gin.Context) {
	var req SetDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Message: "invalid request body"})
		return
	}

	if _, err := h.tripService.BindDestination(c.Request.Context(), req.TripID, req.DestinationStation); err != nil {
		respondError(c, err)
		return
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = h.defaultDevice
	}

	if _, err := h.commandService.Enqueue(c.Request.Context(), deviceID, domain.CommandKindDestination); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"success": true,
		"message": "Destination set, waiting for verification",
	})
}

// GetActive handles GET /api/trip/active.
func (h *TripHandler) GetActive(c *gin.Context) {
	trip, err := h.tripService.GetActiveTrip(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetTrip handles GET /api/trip/:id.
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// List handles GET /api/trips?fingerprintId=
func (h *TripHandler) List(c *gin.Context) {
	fingerprintID, err := strconv.ParseInt(c.Query("fingerprintId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Message: "Fingerprint ID is required"})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	trips, err := h.tripService.ListTrips(c.Request.Context(), fingerprintID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, toTripResponse(trip))
	}

	respondJSON(c, http.StatusOK, gin.H{
		"success": true,
		"trips":   response,
	})
}
