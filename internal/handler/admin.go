package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"metro/internal/domain"
	"metro/internal/service"
)

// AdminHandler handles the administrative HTTP surface: profile updates,
// reference data, device registration, and enrollment dispatch.
type AdminHandler struct {
	userService    *service.UserService
	stationService *service.StationService
	fareService    *service.FareService
	deviceService  *service.DeviceService
	commandService *service.CommandService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	userService *service.UserService,
	stationService *service.StationService,
	fareService *service.FareService,
	deviceService *service.DeviceService,
	commandService *service.CommandService,
) *AdminHandler {
	return &AdminHandler{
		userService:    userService,
		stationService: stationService,
		fareService:    fareService,
		deviceService:  deviceService,
		commandService: commandService,
	}
}

// UpsertUserRequest is the HTTP request body for an admin profile update.
type UpsertUserRequest struct {
	FingerprintID int64    `json:"fingerprintId"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	Balance       *float64 `json:"balance"`
}

// UpsertUser handles POST /api/admin/user
func (h *AdminHandler) UpsertUser(c *gin.Context) {
	var req UpsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Message: "invalid request body"})
		return
	}

	user, err := h.userService.Upsert(c.Request.Context(), service.UpsertRequest{
		FingerprintID: req.FingerprintID,
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Balance:       req.Balance,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"success": true,
		"message": "User updated successfully",
		"user": UserResponse{
			ID:            user.ID,
			Name:          user.Name,
			Email:         user.Email,
			Balance:       user.Balance,
			FingerprintID: user.FingerprintID,
		},
	})
}

// EnrollCommandRequest is the HTTP request body for dispatching an ENROLL
// command.
type EnrollCommandRequest struct {
	DeviceID string `json:"deviceId"`
}

// EnrollCommand handles POST /api/admin/enroll. The reader is expected to
// report the captured fingerprint id through POST /api/enroll once capture
// completes.
func (h *AdminHandler) EnrollCommand(c *gin.Context) {
	var req EnrollCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Message: "invalid request body"})
		return
	}

	if _, err := h.commandService.Enqueue(c.Request.Context(), req.DeviceID, domain.CommandKindEnroll); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"success": true,
		"message": "Enrollment command sent to device",
	})
}

// CreateStationRequest is the HTTP request body for adding a station.
type CreateStationRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// CreateStation handles POST /api/admin/station
func (h *AdminHandler) CreateStation(c *gin.Context) {
	var req CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Message: "invalid request body"})
		return
	}

	station, err := h.stationService.Create(c.Request.Context(), req.Name, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{
		"success": true,
		"message": "Station added successfully",
		"station": gin.H{"id": station.ID, "name": station.Name, "code": station.Code},
	})
}

// UpsertFareRequest is the HTTP request body for saving a fare rule.
type UpsertFareRequest struct {
	SourceStation      string  `json:"sourceStation"`
	DestinationStation string  `json:"destinationStation"`
	Fare               float64 `json:"fare"`
}

// UpsertFare handles POST /api/admin/fare
func (h *AdminHandler) UpsertFare(c *gin.Context) {
	var req UpsertFareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Message: "invalid request body"})
		return
	}

	rule, err := h.fareService.UpsertRule(c.Request.Context(), service.UpsertRuleRequest{
		SourceStation:      req.SourceStation,
		DestinationStation: req.DestinationStation,
		Fare:               req.Fare,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"success": true,
		"message": "Fare rule saved successfully",
		"fareRule": gin.H{
			"sourceStation":      rule.SourceStation,
			"destinationStation": rule.DestinationStation,
			"fare":               rule.Fare,
		},
	})
}

// RegisterDeviceRequest is the HTTP request body for binding a reader to
// the station it is installed at.
type RegisterDeviceRequest struct {
	DeviceID    string `json:"deviceId"`
	StationCode string `json:"stationCode"`
}

// RegisterDevice handles POST /api/admin/device
func (h *AdminHandler) RegisterDevice(c *gin.Context) {
	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Message: "invalid request body"})
		return
	}

	device, err := h.deviceService.Register(c.Request.Context(), req.DeviceID, req.StationCode)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"success": true,
		"message": "Device registered",
		"device":  gin.H{"deviceId": device.DeviceID, "stationCode": device.StationCode},
	})
}

// ListStations handles GET /api/stations
func (h *AdminHandler) ListStations(c *gin.Context) {
	stations, err := h.stationService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]gin.H, 0, len(stations))
	for _, station := range stations {
		response = append(response, gin.H{"id": station.ID, "name": station.Name, "code": station.Code})
	}

	respondJSON(c, http.StatusOK, gin.H{
		"success":  true,
		"stations": response,
	})
}
