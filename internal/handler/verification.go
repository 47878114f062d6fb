package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"metro/internal/repository"
	"metro/internal/service"
)

// VerificationHandler fronts the reader hardware: enrollment reports,
// command polling, and scan verification.
type VerificationHandler struct {
	commandService    *service.CommandService
	tripService       *service.TripService
	enrollmentService *service.EnrollmentService
}

// NewVerificationHandler creates a new VerificationHandler.
func NewVerificationHandler(
	commandService *service.CommandService,
	tripService *service.TripService,
	enrollmentService *service.EnrollmentService,
) *VerificationHandler {
	return &VerificationHandler{
		commandService:    commandService,
		tripService:       tripService,
		enrollmentService: enrollmentService,
	}
}

// EnrollRequest is the HTTP request body for fingerprint enrollment.
type EnrollRequest struct {
	FingerprintID int64 `json:"fingerprintId"`
}

// Enroll handles POST /api/enroll. The reader calls this out of band once
// it has captured a new template in response to an ENROLL command.
func (h *VerificationHandler) Enroll(c *gin.Context) {
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Message: "invalid request body"})
		return
	}

	user, err := h.enrollmentService.Enroll(c.Request.Context(), req.FingerprintID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"success":       true,
		"message":       "Fingerprint enrolled successfully",
		"fingerprintId": user.FingerprintID,
		"balance":       user.Balance,
	})
}

// VerifyRequest is the HTTP request body for a scan verification event.
// Timestamp is unix seconds from the reader clock; zero means the reader
// has no clock and the server time is used.
type VerifyRequest struct {
	DeviceID      string `json:"deviceId"`
	FingerprintID int64  `json:"fingerprintId"`
	Kind          string `json:"type"`
	Timestamp     int64  `json:"timestamp"`
}

// Verify handles POST /api/verify.
func (h *VerificationHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Message: "invalid request body"})
		return
	}

	at := time.Now()
	if req.Timestamp > 0 {
		at = time.Unix(req.Timestamp, 0)
	}

	switch req.Kind {
	case "source":
		trip, err := h.tripService.OnSourceScan(c.Request.Context(), req.FingerprintID, req.DeviceID, at)
		if err != nil {
			respondError(c, err)
			return
		}

		respondJSON(c, http.StatusOK, gin.H{
			"success":             true,
			"message":             "Source verified",
			"tripId":              trip.ID,
			"userId":              trip.UserID,
			"requiresDestination": true,
		})

	case "destination":
		result, err := h.tripService.OnDestinationScan(c.Request.Context(), req.FingerprintID, req.DeviceID, at)
		if err != nil {
			respondError(c, err)
			return
		}

		respondJSON(c, http.StatusOK, gin.H{
			"success":    true,
			"message":    "Destination verified and fare deducted",
			"fare":       result.Fare,
			"newBalance": result.NewBalance,
		})

	default:
		respondError(c, service.ErrInvalidVerificationKind)
	}
}

// PollCommands handles GET /api/commands. An empty queue is a normal
// outcome for a polling reader, not an error.
func (h *VerificationHandler) PollCommands(c *gin.Context) {
	deviceID := c.Query("deviceId")

	cmd, err := h.commandService.DequeueNext(c.Request.Context(), deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondJSON(c, http.StatusOK, gin.H{"message": "No commands available"})
			return
		}
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"command": cmd.Command})
}
