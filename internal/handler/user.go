package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"metro/internal/service"
)

// UserHandler handles HTTP requests for rider profiles and balances.
type UserHandler struct {
	userService       *service.UserService
	enrollmentService *service.EnrollmentService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, enrollmentService *service.EnrollmentService) *UserHandler {
	return &UserHandler{
		userService:       userService,
		enrollmentService: enrollmentService,
	}
}

// UserResponse is the HTTP response for rider data.
type UserResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Balance       float64 `json:"balance"`
	FingerprintID int64   `json:"fingerprintId"`
}

// GetUser handles GET /api/user/:fingerprintId
func (h *UserHandler) GetUser(c *gin.Context) {
	fingerprintID, err := strconv.ParseInt(c.Param("fingerprintId"), 10, 64)
	if err != nil {
		respondError(c, service.ErrInvalidFingerprintID)
		return
	}

	user, err := h.userService.GetByFingerprint(c.Request.Context(), fingerprintID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"success": true,
		"user": UserResponse{
			ID:            user.ID,
			Name:          user.Name,
			Email:         user.Email,
			Balance:       user.Balance,
			FingerprintID: user.FingerprintID,
		},
	})
}

// AddBalanceRequest is the HTTP request body for a balance top-up.
type AddBalanceRequest struct {
	FingerprintID int64   `json:"fingerprintId"`
	Amount        float64 `json:"amount"`
}

// AddBalance handles POST /api/user/add-balance
func (h *UserHandler) AddBalance(c *gin.Context) {
	var req AddBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Message: "invalid request body"})
		return
	}

	newBalance, err := h.userService.AddBalance(c.Request.Context(), req.FingerprintID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"success":    true,
		"message":    "Balance added successfully",
		"newBalance": newBalance,
	})
}

// LatestEnrolled handles GET /api/users/latest-temp. The admin enrollment
// flow uses it to find the fingerprint the reader just captured.
func (h *UserHandler) LatestEnrolled(c *gin.Context) {
	user, err := h.enrollmentService.LatestEnrolled(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"success":       true,
		"fingerprintId": user.FingerprintID,
		"registeredAt":  user.RegisteredAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}
