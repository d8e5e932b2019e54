package removal

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:type/:id/request-removal/", h.RequestRemoval)
	rg.GET("/documents/confirm-removal/", h.ConfirmRemoval)
}

type requestRemovalBody struct {
	VerificationInput string `json:"verification_input"`
	Reason            string `json:"reason"`
}

func (h *Handler) RequestRemoval(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report id."})
		return
	}

	var body requestRemovalBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	err = h.service.Request(c.Request.Context(), RemovalRequest{
		ReportType:        c.Param("type"),
		ReportID:          id,
		VerificationInput: body.VerificationInput,
		Reason:            Reason(body.Reason),
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "detail": "Confirmation email sent."})
	case errors.Is(err, ErrInvalidReportType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report type."})
	case errors.Is(err, ErrInvalidReason):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid removal reason."})
	case errors.Is(err, ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found."})
	case errors.Is(err, ErrVerificationFailed):
		c.JSON(http.StatusForbidden, gin.H{"error": "Verification failed."})
	case errors.Is(err, ErrNoContactEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No contact email on file for this report."})
	default:
		h.logger.Error("Removal request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to request removal."})
	}
}

func (h *Handler) ConfirmRemoval(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token is required."})
		return
	}

	name, err := h.service.Confirm(c.Request.Context(), token)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "document_name": name})
	case errors.Is(err, ErrTokenNotFound), errors.Is(err, ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid or already used token."})
	case errors.Is(err, ErrTokenExpired):
		c.JSON(http.StatusGone, gin.H{"error": "This confirmation link has expired."})
	default:
		h.logger.Error("Removal confirmation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm removal."})
	}
}
