package premium

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docufind/backend/internal/payments"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/premium/upgrade/", h.Upgrade)
	rg.GET("/premium/status/:id/", h.Status)
}

type upgradeBody struct {
	LostDocID         int64  `json:"lost_doc_id"`
	VerificationInput string `json:"verification_input"`
	PhoneNumber       string `json:"phone_number"`
}

func (h *Handler) Upgrade(c *gin.Context) {
	var body upgradeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body."})
		return
	}
	if body.PhoneNumber == "" || body.VerificationInput == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Phone number and verification are required."})
		return
	}

	p, err := h.service.Upgrade(c.Request.Context(), body.LostDocID, body.VerificationInput, body.PhoneNumber)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "payment_id": p.ID.String()})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Lost report not found."})
	case errors.Is(err, ErrVerificationFailed):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Verification failed."})
	default:
		h.logger.Error("Premium upgrade failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Payment could not be initiated."})
	}
}

func (h *Handler) Status(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment id."})
		return
	}

	p, err := h.service.Status(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, payments.ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found."})
			return
		}
		h.logger.Error("Premium status check failed", zap.String("payment_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check payment status."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"paid": p.Paid(), "status": p.Status})
}
