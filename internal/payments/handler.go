package payments

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docufind/backend/internal/reports"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payment/request/", h.RequestPayment)
	rg.GET("/payment/status/:id/", h.PaymentStatus)
}

type requestPaymentBody struct {
	ReportType  string `json:"report_type"`
	ReportID    int64  `json:"report_id"`
	PhoneNumber string `json:"phone_number"`
	UserEmail   string `json:"user_email"`
	// Older clients sent the claimant email under "email".
	Email string `json:"email"`
}

func (b *requestPaymentBody) email() string {
	if b.UserEmail != "" {
		return b.UserEmail
	}
	return b.Email
}

func (h *Handler) RequestPayment(c *gin.Context) {
	var body requestPaymentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body."})
		return
	}
	if body.PhoneNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Phone number is required."})
		return
	}

	p, err := h.service.RequestContactPayment(c.Request.Context(), ContactPaymentRequest{
		ReportType:  reports.ReportType(body.ReportType),
		ReportID:    body.ReportID,
		PhoneNumber: body.PhoneNumber,
		UserEmail:   body.email(),
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "payment_id": p.ID.String()})
	case errors.Is(err, reports.ErrInvalidReportType):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid report type."})
	case errors.Is(err, ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Report not found."})
	default:
		h.logger.Error("Payment request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Payment could not be initiated."})
	}
}

func (h *Handler) PaymentStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment id."})
		return
	}

	p, err := h.service.CheckStatus(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found."})
			return
		}
		h.logger.Error("Status check failed", zap.String("payment_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check payment status."})
		return
	}

	resp := gin.H{"paid": p.Paid(), "status": p.Status}
	if p.Paid() {
		contact, err := h.service.Contact(c.Request.Context(), p)
		if err != nil {
			h.logger.Error("Failed to load contact", zap.String("payment_id", id.String()), zap.Error(err))
		} else if contact != nil {
			resp["contact"] = contact
		}
	}
	c.JSON(http.StatusOK, resp)
}
