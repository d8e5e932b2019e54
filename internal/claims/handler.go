package claims

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docufind/backend/internal/reports"
)

type Handler struct {
	service Service
	reports reports.Service
	logger  *zap.Logger
}

func NewHandler(service Service, reportsSvc reports.Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, reports: reportsSvc, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/claims/start/", h.StartClaim)
	rg.GET("/claims/verify/", h.VerifyClaim)
	rg.GET("/protected-image/", h.ProtectedImage)
}

type startClaimBody struct {
	ReportType     string `json:"report_type"`
	ReportID       int64  `json:"report_id"`
	ContactEmail   string `json:"contact_email"`
	ContactPhone   string `json:"contact_phone"`
	DocumentNumber string `json:"document_number"`
}

func (h *Handler) StartClaim(c *gin.Context) {
	var body startClaimBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body."})
		return
	}
	if body.ContactEmail == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Contact email is required."})
		return
	}

	err := h.service.StartClaim(c.Request.Context(), StartClaimRequest{
		ReportType:     body.ReportType,
		ReportID:       body.ReportID,
		ContactEmail:   body.ContactEmail,
		ContactPhone:   body.ContactPhone,
		DocumentNumber: body.DocumentNumber,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"detail": "Verification email sent. Please check your email."})
	case errors.Is(err, ErrInvalidReportType):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid report type."})
	case errors.Is(err, ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Report not found."})
	case errors.Is(err, ErrNumberMismatch):
		c.JSON(http.StatusForbidden, gin.H{"detail": "Document number does not match our records."})
	default:
		h.logger.Error("Claim start failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Could not start claim."})
	}
}

func (h *Handler) VerifyClaim(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Missing token"})
		return
	}

	full, err := h.service.VerifyClaim(c.Request.Context(), token)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, full)
	case errors.Is(err, ErrTokenNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Invalid token"})
	case errors.Is(err, ErrTokenExpired):
		c.JSON(http.StatusGone, gin.H{"detail": "Token expired."})
	case errors.Is(err, ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Report not found."})
	default:
		h.logger.Error("Claim verification failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Verification failed."})
	}
}

// ProtectedImage streams the original, unblurred image to holders of
// a valid claim token for the same report.
func (h *Handler) ProtectedImage(c *gin.Context) {
	reportType := c.Query("report_type")
	token := c.Query("token")
	reportID, err := strconv.ParseInt(c.Query("report_id"), 10, 64)
	if reportType == "" || token == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Missing params"})
		return
	}

	if err := h.service.AuthorizeImage(c.Request.Context(), token, reportType, reportID); err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			c.JSON(http.StatusGone, gin.H{"detail": "Token expired"})
		case errors.Is(err, ErrTokenNotFound):
			c.JSON(http.StatusForbidden, gin.H{"detail": "Invalid token"})
		default:
			h.logger.Error("Image authorization failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Authorization failed"})
		}
		return
	}

	rec, err := h.reports.Get(c.Request.Context(), reports.ReportType(reportType), reportID)
	if err != nil || rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Report not found"})
		return
	}
	if rec.OriginalImage == nil || *rec.OriginalImage == "" {
		c.JSON(http.StatusNotFound, gin.H{"detail": "No original image"})
		return
	}

	reader, err := h.reports.OpenImage(c.Request.Context(), *rec.OriginalImage)
	if err != nil {
		h.logger.Error("Failed to open image", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to load image"})
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, "image/jpeg", reader, nil)
}
