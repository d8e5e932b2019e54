package verification

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
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/verify/:type/:id/", h.Verify)
}

type verifyBody struct {
	VerificationInput string `json:"verification_input"`
}

// Verify never explains which field was wrong; wrong guesses, missing
// records and malformed ids all collapse into the same failure shape.
func (h *Handler) Verify(c *gin.Context) {
	reportType := reports.ReportType(c.Param("type"))
	id, idErr := strconv.ParseInt(c.Param("id"), 10, 64)

	var body verifyBody
	if err := c.ShouldBindJSON(&body); err != nil || !reportType.Valid() || idErr != nil {
		c.JSON(http.StatusOK, gin.H{"verified": false})
		return
	}

	result, err := h.service.Verify(c.Request.Context(), reportType, id, body.VerificationInput, c.ClientIP())
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			c.JSON(http.StatusTooManyRequests, gin.H{"verified": false, "detail": "Too many attempts. Try again later."})
			return
		}
		h.logger.Error("Verification error", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"verified": false})
		return
	}

	if !result.Verified {
		c.JSON(http.StatusOK, gin.H{"verified": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true, "document": result.Document})
}
