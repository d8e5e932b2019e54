package reports

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

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
	rg.GET("/document-types/", h.ListDocumentTypes)

	rg.POST("/lost/", h.CreateLost)
	rg.GET("/lost/search/", h.SearchLost)
	rg.GET("/lost/:id/", h.GetLost)

	rg.POST("/found/", h.CreateFound)
	rg.GET("/found/search/", h.SearchFound)
	rg.GET("/found/:id/", h.GetFound)
}

func (h *Handler) ListDocumentTypes(c *gin.Context) {
	types, err := h.service.DocumentTypes(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list document types", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load document types"})
		return
	}
	c.JSON(http.StatusOK, types)
}

func (h *Handler) CreateLost(c *gin.Context) {
	typeID, err := strconv.ParseInt(c.PostForm("document_type"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document_type is required"})
		return
	}

	// accept both spellings the older clients used
	ownerName := c.PostForm("owner_name")
	if ownerName == "" {
		ownerName = c.PostForm("Owner_name")
	}
	if strings.TrimSpace(ownerName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_name is required"})
		return
	}

	contact, ok := h.contactFromForm(c)
	if !ok {
		return
	}

	req := CreateLostRequest{
		OwnerName:      ownerName,
		DocumentTypeID: typeID,
		DocumentNumber: c.PostForm("document_number"),
		IssueDate:      parseDate(c.PostForm("issue_date")),
		WhereLost:      c.PostForm("where_lost"),
		WhenLost:       parseDate(c.PostForm("when_lost")),
		Description:    c.PostForm("description"),
		Contact:        contact,
	}

	if file, err := c.FormFile("image"); err == nil {
		f, name, ok := h.openUpload(c, file)
		if !ok {
			return
		}
		defer f.Close()
		req.Image = f
		req.ImageName = name
	}

	pub, err := h.service.CreateLost(c.Request.Context(), req)
	if err != nil {
		h.writeCreateError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pub)
}

func (h *Handler) CreateFound(c *gin.Context) {
	typeID, err := strconv.ParseInt(c.PostForm("document_type"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document_type is required"})
		return
	}

	contact, ok := h.contactFromForm(c)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}
	f, name, ok := h.openUpload(c, file)
	if !ok {
		return
	}
	defer f.Close()

	req := CreateFoundRequest{
		FoundName:      c.PostForm("found_name"),
		DocumentTypeID: typeID,
		DocumentNumber: c.PostForm("document_number"),
		WhereFound:     c.PostForm("where_found"),
		WhenFound:      parseDate(c.PostForm("when_found")),
		Description:    c.PostForm("description"),
		Image:          f,
		ImageName:      name,
		Contact:        contact,
	}

	pub, err := h.service.CreateFound(c.Request.Context(), req)
	if err != nil {
		h.writeCreateError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pub)
}

func (h *Handler) SearchLost(c *gin.Context) {
	docs, err := h.service.SearchLost(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		h.logger.Error("Lost search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *Handler) SearchFound(c *gin.Context) {
	docs, err := h.service.SearchFound(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		h.logger.Error("Found search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *Handler) GetLost(c *gin.Context)  { h.getPublic(c, TypeLost) }
func (h *Handler) GetFound(c *gin.Context) { h.getPublic(c, TypeFound) }

func (h *Handler) getPublic(c *gin.Context, reportType ReportType) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	pub, err := h.service.GetPublic(c.Request.Context(), reportType, id)
	if err != nil {
		h.logger.Error("Failed to load report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}
	if pub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	c.JSON(http.StatusOK, pub)
}

func (h *Handler) contactFromForm(c *gin.Context) (ContactInfo, bool) {
	fullName := strings.TrimSpace(c.PostForm("contact_full_name"))
	phone := strings.TrimSpace(c.PostForm("contact_phone"))
	if fullName == "" || phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contact_full_name and contact_phone are required"})
		return ContactInfo{}, false
	}
	contact := ContactInfo{FullName: fullName, Phone: phone}
	if email := strings.TrimSpace(c.PostForm("contact_email")); email != "" {
		contact.Email = &email
	}
	return contact, true
}

func (h *Handler) openUpload(c *gin.Context, file *multipart.FileHeader) (io.ReadCloser, string, bool) {
	f, err := file.Open()
	if err != nil {
		h.logger.Error("Failed to open upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return nil, "", false
	}
	return f, file.Filename, true
}

func (h *Handler) writeCreateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnknownDocumentType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown document type"})
	case errors.Is(err, ErrImageRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
	default:
		h.logger.Error("Failed to create report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create report"})
	}
}

func filterFromQuery(c *gin.Context) SearchFilter {
	filter := SearchFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Limit:  100,
	}
	if v := c.Query("document_type"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.DocumentTypeID = &id
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}
	return filter
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
