package reports

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docufind/backend/pkg/images"
	"docufind/backend/pkg/storage"
)

// MatchHook is invoked after a report is created so the matching
// notifier can look for counterparts in the background.
type MatchHook func(reportType ReportType, id int64)

type Service interface {
	DocumentTypes(ctx context.Context) ([]DocumentType, error)

	CreateLost(ctx context.Context, req CreateLostRequest) (*PublicReport, error)
	CreateFound(ctx context.Context, req CreateFoundRequest) (*PublicReport, error)

	SearchLost(ctx context.Context, filter SearchFilter) ([]PublicReport, error)
	SearchFound(ctx context.Context, filter SearchFilter) ([]PublicReport, error)
	GetPublic(ctx context.Context, reportType ReportType, id int64) (*PublicReport, error)

	// Get returns the normalized record for cross-package use
	// (verification, claims, removal). Nil when absent or deactivated.
	Get(ctx context.Context, reportType ReportType, id int64) (*Record, error)

	// Full builds the unmasked serialization. The contact block stays
	// nil; payment unlock attaches it separately.
	Full(ctx context.Context, reportType ReportType, id int64) (*FullReport, error)

	Contact(ctx context.Context, reportType ReportType, id int64) (*ContactInfo, error)
	OpenImage(ctx context.Context, key string) (io.ReadCloser, error)

	Deactivate(ctx context.Context, reportType ReportType, id int64) error
	ActivatePremium(ctx context.Context, lostID int64, paymentID uuid.UUID, expiresAt time.Time) error
	ExpirePremium(ctx context.Context) (int64, error)

	SetMatchHook(hook MatchHook)
}

// Record is the tagged-variant view over lost/found rows: one shape,
// no ad hoc field-name branching downstream.
type Record struct {
	Type           ReportType
	ID             int64
	Name           string // owner name (lost) or finder name (found)
	DocumentNumber *string
	DocumentType   DocumentType
	ContactID      int64
	OriginalImage  *string // storage key
}

// DisplayName is what removal confirmations and emails call the record.
func (r *Record) DisplayName() string {
	if r.Name != "" {
		return fmt.Sprintf("%s - %s", r.Name, r.DocumentType.Name)
	}
	return r.DocumentType.Name
}

type CreateLostRequest struct {
	OwnerName      string
	DocumentTypeID int64
	DocumentNumber string
	IssueDate      *time.Time
	WhereLost      string
	WhenLost       *time.Time
	Description    string
	Image          io.Reader // optional
	ImageName      string
	Contact        ContactInfo
}

type CreateFoundRequest struct {
	FoundName      string
	DocumentTypeID int64
	DocumentNumber string
	WhereFound     string
	WhenFound      *time.Time
	Description    string
	Image          io.Reader // required
	ImageName      string
	Contact        ContactInfo
}

type reportService struct {
	repo      Repository
	store     storage.ObjectStore
	mediaBase string
	logger    *zap.Logger
	matchHook MatchHook
	now       func() time.Time
}

func NewService(repo Repository, store storage.ObjectStore, mediaBase string, logger *zap.Logger) Service {
	return &reportService{
		repo:      repo,
		store:     store,
		mediaBase: strings.TrimRight(mediaBase, "/"),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *reportService) SetMatchHook(hook MatchHook) {
	s.matchHook = hook
}

func (s *reportService) DocumentTypes(ctx context.Context) ([]DocumentType, error) {
	return s.repo.ListDocumentTypes(ctx)
}

// storeImage writes the original upload and a blurred public copy.
func (s *reportService) storeImage(ctx context.Context, prefix string, name string, r io.Reader) (origKey, blurKey string, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", fmt.Errorf("failed to read image: %w", err)
	}

	blurred, err := images.BlurJPEG(strings.NewReader(string(data)))
	if err != nil {
		return "", "", fmt.Errorf("invalid image: %w", err)
	}

	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		ext = ".jpg"
	}
	base := uuid.New().String()
	origKey = fmt.Sprintf("%s/%s%s", prefix, base, ext)
	blurKey = fmt.Sprintf("%s/blurred/%s.jpg", prefix, base)

	if err := s.store.Upload(ctx, origKey, contentTypeFor(ext), strings.NewReader(string(data))); err != nil {
		return "", "", err
	}
	if err := s.store.Upload(ctx, blurKey, "image/jpeg", strings.NewReader(string(blurred))); err != nil {
		return "", "", err
	}
	return origKey, blurKey, nil
}

func contentTypeFor(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

func (s *reportService) CreateLost(ctx context.Context, req CreateLostRequest) (*PublicReport, error) {
	dt, err := s.repo.GetDocumentType(ctx, req.DocumentTypeID)
	if err != nil {
		return nil, err
	}
	if dt == nil {
		return nil, ErrUnknownDocumentType
	}

	contact := req.Contact
	if err := s.repo.GetOrCreateContact(ctx, &contact); err != nil {
		return nil, fmt.Errorf("failed to save contact: %w", err)
	}

	doc := &LostDocument{
		OwnerName:      strings.TrimSpace(req.OwnerName),
		DocumentTypeID: req.DocumentTypeID,
		DocumentNumber: optional(req.DocumentNumber),
		IssueDate:      req.IssueDate,
		WhereLost:      optional(req.WhereLost),
		WhenLost:       req.WhenLost,
		Description:    optional(req.Description),
		ContactID:      contact.ID,
		CreatedAt:      s.now(),
	}

	if req.Image != nil {
		orig, blur, err := s.storeImage(ctx, "lost_docs", req.ImageName, req.Image)
		if err != nil {
			return nil, err
		}
		doc.ImageKey = &orig
		doc.ImageBlurredKey = &blur
	}

	if err := s.repo.CreateLost(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create lost report: %w", err)
	}
	s.logger.Info("Lost report created", zap.Int64("id", doc.ID), zap.String("document_type", dt.Name))

	if s.matchHook != nil {
		go s.matchHook(TypeLost, doc.ID)
	}
	return s.publicLost(doc, *dt), nil
}

func (s *reportService) CreateFound(ctx context.Context, req CreateFoundRequest) (*PublicReport, error) {
	dt, err := s.repo.GetDocumentType(ctx, req.DocumentTypeID)
	if err != nil {
		return nil, err
	}
	if dt == nil {
		return nil, ErrUnknownDocumentType
	}
	if req.Image == nil {
		return nil, ErrImageRequired
	}

	contact := req.Contact
	if err := s.repo.GetOrCreateContact(ctx, &contact); err != nil {
		return nil, fmt.Errorf("failed to save contact: %w", err)
	}

	orig, blur, err := s.storeImage(ctx, "found_docs", req.ImageName, req.Image)
	if err != nil {
		return nil, err
	}

	doc := &FoundDocument{
		FoundName:       optional(req.FoundName),
		DocumentTypeID:  req.DocumentTypeID,
		DocumentNumber:  optional(req.DocumentNumber),
		WhereFound:      optional(req.WhereFound),
		WhenFound:       req.WhenFound,
		Description:     optional(req.Description),
		ImageKey:        orig,
		ImageBlurredKey: &blur,
		ContactID:       contact.ID,
		CreatedAt:       s.now(),
	}

	if err := s.repo.CreateFound(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create found report: %w", err)
	}
	s.logger.Info("Found report created", zap.Int64("id", doc.ID), zap.String("document_type", dt.Name))

	if s.matchHook != nil {
		go s.matchHook(TypeFound, doc.ID)
	}
	return s.publicFound(doc, *dt), nil
}

func (s *reportService) SearchLost(ctx context.Context, filter SearchFilter) ([]PublicReport, error) {
	docs, err := s.repo.ListLost(ctx, filter)
	if err != nil {
		return nil, err
	}
	types, err := s.typeIndex(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PublicReport, 0, len(docs))
	for i := range docs {
		out = append(out, *s.publicLost(&docs[i], types[docs[i].DocumentTypeID]))
	}
	return out, nil
}

func (s *reportService) SearchFound(ctx context.Context, filter SearchFilter) ([]PublicReport, error) {
	docs, err := s.repo.ListFound(ctx, filter)
	if err != nil {
		return nil, err
	}
	types, err := s.typeIndex(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PublicReport, 0, len(docs))
	for i := range docs {
		out = append(out, *s.publicFound(&docs[i], types[docs[i].DocumentTypeID]))
	}
	return out, nil
}

func (s *reportService) GetPublic(ctx context.Context, reportType ReportType, id int64) (*PublicReport, error) {
	switch reportType {
	case TypeLost:
		doc, err := s.repo.GetLost(ctx, id)
		if err != nil || doc == nil {
			return nil, err
		}
		dt, err := s.repo.GetDocumentType(ctx, doc.DocumentTypeID)
		if err != nil {
			return nil, err
		}
		return s.publicLost(doc, *dt), nil
	case TypeFound:
		doc, err := s.repo.GetFound(ctx, id)
		if err != nil || doc == nil {
			return nil, err
		}
		dt, err := s.repo.GetDocumentType(ctx, doc.DocumentTypeID)
		if err != nil {
			return nil, err
		}
		return s.publicFound(doc, *dt), nil
	}
	return nil, ErrInvalidReportType
}

func (s *reportService) Get(ctx context.Context, reportType ReportType, id int64) (*Record, error) {
	switch reportType {
	case TypeLost:
		doc, err := s.repo.GetLost(ctx, id)
		if err != nil || doc == nil {
			return nil, err
		}
		dt, err := s.repo.GetDocumentType(ctx, doc.DocumentTypeID)
		if err != nil {
			return nil, err
		}
		return &Record{
			Type:           TypeLost,
			ID:             doc.ID,
			Name:           doc.OwnerName,
			DocumentNumber: doc.DocumentNumber,
			DocumentType:   *dt,
			ContactID:      doc.ContactID,
			OriginalImage:  doc.ImageKey,
		}, nil
	case TypeFound:
		doc, err := s.repo.GetFound(ctx, id)
		if err != nil || doc == nil {
			return nil, err
		}
		dt, err := s.repo.GetDocumentType(ctx, doc.DocumentTypeID)
		if err != nil {
			return nil, err
		}
		name := ""
		if doc.FoundName != nil {
			name = *doc.FoundName
		}
		return &Record{
			Type:           TypeFound,
			ID:             doc.ID,
			Name:           name,
			DocumentNumber: doc.DocumentNumber,
			DocumentType:   *dt,
			ContactID:      doc.ContactID,
			OriginalImage:  &doc.ImageKey,
		}, nil
	}
	return nil, ErrInvalidReportType
}

func (s *reportService) Full(ctx context.Context, reportType ReportType, id int64) (*FullReport, error) {
	switch reportType {
	case TypeLost:
		doc, err := s.repo.GetLost(ctx, id)
		if err != nil || doc == nil {
			return nil, err
		}
		dt, err := s.repo.GetDocumentType(ctx, doc.DocumentTypeID)
		if err != nil {
			return nil, err
		}
		return &FullReport{
			ID:             doc.ID,
			Type:           TypeLost,
			DocumentType:   *dt,
			OwnerName:      &doc.OwnerName,
			DocumentNumber: doc.DocumentNumber,
			IssueDate:      dateString(doc.IssueDate),
			WhereLost:      doc.WhereLost,
			WhenLost:       dateString(doc.WhenLost),
			Description:    doc.Description,
			Image:          s.imageURL(doc.ImageKey),
			CreatedAt:      doc.CreatedAt,
			ContactLocked:  true,
		}, nil
	case TypeFound:
		doc, err := s.repo.GetFound(ctx, id)
		if err != nil || doc == nil {
			return nil, err
		}
		dt, err := s.repo.GetDocumentType(ctx, doc.DocumentTypeID)
		if err != nil {
			return nil, err
		}
		return &FullReport{
			ID:             doc.ID,
			Type:           TypeFound,
			DocumentType:   *dt,
			FinderName:     doc.FoundName,
			DocumentNumber: doc.DocumentNumber,
			WhereFound:     doc.WhereFound,
			WhenFound:      dateString(doc.WhenFound),
			Description:    doc.Description,
			Image:          s.imageURL(&doc.ImageKey),
			CreatedAt:      doc.CreatedAt,
			ContactLocked:  true,
		}, nil
	}
	return nil, ErrInvalidReportType
}

func (s *reportService) Contact(ctx context.Context, reportType ReportType, id int64) (*ContactInfo, error) {
	rec, err := s.Get(ctx, reportType, id)
	if err != nil || rec == nil {
		return nil, err
	}
	return s.repo.GetContact(ctx, rec.ContactID)
}

func (s *reportService) OpenImage(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.store.Download(ctx, key)
}

func (s *reportService) Deactivate(ctx context.Context, reportType ReportType, id int64) error {
	switch reportType {
	case TypeLost:
		return s.repo.DeactivateLost(ctx, id)
	case TypeFound:
		return s.repo.DeactivateFound(ctx, id)
	}
	return ErrInvalidReportType
}

func (s *reportService) ActivatePremium(ctx context.Context, lostID int64, paymentID uuid.UUID, expiresAt time.Time) error {
	if err := s.repo.ActivatePremium(ctx, lostID, paymentID, expiresAt); err != nil {
		return err
	}
	s.logger.Info("Premium activated",
		zap.Int64("lost_id", lostID),
		zap.String("payment_id", paymentID.String()),
		zap.Time("expires_at", expiresAt))
	return nil
}

func (s *reportService) ExpirePremium(ctx context.Context) (int64, error) {
	return s.repo.ExpirePremium(ctx)
}

func (s *reportService) typeIndex(ctx context.Context) (map[int64]DocumentType, error) {
	types, err := s.repo.ListDocumentTypes(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(map[int64]DocumentType, len(types))
	for _, t := range types {
		idx[t.ID] = t
	}
	return idx, nil
}

func (s *reportService) publicLost(doc *LostDocument, dt DocumentType) *PublicReport {
	now := s.now()
	pub := &PublicReport{
		ID:             doc.ID,
		Type:           TypeLost,
		DocumentType:   dt,
		OwnerName:      maskNamePtr(&doc.OwnerName),
		DocumentNumber: maskStringPtr(doc.DocumentNumber),
		WhereLost:      doc.WhereLost,
		WhenLost:       dateString(doc.WhenLost),
		Description:    doc.Description,
		Image:          s.imageURL(blurredOrNil(doc.ImageBlurredKey, doc.ImageKey)),
		CreatedAt:      doc.CreatedAt,
		IsPremium:      doc.PremiumActive(now),
	}
	if pub.IsPremium {
		pub.PremiumExpiresAt = doc.PremiumExpiresAt
	}
	return pub
}

func (s *reportService) publicFound(doc *FoundDocument, dt DocumentType) *PublicReport {
	return &PublicReport{
		ID:             doc.ID,
		Type:           TypeFound,
		DocumentType:   dt,
		FinderName:     maskNamePtr(doc.FoundName),
		DocumentNumber: maskStringPtr(doc.DocumentNumber),
		WhereFound:     doc.WhereFound,
		WhenFound:      dateString(doc.WhenFound),
		Description:    doc.Description,
		Image:          s.imageURL(blurredOrNil(doc.ImageBlurredKey, &doc.ImageKey)),
		CreatedAt:      doc.CreatedAt,
	}
}

func (s *reportService) imageURL(key *string) *string {
	if key == nil || *key == "" {
		return nil
	}
	url := s.mediaBase + "/" + *key
	return &url
}

// blurredOrNil prefers the blurred rendition and falls back to the
// original only when no blur was generated (legacy rows).
func blurredOrNil(blurred, original *string) *string {
	if blurred != nil && *blurred != "" {
		return blurred
	}
	return original
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
