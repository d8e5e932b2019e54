package reports

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	ListDocumentTypes(ctx context.Context) ([]DocumentType, error)
	GetDocumentType(ctx context.Context, id int64) (*DocumentType, error)

	GetOrCreateContact(ctx context.Context, contact *ContactInfo) error
	GetContact(ctx context.Context, id int64) (*ContactInfo, error)

	CreateLost(ctx context.Context, doc *LostDocument) error
	GetLost(ctx context.Context, id int64) (*LostDocument, error)
	ListLost(ctx context.Context, filter SearchFilter) ([]LostDocument, error)
	UpdateLost(ctx context.Context, doc *LostDocument) error

	CreateFound(ctx context.Context, doc *FoundDocument) error
	GetFound(ctx context.Context, id int64) (*FoundDocument, error)
	ListFound(ctx context.Context, filter SearchFilter) ([]FoundDocument, error)
	UpdateFound(ctx context.Context, doc *FoundDocument) error

	DeactivateLost(ctx context.Context, id int64) error
	DeactivateFound(ctx context.Context, id int64) error
	ActivatePremium(ctx context.Context, lostID int64, paymentID uuid.UUID, expiresAt time.Time) error
	ExpirePremium(ctx context.Context) (int64, error)

	FindMatchingLost(ctx context.Context, found *FoundDocument) ([]LostDocument, error)
	FindMatchingFound(ctx context.Context, lost *LostDocument) ([]FoundDocument, error)
	MatchNotified(ctx context.Context, lostID, foundID int64) (bool, error)
	RecordMatchNotification(ctx context.Context, lostID, foundID int64) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) ListDocumentTypes(ctx context.Context) ([]DocumentType, error) {
	var types []DocumentType
	err := r.db.SelectContext(ctx, &types, "SELECT * FROM document_types ORDER BY name")
	return types, err
}

func (r *postgresRepository) GetDocumentType(ctx context.Context, id int64) (*DocumentType, error) {
	var dt DocumentType
	err := r.db.GetContext(ctx, &dt, "SELECT * FROM document_types WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &dt, err
}

// GetOrCreateContact reuses an identical contact row when one exists,
// mirroring repeat reporters onto a single record.
func (r *postgresRepository) GetOrCreateContact(ctx context.Context, contact *ContactInfo) error {
	err := r.db.GetContext(ctx, &contact.ID, `
		SELECT id FROM contacts
		WHERE full_name = $1 AND phone = $2 AND COALESCE(email, '') = COALESCE($3, '')`,
		contact.FullName, contact.Phone, contact.Email)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}
	return r.db.GetContext(ctx, &contact.ID, `
		INSERT INTO contacts (full_name, phone, email)
		VALUES ($1, $2, $3) RETURNING id`,
		contact.FullName, contact.Phone, contact.Email)
}

func (r *postgresRepository) GetContact(ctx context.Context, id int64) (*ContactInfo, error) {
	var c ContactInfo
	err := r.db.GetContext(ctx, &c, "SELECT * FROM contacts WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &c, err
}

func (r *postgresRepository) CreateLost(ctx context.Context, doc *LostDocument) error {
	return r.db.GetContext(ctx, &doc.ID, `
		INSERT INTO lost_documents (
			owner_name, document_type_id, document_number, issue_date,
			where_lost, when_lost, description, image_key, image_blurred_key, contact_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		doc.OwnerName, doc.DocumentTypeID, doc.DocumentNumber, doc.IssueDate,
		doc.WhereLost, doc.WhenLost, doc.Description, doc.ImageKey, doc.ImageBlurredKey, doc.ContactID)
}

func (r *postgresRepository) GetLost(ctx context.Context, id int64) (*LostDocument, error) {
	var doc LostDocument
	err := r.db.GetContext(ctx, &doc,
		"SELECT * FROM lost_documents WHERE id = $1 AND deactivated_at IS NULL", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &doc, err
}

func (r *postgresRepository) ListLost(ctx context.Context, filter SearchFilter) ([]LostDocument, error) {
	query := `
		SELECT * FROM lost_documents
		WHERE deactivated_at IS NULL`
	args := []interface{}{}
	argCount := 1

	if filter.DocumentTypeID != nil {
		query += fmt.Sprintf(" AND document_type_id = $%d", argCount)
		args = append(args, *filter.DocumentTypeID)
		argCount++
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (owner_name ILIKE $%d OR document_number ILIKE $%d)", argCount, argCount)
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		argCount++
	}

	// premium listings rotate to the top while their paid interval lasts
	query += ` ORDER BY (is_premium AND premium_expires_at > NOW()) DESC, created_at DESC`
	query += limitOffset(&args, &argCount, filter)

	var docs []LostDocument
	err := r.db.SelectContext(ctx, &docs, query, args...)
	return docs, err
}

func (r *postgresRepository) UpdateLost(ctx context.Context, doc *LostDocument) error {
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE lost_documents SET
			owner_name = :owner_name,
			document_number = :document_number,
			description = :description,
			image_key = :image_key,
			image_blurred_key = :image_blurred_key,
			is_premium = :is_premium,
			premium_expires_at = :premium_expires_at,
			premium_payment_id = :premium_payment_id
		WHERE id = :id`, doc)
	return err
}

func (r *postgresRepository) CreateFound(ctx context.Context, doc *FoundDocument) error {
	return r.db.GetContext(ctx, &doc.ID, `
		INSERT INTO found_documents (
			found_name, document_type_id, document_number,
			where_found, when_found, description, image_key, image_blurred_key, contact_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		doc.FoundName, doc.DocumentTypeID, doc.DocumentNumber,
		doc.WhereFound, doc.WhenFound, doc.Description, doc.ImageKey, doc.ImageBlurredKey, doc.ContactID)
}

func (r *postgresRepository) GetFound(ctx context.Context, id int64) (*FoundDocument, error) {
	var doc FoundDocument
	err := r.db.GetContext(ctx, &doc,
		"SELECT * FROM found_documents WHERE id = $1 AND deactivated_at IS NULL", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &doc, err
}

func (r *postgresRepository) ListFound(ctx context.Context, filter SearchFilter) ([]FoundDocument, error) {
	query := `
		SELECT * FROM found_documents
		WHERE deactivated_at IS NULL`
	args := []interface{}{}
	argCount := 1

	if filter.DocumentTypeID != nil {
		query += fmt.Sprintf(" AND document_type_id = $%d", argCount)
		args = append(args, *filter.DocumentTypeID)
		argCount++
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (found_name ILIKE $%d OR document_number ILIKE $%d)", argCount, argCount)
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		argCount++
	}

	query += " ORDER BY created_at DESC"
	query += limitOffset(&args, &argCount, filter)

	var docs []FoundDocument
	err := r.db.SelectContext(ctx, &docs, query, args...)
	return docs, err
}

func (r *postgresRepository) UpdateFound(ctx context.Context, doc *FoundDocument) error {
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE found_documents SET
			found_name = :found_name,
			document_number = :document_number,
			description = :description,
			image_key = :image_key,
			image_blurred_key = :image_blurred_key
		WHERE id = :id`, doc)
	return err
}

func (r *postgresRepository) DeactivateLost(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE lost_documents SET deactivated_at = NOW() WHERE id = $1 AND deactivated_at IS NULL", id)
	return err
}

func (r *postgresRepository) DeactivateFound(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE found_documents SET deactivated_at = NOW() WHERE id = $1 AND deactivated_at IS NULL", id)
	return err
}

// ActivatePremium applies a paid upgrade once per payment; replaying
// the same payment id is a no-op so status polling stays idempotent.
func (r *postgresRepository) ActivatePremium(ctx context.Context, lostID int64, paymentID uuid.UUID, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE lost_documents SET
			is_premium = TRUE,
			premium_expires_at = $3,
			premium_payment_id = $2
		WHERE id = $1 AND deactivated_at IS NULL
		  AND premium_payment_id IS DISTINCT FROM $2`,
		lostID, paymentID, expiresAt)
	return err
}

// ExpirePremium clears premium flags whose paid interval has lapsed.
// Called by the maintenance worker.
func (r *postgresRepository) ExpirePremium(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE lost_documents SET is_premium = FALSE
		WHERE is_premium = TRUE AND premium_expires_at IS NOT NULL AND premium_expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *postgresRepository) FindMatchingLost(ctx context.Context, found *FoundDocument) ([]LostDocument, error) {
	if found.FoundName == nil || found.DocumentNumber == nil || *found.DocumentNumber == "" {
		return nil, nil
	}
	var docs []LostDocument
	err := r.db.SelectContext(ctx, &docs, `
		SELECT * FROM lost_documents
		WHERE deactivated_at IS NULL
		  AND document_type_id = $1
		  AND LOWER(TRIM(owner_name)) = LOWER(TRIM($2))
		  AND document_number IS NOT NULL AND document_number <> ''
		  AND LOWER(TRIM(document_number)) = LOWER(TRIM($3))`,
		found.DocumentTypeID, *found.FoundName, *found.DocumentNumber)
	return docs, err
}

func (r *postgresRepository) FindMatchingFound(ctx context.Context, lost *LostDocument) ([]FoundDocument, error) {
	if lost.DocumentNumber == nil || *lost.DocumentNumber == "" {
		return nil, nil
	}
	var docs []FoundDocument
	err := r.db.SelectContext(ctx, &docs, `
		SELECT * FROM found_documents
		WHERE deactivated_at IS NULL
		  AND document_type_id = $1
		  AND found_name IS NOT NULL
		  AND LOWER(TRIM(found_name)) = LOWER(TRIM($2))
		  AND document_number IS NOT NULL AND document_number <> ''
		  AND LOWER(TRIM(document_number)) = LOWER(TRIM($3))`,
		lost.DocumentTypeID, lost.OwnerName, *lost.DocumentNumber)
	return docs, err
}

func (r *postgresRepository) MatchNotified(ctx context.Context, lostID, foundID int64) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM match_notifications WHERE lost_id = $1 AND found_id = $2", lostID, foundID)
	return count > 0, err
}

func (r *postgresRepository) RecordMatchNotification(ctx context.Context, lostID, foundID int64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO match_notifications (lost_id, found_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		lostID, foundID)
	return err
}

// escapeLike neutralizes LIKE metacharacters so a user search term is
// matched literally inside the ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func limitOffset(args *[]interface{}, argCount *int, filter SearchFilter) string {
	clause := ""
	if filter.Limit > 0 {
		clause += fmt.Sprintf(" LIMIT $%d", *argCount)
		*args = append(*args, filter.Limit)
		*argCount++
	}
	if filter.Offset > 0 {
		clause += fmt.Sprintf(" OFFSET $%d", *argCount)
		*args = append(*args, filter.Offset)
		*argCount++
	}
	return clause
}
