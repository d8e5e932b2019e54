package claims

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreateToken(ctx context.Context, token *VerificationToken) error
	GetToken(ctx context.Context, token uuid.UUID) (*VerificationToken, error)
	MarkUsed(ctx context.Context, id int64) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateToken(ctx context.Context, token *VerificationToken) error {
	return r.db.GetContext(ctx, &token.ID, `
		INSERT INTO verification_tokens (token, report_type, report_id, contact_email, contact_phone, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		token.Token, token.ReportType, token.ReportID, token.ContactEmail, token.ContactPhone, token.ExpiresAt)
}

func (r *postgresRepository) GetToken(ctx context.Context, token uuid.UUID) (*VerificationToken, error) {
	var vt VerificationToken
	err := r.db.GetContext(ctx, &vt, "SELECT * FROM verification_tokens WHERE token = $1", token)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &vt, err
}

func (r *postgresRepository) MarkUsed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE verification_tokens SET used_at = NOW() WHERE id = $1 AND used_at IS NULL", id)
	return err
}

func (r *postgresRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM verification_tokens WHERE expires_at < NOW()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
