package removal

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreateToken(ctx context.Context, token *Token) error
	GetToken(ctx context.Context, token uuid.UUID) (*Token, error)

	// Consume marks the token used; returns false when it already was.
	Consume(ctx context.Context, id int64) (bool, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateToken(ctx context.Context, token *Token) error {
	return r.db.GetContext(ctx, &token.ID, `
		INSERT INTO removal_tokens (token, report_type, report_id, reason, expires_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		token.Token, token.ReportType, token.ReportID, token.Reason, token.ExpiresAt)
}

func (r *postgresRepository) GetToken(ctx context.Context, token uuid.UUID) (*Token, error) {
	var t Token
	err := r.db.GetContext(ctx, &t, "SELECT * FROM removal_tokens WHERE token = $1", token)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &t, err
}

func (r *postgresRepository) Consume(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE removal_tokens SET used_at = NOW() WHERE id = $1 AND used_at IS NULL", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *postgresRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM removal_tokens WHERE expires_at < NOW()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
