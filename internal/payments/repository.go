package payments

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreatePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error)

	// UpdateStatus applies from→to atomically; the WHERE guard keeps
	// terminal statuses from being overwritten by concurrent polls.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)

	GrantContactAccess(ctx context.Context, access *ContactAccess) error
	HasContactAccess(ctx context.Context, reportType string, reportID int64, userEmail string) (bool, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreatePayment(ctx context.Context, p *Payment) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO payments (
			id, purpose, report_type, report_id, phone_number,
			user_email, amount, currency, status
		) VALUES (
			:id, :purpose, :report_type, :report_id, :phone_number,
			:user_email, :amount, :currency, :status
		)`, p)
	return err
}

func (r *postgresRepository) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	var p Payment
	err := r.db.GetContext(ctx, &p, "SELECT * FROM payments WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &p, err
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *postgresRepository) GrantContactAccess(ctx context.Context, access *ContactAccess) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contact_access (payment_id, report_type, report_id, user_email)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (payment_id) DO NOTHING`,
		access.PaymentID, access.ReportType, access.ReportID, access.UserEmail)
	return err
}

func (r *postgresRepository) HasContactAccess(ctx context.Context, reportType string, reportID int64, userEmail string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM contact_access
		WHERE report_type = $1 AND report_id = $2 AND LOWER(user_email) = LOWER($3)`,
		reportType, reportID, userEmail)
	return count > 0, err
}
