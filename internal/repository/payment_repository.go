package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/bizpilot/layby-engine/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) GetByLaybyID(ctx context.Context, laybyID string) ([]*domain.PaymentRecord, error) {
	query := `
		SELECT id, layby_id, amount, payment_method, note, created_at
		FROM layby_payments
		WHERE layby_id = $1
		ORDER BY created_at
	`

	var payments []*domain.PaymentRecord
	if err := r.db.SelectContext(ctx, &payments, query, laybyID); err != nil {
		return nil, err
	}

	return payments, nil
}
