package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/bizpilot/layby-engine/internal/domain"
)

type laybyRepository struct {
	db *sqlx.DB
}

func NewLaybyRepository(db *sqlx.DB) LaybyRepository {
	return &laybyRepository{db: db}
}

func (r *laybyRepository) Create(ctx context.Context, order *domain.LaybyOrder) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO layby_orders (id, layby_id, customer_id, status, total_amount, deposit_amount, amount_paid, balance_remaining, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.ExecContext(ctx, orderQuery,
		order.ID,
		order.LaybyID,
		order.CustomerID,
		order.Status,
		order.TotalAmount,
		order.DepositAmount,
		order.AmountPaid,
		order.BalanceRemaining,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return err
	}

	itemQuery := `
		INSERT INTO layby_items (id, layby_id, product_id, description, quantity, unit_price, line_total, collected)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, itemQuery,
			item.ID,
			item.LaybyID,
			item.ProductID,
			item.Description,
			item.Quantity,
			item.UnitPrice,
			item.LineTotal,
			item.Collected,
		)
		if err != nil {
			return err
		}
	}

	scheduleQuery := `
		INSERT INTO layby_schedule (id, layby_id, sequence, due_date, amount_due, amount_paid, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, entry := range order.Schedule {
		_, err = tx.ExecContext(ctx, scheduleQuery,
			entry.ID,
			entry.LaybyID,
			entry.Sequence,
			entry.DueDate,
			entry.AmountDue,
			entry.AmountPaid,
			entry.Status,
			entry.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *laybyRepository) GetByLaybyID(ctx context.Context, laybyID string) (*domain.LaybyOrder, error) {
	orderQuery := `
		SELECT id, layby_id, customer_id, status, total_amount, deposit_amount, amount_paid, balance_remaining, created_at, updated_at
		FROM layby_orders
		WHERE layby_id = $1
	`

	var order domain.LaybyOrder
	if err := r.db.GetContext(ctx, &order, orderQuery, laybyID); err != nil {
		return nil, err
	}

	itemQuery := `
		SELECT id, layby_id, product_id, description, quantity, unit_price, line_total, collected
		FROM layby_items
		WHERE layby_id = $1
		ORDER BY id
	`
	if err := r.db.SelectContext(ctx, &order.Items, itemQuery, laybyID); err != nil {
		return nil, err
	}

	scheduleQuery := `
		SELECT id, layby_id, sequence, due_date, amount_due, amount_paid, status, created_at
		FROM layby_schedule
		WHERE layby_id = $1
		ORDER BY sequence
	`
	if err := r.db.SelectContext(ctx, &order.Schedule, scheduleQuery, laybyID); err != nil {
		return nil, err
	}

	paymentQuery := `
		SELECT id, layby_id, amount, payment_method, note, created_at
		FROM layby_payments
		WHERE layby_id = $1
		ORDER BY created_at
	`
	if err := r.db.SelectContext(ctx, &order.Payments, paymentQuery, laybyID); err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *laybyRepository) SaveSnapshot(ctx context.Context, order *domain.LaybyOrder) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.saveSnapshotTx(ctx, tx, order); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *laybyRepository) SaveSnapshotWithPayment(ctx context.Context, order *domain.LaybyOrder, payment *domain.PaymentRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.saveSnapshotTx(ctx, tx, order); err != nil {
		return err
	}

	paymentQuery := `
		INSERT INTO layby_payments (id, layby_id, amount, payment_method, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(ctx, paymentQuery,
		payment.ID,
		payment.LaybyID,
		payment.Amount,
		payment.PaymentMethod,
		payment.Note,
		payment.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *laybyRepository) saveSnapshotTx(ctx context.Context, tx *sqlx.Tx, order *domain.LaybyOrder) error {
	orderQuery := `
		UPDATE layby_orders
		SET status = $2, amount_paid = $3, balance_remaining = $4, updated_at = $5
		WHERE layby_id = $1
	`
	_, err := tx.ExecContext(ctx, orderQuery,
		order.LaybyID,
		order.Status,
		order.AmountPaid,
		order.BalanceRemaining,
		order.UpdatedAt,
	)
	if err != nil {
		return err
	}

	scheduleQuery := `
		UPDATE layby_schedule
		SET amount_paid = $3, status = $4
		WHERE layby_id = $1 AND sequence = $2
	`
	for _, entry := range order.Schedule {
		_, err = tx.ExecContext(ctx, scheduleQuery,
			entry.LaybyID,
			entry.Sequence,
			entry.AmountPaid,
			entry.Status,
		)
		if err != nil {
			return err
		}
	}

	itemQuery := `
		UPDATE layby_items
		SET collected = $2
		WHERE id = $1
	`
	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, itemQuery, item.ID, item.Collected)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *laybyRepository) ListOpen(ctx context.Context) ([]*domain.LaybyOrder, error) {
	return r.listByStatus(ctx, domain.StatusActive, domain.StatusOverdue)
}

func (r *laybyRepository) ListReadyForCollection(ctx context.Context) ([]*domain.LaybyOrder, error) {
	return r.listByStatus(ctx, domain.StatusReadyForCollection)
}

// listByStatus returns full snapshots for every order in the given statuses.
// Open-order counts are small per store, so the fan-out read is acceptable.
func (r *laybyRepository) listByStatus(ctx context.Context, statuses ...domain.Status) ([]*domain.LaybyOrder, error) {
	query, args, err := sqlx.In(`SELECT layby_id FROM layby_orders WHERE status IN (?) ORDER BY created_at`, statuses)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	orders := make([]*domain.LaybyOrder, 0, len(ids))
	for _, id := range ids {
		order, err := r.GetByLaybyID(ctx, id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, nil
}
