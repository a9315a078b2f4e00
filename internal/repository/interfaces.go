package repository

import (
	"context"

	"github.com/bizpilot/layby-engine/internal/domain"
)

// LaybyRepository defines the interface for layby order data operations
type LaybyRepository interface {
	// Create persists a new order with its items and schedule
	Create(ctx context.Context, order *domain.LaybyOrder) error

	// GetByLaybyID retrieves a full order snapshot (items, schedule, payments)
	GetByLaybyID(ctx context.Context, laybyID string) (*domain.LaybyOrder, error)

	// SaveSnapshot persists the order row, schedule allocations and item
	// collection flags from a ledger-produced snapshot
	SaveSnapshot(ctx context.Context, order *domain.LaybyOrder) error

	// SaveSnapshotWithPayment persists the snapshot and appends the payment
	// record in a single transaction, so the stored balance always reflects
	// the stored payment log
	SaveSnapshotWithPayment(ctx context.Context, order *domain.LaybyOrder, payment *domain.PaymentRecord) error

	// ListOpen returns orders in ACTIVE or OVERDUE status
	ListOpen(ctx context.Context) ([]*domain.LaybyOrder, error)

	// ListReadyForCollection returns orders awaiting collection
	ListReadyForCollection(ctx context.Context) ([]*domain.LaybyOrder, error)
}

// PaymentRepository defines the interface for reading the payment log.
// Appends go through LaybyRepository.SaveSnapshotWithPayment so a payment
// row can never land without its balance update.
type PaymentRepository interface {
	// GetByLaybyID retrieves all payments for an order, oldest first
	GetByLaybyID(ctx context.Context, laybyID string) ([]*domain.PaymentRecord, error)
}
