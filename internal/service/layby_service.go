package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/bizpilot/layby-engine/internal/config"
	"github.com/bizpilot/layby-engine/internal/domain"
	"github.com/bizpilot/layby-engine/internal/ledger"
	"github.com/bizpilot/layby-engine/internal/repository"
	laybyerrors "github.com/bizpilot/layby-engine/pkg/errors"
	"github.com/bizpilot/layby-engine/pkg/utils"
)

type LaybyService struct {
	laybyRepo   repository.LaybyRepository
	paymentRepo repository.PaymentRepository
	redis       *redis.Client
	config      *config.Config
	clock       func() time.Time
}

func NewLaybyService(
	laybyRepo repository.LaybyRepository,
	paymentRepo repository.PaymentRepository,
	redisClient *redis.Client,
	cfg *config.Config,
) *LaybyService {
	return &LaybyService{
		laybyRepo:   laybyRepo,
		paymentRepo: paymentRepo,
		redis:       redisClient,
		config:      cfg,
		clock:       time.Now,
	}
}

// CreateLayby creates a new layby order with a generated payment schedule.
// The schedule covers the post-deposit balance: installments are split
// evenly at 2dp with the last entry absorbing the rounding remainder, so
// entry dues always sum exactly to the opening balance.
func (s *LaybyService) CreateLayby(ctx context.Context, request *domain.CreateLaybyRequest) (*domain.LaybyOrder, error) {
	existing, err := s.laybyRepo.GetByLaybyID(ctx, request.LaybyID)
	if err == nil && existing != nil {
		return nil, laybyerrors.WrapLaybyAlreadyExists(request.LaybyID)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, laybyerrors.WrapDatabaseError(err)
	}

	now := s.clock()

	frequency := request.PaymentFrequency
	if frequency == "" {
		frequency = s.config.DefaultFrequency()
	}
	installments := request.Installments
	if installments <= 0 {
		installments = s.config.Business.DefaultInstallments
	}

	items := make([]*domain.LaybyItem, 0, len(request.Items))
	itemTotal := decimal.Zero
	for _, in := range request.Items {
		lineTotal := utils.LineTotal(in.UnitPrice, in.Quantity)
		items = append(items, &domain.LaybyItem{
			ID:          uuid.New(),
			LaybyID:     request.LaybyID,
			ProductID:   in.ProductID,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			LineTotal:   lineTotal,
		})
		itemTotal = itemTotal.Add(lineTotal)
	}

	if !itemTotal.Equal(request.TotalAmount) {
		return nil, laybyerrors.WrapItemTotalMismatch(request.TotalAmount.String(), itemTotal.String())
	}

	deposit := request.DepositAmount
	if deposit.IsNegative() || deposit.GreaterThan(request.TotalAmount) {
		return nil, laybyerrors.WrapInvalidDeposit(deposit.String(), request.TotalAmount.String())
	}

	balance := request.TotalAmount.Sub(deposit)

	order := &domain.LaybyOrder{
		ID:               uuid.New(),
		LaybyID:          request.LaybyID,
		CustomerID:       request.CustomerID,
		Status:           domain.StatusActive,
		TotalAmount:      request.TotalAmount,
		DepositAmount:    deposit,
		AmountPaid:       deposit,
		BalanceRemaining: balance,
		Items:            items,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// A layby fully covered by its deposit needs no schedule and skips
	// straight to collection.
	if balance.IsZero() {
		order.Status = domain.StatusReadyForCollection
	} else {
		amounts := utils.SplitInstallments(balance, installments)
		startDate := now.Truncate(24 * time.Hour)
		schedule := make([]*domain.ScheduleEntry, 0, len(amounts))
		for i, amount := range amounts {
			schedule = append(schedule, &domain.ScheduleEntry{
				ID:        uuid.New(),
				LaybyID:   request.LaybyID,
				Sequence:  i + 1,
				DueDate:   utils.AddFrequency(startDate, frequency, i+1),
				AmountDue: amount,
				Status:    domain.ScheduleStatusPending,
				CreatedAt: now,
			})
		}
		order.Schedule = schedule
	}

	if err = s.laybyRepo.Create(ctx, order); err != nil {
		return nil, laybyerrors.WrapDatabaseError(err)
	}

	return order, nil
}

// GetLayby returns a full order snapshot, served from the redis cache when
// possible.
func (s *LaybyService) GetLayby(ctx context.Context, laybyID string) (*domain.LaybyOrder, error) {
	if order, ok := s.cachedSnapshot(ctx, laybyID); ok {
		return order, nil
	}

	order, err := s.loadOrder(ctx, laybyID)
	if err != nil {
		return nil, err
	}

	s.cacheSnapshot(ctx, order)
	return order, nil
}

// GetSchedule returns the payment schedule for an order.
func (s *LaybyService) GetSchedule(ctx context.Context, laybyID string) ([]*domain.ScheduleEntry, error) {
	order, err := s.GetLayby(ctx, laybyID)
	if err != nil {
		return nil, err
	}
	return order.Schedule, nil
}

// GetBalance returns the balance projection for an order.
func (s *LaybyService) GetBalance(ctx context.Context, laybyID string) (*domain.BalanceResponse, error) {
	order, err := s.GetLayby(ctx, laybyID)
	if err != nil {
		return nil, err
	}
	return &domain.BalanceResponse{
		LaybyID:          order.LaybyID,
		Status:           order.Status,
		TotalAmount:      order.TotalAmount,
		AmountPaid:       order.AmountPaid,
		BalanceRemaining: order.BalanceRemaining,
	}, nil
}

// RecordPayment applies a payment through the ledger and persists the
// resulting snapshot. Ledger errors pass through unwrapped so handlers can
// match them with errors.As.
func (s *LaybyService) RecordPayment(ctx context.Context, laybyID string, request *domain.RecordPaymentRequest) (*domain.LaybyOrder, error) {
	order, err := s.loadOrder(ctx, laybyID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	aged := ledger.RecomputeAging(order, now)

	next, record, err := ledger.RecordPayment(aged, request.Amount, request.PaymentMethod, request.Note, now)
	if err != nil {
		return nil, err
	}

	// snapshot and payment commit together: a payment row must never land
	// without the balance that accounts for it
	if err = s.laybyRepo.SaveSnapshotWithPayment(ctx, next, record); err != nil {
		return nil, laybyerrors.WrapDatabaseError(err)
	}

	s.dropSnapshot(ctx, laybyID)
	return next, nil
}

// GetPayments returns the append-only payment log for an order.
func (s *LaybyService) GetPayments(ctx context.Context, laybyID string) ([]*domain.PaymentRecord, error) {
	if _, err := s.loadOrder(ctx, laybyID); err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.GetByLaybyID(ctx, laybyID)
	if err != nil {
		return nil, laybyerrors.WrapDatabaseError(err)
	}
	return payments, nil
}

// Cancel cancels an ACTIVE or OVERDUE order.
func (s *LaybyService) Cancel(ctx context.Context, laybyID string) (*domain.LaybyOrder, error) {
	return s.applyTransition(ctx, laybyID, ledger.Cancel)
}

// Collect completes a fully paid order and marks its items collected.
func (s *LaybyService) Collect(ctx context.Context, laybyID string) (*domain.LaybyOrder, error) {
	return s.applyTransition(ctx, laybyID, ledger.Collect)
}

func (s *LaybyService) applyTransition(ctx context.Context, laybyID string, op func(*domain.LaybyOrder, time.Time) (*domain.LaybyOrder, error)) (*domain.LaybyOrder, error) {
	order, err := s.loadOrder(ctx, laybyID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	next, err := op(ledger.RecomputeAging(order, now), now)
	if err != nil {
		return nil, err
	}

	if err = s.laybyRepo.SaveSnapshot(ctx, next); err != nil {
		return nil, laybyerrors.WrapDatabaseError(err)
	}

	s.dropSnapshot(ctx, laybyID)
	return next, nil
}

// RefreshAging sweeps open orders and persists any aging reclassification.
// Called by the scheduler once a day; safe to run more often since the
// recompute is idempotent.
func (s *LaybyService) RefreshAging(ctx context.Context, now time.Time) (int, error) {
	orders, err := s.laybyRepo.ListOpen(ctx)
	if err != nil {
		return 0, laybyerrors.WrapDatabaseError(err)
	}

	changed := 0
	for _, order := range orders {
		next := ledger.RecomputeAging(order, now)
		if !agingChanged(order, next) {
			continue
		}

		next.UpdatedAt = now
		if err = s.laybyRepo.SaveSnapshot(ctx, next); err != nil {
			return changed, laybyerrors.WrapDatabaseError(err)
		}
		s.dropSnapshot(ctx, order.LaybyID)
		changed++

		slog.Info("layby aging updated",
			"layby_id", order.LaybyID,
			"from", order.Status,
			"to", next.Status,
		)
	}

	return changed, nil
}

// ListReadyForCollection returns orders awaiting customer pickup.
func (s *LaybyService) ListReadyForCollection(ctx context.Context) ([]*domain.LaybyOrder, error) {
	orders, err := s.laybyRepo.ListReadyForCollection(ctx)
	if err != nil {
		return nil, laybyerrors.WrapDatabaseError(err)
	}
	return orders, nil
}

func agingChanged(before, after *domain.LaybyOrder) bool {
	if before.Status != after.Status {
		return true
	}
	for i := range before.Schedule {
		if before.Schedule[i].Status != after.Schedule[i].Status {
			return true
		}
	}
	return false
}

func (s *LaybyService) loadOrder(ctx context.Context, laybyID string) (*domain.LaybyOrder, error) {
	order, err := s.laybyRepo.GetByLaybyID(ctx, laybyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, laybyerrors.WrapLaybyNotFound(laybyID)
		}
		return nil, laybyerrors.WrapDatabaseError(err)
	}
	return order, nil
}

func snapshotKey(laybyID string) string {
	return fmt.Sprintf("layby:snapshot:%s", laybyID)
}

func (s *LaybyService) cachedSnapshot(ctx context.Context, laybyID string) (*domain.LaybyOrder, bool) {
	if s.redis == nil {
		return nil, false
	}

	raw, err := s.redis.Get(ctx, snapshotKey(laybyID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("snapshot cache read failed", "layby_id", laybyID, "error", err)
		}
		return nil, false
	}

	var order domain.LaybyOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		slog.Warn("snapshot cache entry corrupt, dropping", "layby_id", laybyID, "error", err)
		s.dropSnapshot(ctx, laybyID)
		return nil, false
	}

	return &order, true
}

func (s *LaybyService) cacheSnapshot(ctx context.Context, order *domain.LaybyOrder) {
	if s.redis == nil {
		return
	}

	raw, err := json.Marshal(order)
	if err != nil {
		return
	}

	if err := s.redis.Set(ctx, snapshotKey(order.LaybyID), raw, s.config.Business.SnapshotCacheTTL).Err(); err != nil {
		slog.Warn("snapshot cache write failed", "layby_id", order.LaybyID, "error", err)
	}
}

func (s *LaybyService) dropSnapshot(ctx context.Context, laybyID string) {
	if s.redis == nil {
		return
	}

	if err := s.redis.Del(ctx, snapshotKey(laybyID)).Err(); err != nil {
		slog.Warn("snapshot cache invalidation failed", "layby_id", laybyID, "error", err)
	}
}
