package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bizpilot/layby-engine/internal/domain"
)

type MockLaybyRepository struct {
	mock.Mock
}

func (m *MockLaybyRepository) Create(ctx context.Context, order *domain.LaybyOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockLaybyRepository) GetByLaybyID(ctx context.Context, laybyID string) (*domain.LaybyOrder, error) {
	args := m.Called(ctx, laybyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LaybyOrder), args.Error(1)
}

func (m *MockLaybyRepository) SaveSnapshot(ctx context.Context, order *domain.LaybyOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockLaybyRepository) SaveSnapshotWithPayment(ctx context.Context, order *domain.LaybyOrder, payment *domain.PaymentRecord) error {
	args := m.Called(ctx, order, payment)
	return args.Error(0)
}

func (m *MockLaybyRepository) ListOpen(ctx context.Context) ([]*domain.LaybyOrder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LaybyOrder), args.Error(1)
}

func (m *MockLaybyRepository) ListReadyForCollection(ctx context.Context) ([]*domain.LaybyOrder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LaybyOrder), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) GetByLaybyID(ctx context.Context, laybyID string) ([]*domain.PaymentRecord, error) {
	args := m.Called(ctx, laybyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentRecord), args.Error(1)
}
