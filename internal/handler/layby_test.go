package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bizpilot/layby-engine/internal/config"
	"github.com/bizpilot/layby-engine/internal/domain"
	"github.com/bizpilot/layby-engine/internal/repository/mocks"
	"github.com/bizpilot/layby-engine/internal/service"
)

func newTestRouter(laybyRepo *mocks.MockLaybyRepository, paymentRepo *mocks.MockPaymentRepository) *mux.Router {
	cfg := &config.Config{}
	svc := service.NewLaybyService(laybyRepo, paymentRepo, nil, cfg)
	h := NewLaybyHandler(svc)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/laybys", h.CreateLayby).Methods("POST")
	api.HandleFunc("/laybys/{laybyId}", h.GetLayby).Methods("GET")
	api.HandleFunc("/laybys/{laybyId}/balance", h.GetBalance).Methods("GET")
	api.HandleFunc("/laybys/{laybyId}/payments", h.GetPayments).Methods("GET")
	api.HandleFunc("/laybys/{laybyId}/payments", h.RecordPayment).Methods("POST")
	api.HandleFunc("/laybys/{laybyId}/collect", h.Collect).Methods("POST")
	api.HandleFunc("/laybys/{laybyId}/cancel", h.Cancel).Methods("POST")
	return router
}

func storedOrder(laybyID string, total, deposit int64) *domain.LaybyOrder {
	balance := total - deposit
	order := &domain.LaybyOrder{
		ID:               uuid.New(),
		LaybyID:          laybyID,
		CustomerID:       "CUST-1",
		Status:           domain.StatusActive,
		TotalAmount:      decimal.NewFromInt(total),
		DepositAmount:    decimal.NewFromInt(deposit),
		AmountPaid:       decimal.NewFromInt(deposit),
		BalanceRemaining: decimal.NewFromInt(balance),
	}
	if balance > 0 {
		order.Schedule = []*domain.ScheduleEntry{{
			ID:        uuid.New(),
			LaybyID:   laybyID,
			Sequence:  1,
			DueDate:   time.Now().AddDate(0, 0, 7),
			AmountDue: decimal.NewFromInt(balance),
			Status:    domain.ScheduleStatusPending,
		}}
	}
	return order
}

func performJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRecordPayment_Success(t *testing.T) {
	laybyRepo := &mocks.MockLaybyRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}

	laybyRepo.On("GetByLaybyID", mock.Anything, "LAYBY-1").Return(storedOrder("LAYBY-1", 1000, 200), nil)
	laybyRepo.On("SaveSnapshotWithPayment", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	router := newTestRouter(laybyRepo, paymentRepo)

	rec := performJSON(t, router, http.MethodPost, "/api/v1/laybys/LAYBY-1/payments", map[string]interface{}{
		"amount":         "800",
		"payment_method": "cash",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), string(domain.StatusReadyForCollection))
	laybyRepo.AssertExpectations(t)
	paymentRepo.AssertExpectations(t)
}

func TestRecordPayment_OverpaymentReturns422(t *testing.T) {
	laybyRepo := &mocks.MockLaybyRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}

	laybyRepo.On("GetByLaybyID", mock.Anything, "LAYBY-1").Return(storedOrder("LAYBY-1", 500, 0), nil)

	router := newTestRouter(laybyRepo, paymentRepo)

	rec := performJSON(t, router, http.MethodPost, "/api/v1/laybys/LAYBY-1/payments", map[string]interface{}{
		"amount":         "600",
		"payment_method": "card",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_AMOUNT")
}

func TestRecordPayment_UnknownMethodReturns400(t *testing.T) {
	router := newTestRouter(&mocks.MockLaybyRepository{}, &mocks.MockPaymentRepository{})

	rec := performJSON(t, router, http.MethodPost, "/api/v1/laybys/LAYBY-1/payments", map[string]interface{}{
		"amount":         "10",
		"payment_method": "cheque",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPayments_ReturnsLog(t *testing.T) {
	laybyRepo := &mocks.MockLaybyRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}

	laybyRepo.On("GetByLaybyID", mock.Anything, "LAYBY-1").Return(storedOrder("LAYBY-1", 1000, 200), nil)
	paymentRepo.On("GetByLaybyID", mock.Anything, "LAYBY-1").Return([]*domain.PaymentRecord{
		{LaybyID: "LAYBY-1", Amount: decimal.NewFromInt(200), PaymentMethod: domain.PaymentMethodCash},
		{LaybyID: "LAYBY-1", Amount: decimal.NewFromInt(300), PaymentMethod: domain.PaymentMethodCard},
	}, nil)

	router := newTestRouter(laybyRepo, paymentRepo)

	rec := performJSON(t, router, http.MethodGet, "/api/v1/laybys/LAYBY-1/payments", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.PaymentMethodCash)
	assert.Contains(t, rec.Body.String(), domain.PaymentMethodCard)
	paymentRepo.AssertExpectations(t)
}

func TestCollect_BalanceOutstandingReturns409(t *testing.T) {
	laybyRepo := &mocks.MockLaybyRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}

	laybyRepo.On("GetByLaybyID", mock.Anything, "LAYBY-1").Return(storedOrder("LAYBY-1", 1000, 700), nil)

	router := newTestRouter(laybyRepo, paymentRepo)

	rec := performJSON(t, router, http.MethodPost, "/api/v1/laybys/LAYBY-1/collect", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_STATE")
	assert.Contains(t, rec.Body.String(), "balance remaining")
}

func TestGetLayby_NotFoundReturns404(t *testing.T) {
	laybyRepo := &mocks.MockLaybyRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}

	laybyRepo.On("GetByLaybyID", mock.Anything, "MISSING").Return(nil, sql.ErrNoRows)

	router := newTestRouter(laybyRepo, paymentRepo)

	rec := performJSON(t, router, http.MethodGet, "/api/v1/laybys/MISSING", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateLayby_ValidationFailureReturns400(t *testing.T) {
	router := newTestRouter(&mocks.MockLaybyRepository{}, &mocks.MockPaymentRepository{})

	// missing items and frequency
	rec := performJSON(t, router, http.MethodPost, "/api/v1/laybys", map[string]interface{}{
		"layby_id":     "LAYBY-2",
		"customer_id":  "CUST-1",
		"total_amount": "100",
		"installments": 4,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancel_Success(t *testing.T) {
	laybyRepo := &mocks.MockLaybyRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}

	laybyRepo.On("GetByLaybyID", mock.Anything, "LAYBY-1").Return(storedOrder("LAYBY-1", 1000, 200), nil)
	laybyRepo.On("SaveSnapshot", mock.Anything, mock.MatchedBy(func(o *domain.LaybyOrder) bool {
		return o.Status == domain.StatusCancelled
	})).Return(nil)

	router := newTestRouter(laybyRepo, paymentRepo)

	rec := performJSON(t, router, http.MethodPost, "/api/v1/laybys/LAYBY-1/cancel", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	laybyRepo.AssertExpectations(t)
}
