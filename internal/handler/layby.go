package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/bizpilot/layby-engine/internal/domain"
	"github.com/bizpilot/layby-engine/internal/service"
	laybyerrors "github.com/bizpilot/layby-engine/pkg/errors"
	"github.com/bizpilot/layby-engine/pkg/response"
)

type LaybyHandler struct {
	service   *service.LaybyService
	validator *validator.Validate
}

func NewLaybyHandler(service *service.LaybyService) *LaybyHandler {
	return &LaybyHandler{
		service:   service,
		validator: validator.New(),
	}
}

// CreateLayby handles POST /api/v1/laybys
func (h *LaybyHandler) CreateLayby(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLaybyRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	order, err := h.service.CreateLayby(r.Context(), &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, &domain.CreateLaybyResponse{Layby: order, Schedule: order.Schedule})
}

// GetLayby handles GET /api/v1/laybys/{laybyId}
func (h *LaybyHandler) GetLayby(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetLayby(r.Context(), mux.Vars(r)["laybyId"])
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, order)
}

// GetSchedule handles GET /api/v1/laybys/{laybyId}/schedule
func (h *LaybyHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	laybyID := mux.Vars(r)["laybyId"]

	schedule, err := h.service.GetSchedule(r.Context(), laybyID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, &domain.ScheduleResponse{LaybyID: laybyID, Schedule: schedule})
}

// GetBalance handles GET /api/v1/laybys/{laybyId}/balance
func (h *LaybyHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.service.GetBalance(r.Context(), mux.Vars(r)["laybyId"])
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, balance)
}

// GetPayments handles GET /api/v1/laybys/{laybyId}/payments
func (h *LaybyHandler) GetPayments(w http.ResponseWriter, r *http.Request) {
	laybyID := mux.Vars(r)["laybyId"]

	payments, err := h.service.GetPayments(r.Context(), laybyID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, &domain.PaymentsResponse{LaybyID: laybyID, Payments: payments})
}

// RecordPayment handles POST /api/v1/laybys/{laybyId}/payments
func (h *LaybyHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var request domain.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	order, err := h.service.RecordPayment(r.Context(), mux.Vars(r)["laybyId"], &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, order)
}

// Cancel handles POST /api/v1/laybys/{laybyId}/cancel
func (h *LaybyHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Cancel(r.Context(), mux.Vars(r)["laybyId"])
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, order)
}

// Collect handles POST /api/v1/laybys/{laybyId}/collect
func (h *LaybyHandler) Collect(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Collect(r.Context(), mux.Vars(r)["laybyId"])
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, order)
}

// writeError maps ledger and service errors onto HTTP statuses. Amount and
// method problems are validation failures (422), illegal transitions
// conflicts (409); everything else falls through as a server error.
func writeError(w http.ResponseWriter, err error) {
	var amountErr *laybyerrors.InvalidAmountError
	if errors.As(err, &amountErr) {
		response.ErrorWithCode(w, http.StatusUnprocessableEntity, laybyerrors.ErrCodeInvalidAmount, amountErr.Reason, err)
		return
	}

	var methodErr *laybyerrors.InvalidMethodError
	if errors.As(err, &methodErr) {
		response.ErrorWithCode(w, http.StatusUnprocessableEntity, laybyerrors.ErrCodeInvalidMethod, methodErr.Error(), err)
		return
	}

	var stateErr *laybyerrors.InvalidStateError
	if errors.As(err, &stateErr) {
		response.ErrorWithCode(w, http.StatusConflict, laybyerrors.ErrCodeInvalidState, stateErr.Reason, err)
		return
	}

	var bizErr *laybyerrors.BusinessError
	if errors.As(err, &bizErr) {
		switch bizErr.Code {
		case laybyerrors.ErrCodeLaybyNotFound:
			response.ErrorWithCode(w, http.StatusNotFound, bizErr.Code, bizErr.Message, nil)
		case laybyerrors.ErrCodeLaybyAlreadyExists:
			response.ErrorWithCode(w, http.StatusConflict, bizErr.Code, bizErr.Message, nil)
		case laybyerrors.ErrCodeItemTotalMismatch, laybyerrors.ErrCodeInvalidDeposit:
			response.ErrorWithCode(w, http.StatusUnprocessableEntity, bizErr.Code, bizErr.Message, nil)
		default:
			response.InternalServerError(w, "internal server error", err)
		}
		return
	}

	response.InternalServerError(w, "internal server error", err)
}
