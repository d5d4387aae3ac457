package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/fintrack/loan-engine/internal/domain"
	"github.com/fintrack/loan-engine/pkg/response"
)

// userIDHeader carries the authenticated user identifier supplied by the
// auth collaborator in front of this service.
const userIDHeader = "X-User-ID"

// LedgerService is the ledger surface the HTTP layer depends on.
type LedgerService interface {
	CreateLoan(ctx context.Context, userID string, request *domain.CreateLoanRequest) (*domain.Loan, []*domain.Installment, error)
	PayInstallment(ctx context.Context, installmentID uuid.UUID, userID string, method domain.PaymentMethod) (*domain.Payment, error)
	GetSchedule(ctx context.Context, loanID uuid.UUID, userID string) ([]*domain.Installment, error)
	ListPayments(ctx context.Context, loanID uuid.UUID, userID string) ([]*domain.Payment, error)
}

type LedgerHandler struct {
	service   LedgerService
	validator *validator.Validate
}

func NewLedgerHandler(service LedgerService) *LedgerHandler {
	return &LedgerHandler{
		service:   service,
		validator: validator.New(),
	}
}

func (h *LedgerHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		response.Unauthorized(w, "Missing user identity")
		return
	}

	var request domain.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Invalid loan parameters", err)
		return
	}

	loan, installments, err := h.service.CreateLoan(r.Context(), userID, &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, domain.CreateLoanResponse{
		Loan:     loan,
		Schedule: installments,
	})
}

func (h *LedgerHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		response.Unauthorized(w, "Missing user identity")
		return
	}

	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan ID", err)
		return
	}

	installments, err := h.service.GetSchedule(r.Context(), loanID, userID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, domain.ScheduleResponse{
		LoanID:   loanID,
		Schedule: installments,
	})
}

func (h *LedgerHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		response.Unauthorized(w, "Missing user identity")
		return
	}

	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan ID", err)
		return
	}

	payments, err := h.service.ListPayments(r.Context(), loanID, userID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, payments)
}

func (h *LedgerHandler) PayInstallment(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		response.Unauthorized(w, "Missing user identity")
		return
	}

	installmentID, err := uuid.Parse(mux.Vars(r)["installmentId"])
	if err != nil {
		response.BadRequest(w, "Invalid installment ID", err)
		return
	}

	// The body is optional; an empty one settles with the default method.
	var request domain.PayInstallmentRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
			response.BadRequest(w, "Invalid request body", err)
			return
		}
	}

	payment, err := h.service.PayInstallment(r.Context(), installmentID, userID, request.Method)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, payment)
}
