package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fintrack/loan-engine/internal/domain"
	"github.com/fintrack/loan-engine/internal/repository"
	"github.com/fintrack/loan-engine/internal/schedule"
	customError "github.com/fintrack/loan-engine/pkg/errors"
)

// LedgerService owns the mutable state of loans and installments: it
// creates a loan together with its generated schedule, applies payments
// atomically, and keeps the remaining-principal invariant.
type LedgerService struct {
	loanRepo    repository.LoanRepository
	paymentRepo repository.PaymentRepository
	now         func() time.Time
}

func NewLedgerService(loanRepo repository.LoanRepository, paymentRepo repository.PaymentRepository) *LedgerService {
	return &LedgerService{
		loanRepo:    loanRepo,
		paymentRepo: paymentRepo,
		now:         time.Now,
	}
}

// CreateLoan validates the input, generates the amortization schedule and
// persists the loan plus all installments as one atomic unit.
func (s *LedgerService) CreateLoan(ctx context.Context, userID string, request *domain.CreateLoanRequest) (*domain.Loan, []*domain.Installment, error) {
	if request.LenderName == "" {
		return nil, nil, customError.WrapInvalidInput("lender name is required")
	}

	startDate, err := time.Parse("2006-01-02", request.StartDate)
	if err != nil {
		return nil, nil, customError.WrapInvalidInput("start date must be formatted as YYYY-MM-DD")
	}

	entries, err := schedule.Generate(request.Principal, request.InterestRate, request.TermMonths, startDate)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	loan := &domain.Loan{
		ID:                 uuid.New(),
		UserID:             userID,
		LenderName:         request.LenderName,
		Principal:          request.Principal,
		InterestRate:       request.InterestRate,
		TermMonths:         request.TermMonths,
		StartDate:          startDate,
		Status:             domain.LoanStatusActive,
		RemainingPrincipal: request.Principal,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	installments := make([]*domain.Installment, 0, len(entries))
	for _, entry := range entries {
		installments = append(installments, &domain.Installment{
			ID:                 uuid.New(),
			LoanID:             loan.ID,
			Sequence:           entry.Sequence,
			DueDate:            entry.DueDate,
			Amount:             entry.Amount,
			PrincipalAmount:    entry.Principal,
			InterestAmount:     entry.Interest,
			RemainingPrincipal: entry.Balance,
			Status:             domain.InstallmentStatusPending,
			CreatedAt:          now,
		})
	}

	if err = s.loanRepo.CreateWithSchedule(ctx, loan, installments); err != nil {
		return nil, nil, customError.WrapDatabaseError(err)
	}

	return loan, installments, nil
}

// PayInstallment settles one installment in full. Preconditions are
// checked in order (exists, owned by the caller, not already paid), then
// the settlement runs as a single transaction: installment marked PAID,
// payment appended, remaining principal decremented by the principal
// portion, loan closed when nothing unpaid remains.
func (s *LedgerService) PayInstallment(ctx context.Context, installmentID uuid.UUID, userID string, method domain.PaymentMethod) (*domain.Payment, error) {
	installment, err := s.loanRepo.GetInstallmentByID(ctx, installmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapInstallmentNotFound(installmentID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	loan, err := s.loanRepo.GetByID(ctx, installment.LoanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if loan.UserID != userID {
		return nil, customError.WrapUnauthorized(installmentID.String())
	}

	if installment.Status == domain.InstallmentStatusPaid {
		return nil, customError.WrapAlreadyPaid(installmentID.String())
	}

	if method == "" {
		method = domain.PaymentMethodBankTransfer
	}
	if !method.Valid() {
		return nil, customError.WrapInvalidInput("unknown payment method")
	}

	payment, err := s.paymentRepo.SettleInstallment(ctx, installmentID, method, s.now())
	if err != nil {
		// A concurrent caller may have settled between the precondition
		// read and the transaction's locked re-check.
		if errors.Is(err, customError.ErrInstallmentAlreadyPaid) {
			return nil, customError.WrapAlreadyPaid(installmentID.String())
		}
		return nil, customError.WrapTransactionFailed(err)
	}

	return payment, nil
}

// GetSchedule returns the loan's full installment schedule, scoped to the
// owning user.
func (s *LedgerService) GetSchedule(ctx context.Context, loanID uuid.UUID, userID string) ([]*domain.Installment, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(loanID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if loan.UserID != userID {
		return nil, customError.WrapUnauthorized(loanID.String())
	}

	installments, err := s.loanRepo.ListInstallmentsByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return installments, nil
}

// ListPayments returns the payments recorded against a loan, scoped to
// the owning user.
func (s *LedgerService) ListPayments(ctx context.Context, loanID uuid.UUID, userID string) ([]*domain.Payment, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(loanID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if loan.UserID != userID {
		return nil, customError.WrapUnauthorized(loanID.String())
	}

	payments, err := s.paymentRepo.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return payments, nil
}

// MarkOverdueInstallments sweeps PENDING installments whose due date has
// passed to OVERDUE. The payment path never sets OVERDUE itself; an
// overdue installment remains payable.
func (s *LedgerService) MarkOverdueInstallments(ctx context.Context) (int64, error) {
	today := startOfDay(s.now())

	updated, err := s.loanRepo.MarkOverdue(ctx, today)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	return updated, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
