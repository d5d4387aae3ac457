package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fintrack/loan-engine/internal/domain"
)

// LoanRepository defines the interface for loan and installment data operations
type LoanRepository interface {
	// CreateWithSchedule persists a loan plus its full installment set as
	// one atomic unit. Either all rows commit or none do.
	CreateWithSchedule(ctx context.Context, loan *domain.Loan, installments []*domain.Installment) error

	// GetByID retrieves a loan by its ID
	GetByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)

	// GetInstallmentByID retrieves a single installment
	GetInstallmentByID(ctx context.Context, installmentID uuid.UUID) (*domain.Installment, error)

	// ListInstallmentsByLoanID retrieves a loan's schedule ordered by sequence
	ListInstallmentsByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error)

	// ListReminderCandidates retrieves PENDING installments due within
	// [from, to) joined with loan and recipient fields, ordered by due date
	ListReminderCandidates(ctx context.Context, from, to time.Time) ([]*domain.ReminderCandidate, error)

	// MarkOverdue flips PENDING installments with due dates before asOf to
	// OVERDUE and returns the number of rows affected
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// SettleInstallment applies a full settlement in one transaction: mark
	// the installment PAID, append the payment row, decrement the loan's
	// remaining principal by the installment's principal portion, and close
	// the loan when no unpaid installments remain. Returns
	// ErrInstallmentAlreadyPaid if a concurrent caller settled first.
	SettleInstallment(ctx context.Context, installmentID uuid.UUID, method domain.PaymentMethod, paidAt time.Time) (*domain.Payment, error)

	// ListByLoanID retrieves all payments recorded against a loan's
	// installments, newest first
	ListByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error)
}

// ReminderRepository defines the interface for reminder audit records
type ReminderRepository interface {
	// Create appends a dispatch-attempt record. A SENT record that collides
	// with the per-installment-per-day uniqueness constraint returns
	// ErrDuplicateReminder.
	Create(ctx context.Context, record *domain.ReminderRecord) error

	// CountSentSince counts SENT records created at or after since
	CountSentSince(ctx context.Context, since time.Time) (int, error)

	// HasSentSince reports whether a SENT record exists for the installment
	// created at or after since
	HasSentSince(ctx context.Context, installmentID uuid.UUID, since time.Time) (bool, error)
}
