package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentStatus is the closed set of installment states.
type InstallmentStatus string

const (
	InstallmentStatusPending       InstallmentStatus = "PENDING"
	InstallmentStatusPartiallyPaid InstallmentStatus = "PARTIALLY_PAID"
	InstallmentStatusOverdue       InstallmentStatus = "OVERDUE"
	InstallmentStatusPaid          InstallmentStatus = "PAID"
)

// Valid reports whether s is a known installment status.
func (s InstallmentStatus) Valid() bool {
	switch s {
	case InstallmentStatusPending, InstallmentStatusPartiallyPaid,
		InstallmentStatusOverdue, InstallmentStatusPaid:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition s -> target is allowed.
// PAID is terminal. OVERDUE is reached passively when a due date elapses
// unpaid; it is never set by the payment operation.
func (s InstallmentStatus) CanTransitionTo(target InstallmentStatus) bool {
	switch s {
	case InstallmentStatusPending:
		return target == InstallmentStatusPaid ||
			target == InstallmentStatusPartiallyPaid ||
			target == InstallmentStatusOverdue
	case InstallmentStatusPartiallyPaid:
		return target == InstallmentStatusPaid
	case InstallmentStatusOverdue:
		return target == InstallmentStatusPaid
	case InstallmentStatusPaid:
		return false
	}
	return false
}

// Installment is one scheduled obligation belonging to exactly one loan.
// RemainingPrincipal is the loan balance after this installment settles,
// snapshotted at schedule generation time.
type Installment struct {
	ID                 uuid.UUID         `json:"id" db:"id"`
	LoanID             uuid.UUID         `json:"loan_id" db:"loan_id"`
	Sequence           int               `json:"sequence" db:"sequence"`
	DueDate            time.Time         `json:"due_date" db:"due_date"`
	Amount             decimal.Decimal   `json:"amount" db:"amount"`
	PrincipalAmount    decimal.Decimal   `json:"principal_amount" db:"principal_amount"`
	InterestAmount     decimal.Decimal   `json:"interest_amount" db:"interest_amount"`
	RemainingPrincipal decimal.Decimal   `json:"remaining_principal" db:"remaining_principal"`
	Status             InstallmentStatus `json:"status" db:"status"`
	PaidDate           *time.Time        `json:"paid_date,omitempty" db:"paid_date"`
	CreatedAt          time.Time         `json:"created_at" db:"created_at"`
}

// ReminderCandidate is an installment due tomorrow joined with the loan
// and recipient fields the dispatcher needs.
type ReminderCandidate struct {
	InstallmentID uuid.UUID       `db:"installment_id"`
	LoanID        uuid.UUID       `db:"loan_id"`
	UserID        string          `db:"user_id"`
	Email         string          `db:"email"`
	FullName      string          `db:"full_name"`
	LenderName    string          `db:"lender_name"`
	Amount        decimal.Decimal `db:"amount"`
	DueDate       time.Time       `db:"due_date"`
}
