package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus is the closed set of loan lifecycle states.
type LoanStatus string

const (
	LoanStatusActive LoanStatus = "ACTIVE"
	LoanStatusPaid   LoanStatus = "PAID"
)

// Valid reports whether s is a known loan status.
func (s LoanStatus) Valid() bool {
	return s == LoanStatusActive || s == LoanStatusPaid
}

// Loan represents one credit facility owned by a user.
//
// RemainingPrincipal starts equal to Principal and is decremented only by
// the principal portion of settled installments; it reaches exactly zero
// when the status transitions to PAID.
type Loan struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	UserID             string          `json:"user_id" db:"user_id"`
	LenderName         string          `json:"lender_name" db:"lender_name"`
	Principal          decimal.Decimal `json:"principal" db:"principal"`
	InterestRate       decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	TermMonths         int             `json:"term_months" db:"term_months"`
	StartDate          time.Time       `json:"start_date" db:"start_date"`
	Status             LoanStatus      `json:"status" db:"status"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal" db:"remaining_principal"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	LenderName   string          `json:"lender_name" validate:"required"`
	Principal    decimal.Decimal `json:"principal"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	TermMonths   int             `json:"term_months" validate:"required,gt=0"`
	StartDate    string          `json:"start_date" validate:"required,datetime=2006-01-02"`
}

type CreateLoanResponse struct {
	Loan     *Loan          `json:"loan"`
	Schedule []*Installment `json:"schedule"`
}

type ScheduleResponse struct {
	LoanID   uuid.UUID      `json:"loan_id"`
	Schedule []*Installment `json:"schedule"`
}
