package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is the settlement channel recorded on a payment.
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodCash         PaymentMethod = "CASH"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodBankTransfer || m == PaymentMethodCard || m == PaymentMethodCash
}

// Payment is an immutable receipt for one installment settlement.
// Rows are append-only; a payment is never mutated or deleted.
type Payment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	InstallmentID uuid.UUID       `json:"installment_id" db:"installment_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	PaidAt        time.Time       `json:"paid_at" db:"paid_at"`
	Method        PaymentMethod   `json:"method" db:"method"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

type PayInstallmentRequest struct {
	Method PaymentMethod `json:"method,omitempty"`
}
