package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReminderStatus is the closed set of reminder dispatch states.
type ReminderStatus string

const (
	// ReminderStatusSent marks a successfully delivered reminder. At most
	// one SENT record may exist per installment per calendar day.
	ReminderStatusSent ReminderStatus = "SENT"
	// ReminderStatusPending marks a failed delivery attempt; it does not
	// count toward dedup, so the installment is retried on a later run.
	ReminderStatusPending ReminderStatus = "PENDING"
)

// Valid reports whether s is a known reminder status.
func (s ReminderStatus) Valid() bool {
	return s == ReminderStatusSent || s == ReminderStatusPending
}

// ReminderChannel is the delivery channel of a reminder.
type ReminderChannel string

const ReminderChannelEmail ReminderChannel = "EMAIL"

// ReminderRecord is an idempotency/audit record for one dispatch attempt.
// SentOn is the server-local calendar day of the attempt; it backs the
// one-SENT-per-installment-per-day uniqueness constraint.
type ReminderRecord struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        string          `json:"user_id" db:"user_id"`
	LoanID        uuid.UUID       `json:"loan_id" db:"loan_id"`
	InstallmentID uuid.UUID       `json:"installment_id" db:"installment_id"`
	Channel       ReminderChannel `json:"channel" db:"channel"`
	Status        ReminderStatus  `json:"status" db:"status"`
	Message       string          `json:"message" db:"message"`
	SentOn        time.Time       `json:"sent_on" db:"sent_on"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// DispatchItem is the per-installment outcome in a batch report.
type DispatchItem struct {
	InstallmentID uuid.UUID      `json:"installment_id"`
	Email         string         `json:"email"`
	Status        ReminderStatus `json:"status"`
	Error         string         `json:"error,omitempty"`
}

// DispatchReport summarizes one reminder batch invocation.
type DispatchReport struct {
	Processed int             `json:"processed"`
	Sent      int             `json:"sent"`
	Items     []*DispatchItem `json:"items"`
}
