package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fintrack/loan-engine/internal/domain"
	customError "github.com/fintrack/loan-engine/pkg/errors"
)

// uniqueViolation is the Postgres error code raised when an insert hits
// the partial unique index on (installment_id, sent_on) WHERE status = 'SENT'.
const uniqueViolation = "23505"

type reminderRepository struct {
	db *sqlx.DB
}

func NewReminderRepository(db *sqlx.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, record *domain.ReminderRecord) error {
	query := `
		INSERT INTO reminders (id, user_id, loan_id, installment_id, channel, status, message, sent_on, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.LoanID,
		record.InstallmentID,
		record.Channel,
		record.Status,
		record.Message,
		record.SentOn,
		record.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return customError.ErrDuplicateReminder
		}
		return err
	}

	return nil
}

func (r *reminderRepository) CountSentSince(ctx context.Context, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reminders
		WHERE status = $1 AND created_at >= $2
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, domain.ReminderStatusSent, since); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *reminderRepository) HasSentSince(ctx context.Context, installmentID uuid.UUID, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM reminders
			WHERE installment_id = $1 AND status = $2 AND created_at >= $3
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, installmentID, domain.ReminderStatusSent, since); err != nil {
		return false, err
	}

	return exists, nil
}
