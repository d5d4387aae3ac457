package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fintrack/loan-engine/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) CreateWithSchedule(ctx context.Context, loan *domain.Loan, installments []*domain.Installment) error {
	loanQuery := `
		INSERT INTO loans (id, user_id, lender_name, principal, interest_rate, term_months, start_date, status, remaining_principal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	installmentQuery := `
		INSERT INTO installments (id, loan_id, sequence, due_date, amount, principal_amount, interest_amount, remaining_principal, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, loanQuery,
		loan.ID,
		loan.UserID,
		loan.LenderName,
		loan.Principal,
		loan.InterestRate,
		loan.TermMonths,
		loan.StartDate,
		loan.Status,
		loan.RemainingPrincipal,
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for _, installment := range installments {
		_, err = tx.ExecContext(ctx, installmentQuery,
			installment.ID,
			installment.LoanID,
			installment.Sequence,
			installment.DueDate,
			installment.Amount,
			installment.PrincipalAmount,
			installment.InterestAmount,
			installment.RemainingPrincipal,
			installment.Status,
			installment.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *loanRepository) GetByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	query := `
		SELECT id, user_id, lender_name, principal, interest_rate, term_months, start_date, status, remaining_principal, created_at, updated_at
		FROM loans
		WHERE id = $1
	`

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, loanID); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) GetInstallmentByID(ctx context.Context, installmentID uuid.UUID) (*domain.Installment, error) {
	query := `
		SELECT id, loan_id, sequence, due_date, amount, principal_amount, interest_amount, remaining_principal, status, paid_date, created_at
		FROM installments
		WHERE id = $1
	`

	var installment domain.Installment
	if err := r.db.GetContext(ctx, &installment, query, installmentID); err != nil {
		return nil, err
	}

	return &installment, nil
}

func (r *loanRepository) ListInstallmentsByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error) {
	query := `
		SELECT id, loan_id, sequence, due_date, amount, principal_amount, interest_amount, remaining_principal, status, paid_date, created_at
		FROM installments
		WHERE loan_id = $1
		ORDER BY sequence
	`

	var installments []*domain.Installment
	if err := r.db.SelectContext(ctx, &installments, query, loanID); err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *loanRepository) ListReminderCandidates(ctx context.Context, from, to time.Time) ([]*domain.ReminderCandidate, error) {
	query := `
		SELECT i.id AS installment_id,
		       i.loan_id,
		       l.user_id,
		       u.email,
		       u.full_name,
		       l.lender_name,
		       i.amount,
		       i.due_date
		FROM installments i
		JOIN loans l ON l.id = i.loan_id
		JOIN users u ON u.id = l.user_id
		WHERE i.status = $1 AND i.due_date >= $2 AND i.due_date < $3
		ORDER BY i.due_date, i.sequence
	`

	var candidates []*domain.ReminderCandidate
	err := r.db.SelectContext(ctx, &candidates, query, domain.InstallmentStatusPending, from, to)
	if err != nil {
		return nil, err
	}

	return candidates, nil
}

func (r *loanRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE installments
		SET status = $1
		WHERE status = $2 AND due_date < $3
	`

	result, err := r.db.ExecContext(ctx, query,
		domain.InstallmentStatusOverdue,
		domain.InstallmentStatusPending,
		asOf,
	)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
