package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fintrack/loan-engine/internal/domain"
	customError "github.com/fintrack/loan-engine/pkg/errors"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// SettleInstallment runs the whole payment as one transaction. The
// installment row is locked and its status re-checked inside the
// transaction, so concurrent duplicate requests serialize to exactly one
// success; the rest observe ErrInstallmentAlreadyPaid.
func (r *paymentRepository) SettleInstallment(ctx context.Context, installmentID uuid.UUID, method domain.PaymentMethod, paidAt time.Time) (*domain.Payment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var installment domain.Installment
	err = tx.GetContext(ctx, &installment, `
		SELECT id, loan_id, sequence, due_date, amount, principal_amount, interest_amount, remaining_principal, status, paid_date, created_at
		FROM installments
		WHERE id = $1
		FOR UPDATE
	`, installmentID)
	if err != nil {
		return nil, err
	}

	if installment.Status == domain.InstallmentStatusPaid {
		return nil, customError.ErrInstallmentAlreadyPaid
	}
	if !installment.Status.CanTransitionTo(domain.InstallmentStatusPaid) {
		return nil, customError.ErrTransactionFailed
	}

	// Lock the parent loan row; its remaining principal is updated below.
	var loan domain.Loan
	err = tx.GetContext(ctx, &loan, `
		SELECT id, user_id, lender_name, principal, interest_rate, term_months, start_date, status, remaining_principal, created_at, updated_at
		FROM loans
		WHERE id = $1
		FOR UPDATE
	`, installment.LoanID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE installments
		SET status = $2, paid_date = $3
		WHERE id = $1
	`, installmentID, domain.InstallmentStatusPaid, paidAt)
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		ID:            uuid.New(),
		InstallmentID: installmentID,
		Amount:        installment.Amount,
		PaidAt:        paidAt,
		Method:        method,
		CreatedAt:     paidAt,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, installment_id, amount, paid_at, method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, payment.ID, payment.InstallmentID, payment.Amount, payment.PaidAt, payment.Method, payment.CreatedAt)
	if err != nil {
		return nil, err
	}

	// Interest is not principal: only the principal portion reduces the
	// loan balance. Clamped at zero to keep the invariant under rounding.
	_, err = tx.ExecContext(ctx, `
		UPDATE loans
		SET remaining_principal = GREATEST(remaining_principal - $2, 0), updated_at = $3
		WHERE id = $1
	`, installment.LoanID, installment.PrincipalAmount, paidAt)
	if err != nil {
		return nil, err
	}

	var unpaid int
	err = tx.GetContext(ctx, &unpaid, `
		SELECT COUNT(*)
		FROM installments
		WHERE loan_id = $1 AND status <> $2
	`, installment.LoanID, domain.InstallmentStatusPaid)
	if err != nil {
		return nil, err
	}

	if unpaid == 0 {
		_, err = tx.ExecContext(ctx, `
			UPDATE loans
			SET status = $2, remaining_principal = 0, updated_at = $3
			WHERE id = $1
		`, installment.LoanID, domain.LoanStatusPaid, paidAt)
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return payment, nil
}

func (r *paymentRepository) ListByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT p.id, p.installment_id, p.amount, p.paid_at, p.method, p.created_at
		FROM payments p
		JOIN installments i ON i.id = p.installment_id
		WHERE i.loan_id = $1
		ORDER BY p.paid_at DESC
	`

	var payments []*domain.Payment
	if err := r.db.SelectContext(ctx, &payments, query, loanID); err != nil {
		return nil, err
	}

	return payments, nil
}
