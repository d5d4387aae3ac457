package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/loan-engine/internal/domain"
	customError "github.com/fintrack/loan-engine/pkg/errors"
)

func assertBusinessCode(t *testing.T, err error, code string) {
	t.Helper()
	var businessErr *customError.BusinessError
	require.True(t, errors.As(err, &businessErr), "expected BusinessError, got %v", err)
	assert.Equal(t, code, businessErr.Code)
}

func TestCreateLoan(t *testing.T) {
	userID := "user-1"

	tests := []struct {
		name           string
		request        *domain.CreateLoanRequest
		setupMocks     func(*MockLoanRepository)
		expectedCode   string
		validateResult func(*testing.T, *domain.Loan, []*domain.Installment)
	}{
		{
			name: "Success - loan and schedule persisted together",
			request: &domain.CreateLoanRequest{
				LenderName:   "Akbank",
				Principal:    decimal.NewFromInt(120000),
				InterestRate: decimal.Zero,
				TermMonths:   12,
				StartDate:    "2024-01-01",
			},
			setupMocks: func(loanRepo *MockLoanRepository) {
				loanRepo.On("CreateWithSchedule", mock.Anything,
					mock.MatchedBy(func(loan *domain.Loan) bool {
						return loan.LenderName == "Akbank" &&
							loan.Status == domain.LoanStatusActive &&
							loan.RemainingPrincipal.Equal(decimal.NewFromInt(120000))
					}),
					mock.MatchedBy(func(installments []*domain.Installment) bool {
						return len(installments) == 12
					}),
				).Return(nil)
			},
			validateResult: func(t *testing.T, loan *domain.Loan, installments []*domain.Installment) {
				assert.Equal(t, userID, loan.UserID)
				assert.Equal(t, domain.LoanStatusActive, loan.Status)
				require.Len(t, installments, 12)
				for i, installment := range installments {
					assert.Equal(t, loan.ID, installment.LoanID)
					assert.Equal(t, i+1, installment.Sequence)
					assert.Equal(t, domain.InstallmentStatusPending, installment.Status)
				}
				assert.True(t, installments[11].RemainingPrincipal.IsZero())
			},
		},
		{
			name: "Failure - missing lender name",
			request: &domain.CreateLoanRequest{
				Principal:  decimal.NewFromInt(1000),
				TermMonths: 6,
				StartDate:  "2024-01-01",
			},
			setupMocks:   func(loanRepo *MockLoanRepository) {},
			expectedCode: customError.ErrCodeInvalidInput,
		},
		{
			name: "Failure - malformed start date",
			request: &domain.CreateLoanRequest{
				LenderName: "Garanti BBVA",
				Principal:  decimal.NewFromInt(1000),
				TermMonths: 6,
				StartDate:  "01/01/2024",
			},
			setupMocks:   func(loanRepo *MockLoanRepository) {},
			expectedCode: customError.ErrCodeInvalidInput,
		},
		{
			name: "Failure - non-positive principal rejected before any write",
			request: &domain.CreateLoanRequest{
				LenderName: "Garanti BBVA",
				Principal:  decimal.Zero,
				TermMonths: 6,
				StartDate:  "2024-01-01",
			},
			setupMocks:   func(loanRepo *MockLoanRepository) {},
			expectedCode: customError.ErrCodeInvalidInput,
		},
		{
			name: "Failure - persistence error surfaces and nothing is returned",
			request: &domain.CreateLoanRequest{
				LenderName:   "Ziraat",
				Principal:    decimal.NewFromInt(50000),
				InterestRate: decimal.NewFromFloat(1.99),
				TermMonths:   24,
				StartDate:    "2024-03-01",
			},
			setupMocks: func(loanRepo *MockLoanRepository) {
				loanRepo.On("CreateWithSchedule", mock.Anything, mock.Anything, mock.Anything).
					Return(errors.New("connection reset"))
			},
			expectedCode: customError.ErrCodeDatabaseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loanRepo := &MockLoanRepository{}
			paymentRepo := &MockPaymentRepository{}
			tt.setupMocks(loanRepo)

			svc := NewLedgerService(loanRepo, paymentRepo)

			loan, installments, err := svc.CreateLoan(context.Background(), userID, tt.request)

			if tt.expectedCode != "" {
				assertBusinessCode(t, err, tt.expectedCode)
				assert.Nil(t, loan)
				assert.Nil(t, installments)
			} else {
				require.NoError(t, err)
				tt.validateResult(t, loan, installments)
			}

			loanRepo.AssertExpectations(t)
		})
	}
}

func TestPayInstallment(t *testing.T) {
	userID := "user-1"
	installmentID := uuid.New()
	loanID := uuid.New()

	pendingInstallment := func() *domain.Installment {
		return &domain.Installment{
			ID:              installmentID,
			LoanID:          loanID,
			Sequence:        1,
			Amount:          decimal.NewFromFloat(507.51),
			PrincipalAmount: decimal.NewFromFloat(497.51),
			InterestAmount:  decimal.NewFromFloat(10),
			Status:          domain.InstallmentStatusPending,
		}
	}
	ownedLoan := func() *domain.Loan {
		return &domain.Loan{ID: loanID, UserID: userID, Status: domain.LoanStatusActive}
	}

	tests := []struct {
		name         string
		method       domain.PaymentMethod
		setupMocks   func(*MockLoanRepository, *MockPaymentRepository)
		expectedCode string
	}{
		{
			name: "Success - defaults to bank transfer",
			setupMocks: func(loanRepo *MockLoanRepository, paymentRepo *MockPaymentRepository) {
				loanRepo.On("GetInstallmentByID", mock.Anything, installmentID).Return(pendingInstallment(), nil)
				loanRepo.On("GetByID", mock.Anything, loanID).Return(ownedLoan(), nil)
				paymentRepo.On("SettleInstallment", mock.Anything, installmentID, domain.PaymentMethodBankTransfer, mock.AnythingOfType("time.Time")).
					Return(&domain.Payment{ID: uuid.New(), InstallmentID: installmentID}, nil)
			},
		},
		{
			name:   "Success - explicit method is kept",
			method: domain.PaymentMethodCard,
			setupMocks: func(loanRepo *MockLoanRepository, paymentRepo *MockPaymentRepository) {
				loanRepo.On("GetInstallmentByID", mock.Anything, installmentID).Return(pendingInstallment(), nil)
				loanRepo.On("GetByID", mock.Anything, loanID).Return(ownedLoan(), nil)
				paymentRepo.On("SettleInstallment", mock.Anything, installmentID, domain.PaymentMethodCard, mock.AnythingOfType("time.Time")).
					Return(&domain.Payment{ID: uuid.New(), InstallmentID: installmentID}, nil)
			},
		},
		{
			name: "Failure - installment does not exist",
			setupMocks: func(loanRepo *MockLoanRepository, paymentRepo *MockPaymentRepository) {
				loanRepo.On("GetInstallmentByID", mock.Anything, installmentID).Return(nil, sql.ErrNoRows)
			},
			expectedCode: customError.ErrCodeInstallmentNotFound,
		},
		{
			name: "Failure - installment owned by another user",
			setupMocks: func(loanRepo *MockLoanRepository, paymentRepo *MockPaymentRepository) {
				loanRepo.On("GetInstallmentByID", mock.Anything, installmentID).Return(pendingInstallment(), nil)
				loanRepo.On("GetByID", mock.Anything, loanID).
					Return(&domain.Loan{ID: loanID, UserID: "someone-else"}, nil)
			},
			expectedCode: customError.ErrCodeUnauthorized,
		},
		{
			name: "Failure - already paid is a benign conflict",
			setupMocks: func(loanRepo *MockLoanRepository, paymentRepo *MockPaymentRepository) {
				paid := pendingInstallment()
				paid.Status = domain.InstallmentStatusPaid
				now := time.Now()
				paid.PaidDate = &now
				loanRepo.On("GetInstallmentByID", mock.Anything, installmentID).Return(paid, nil)
				loanRepo.On("GetByID", mock.Anything, loanID).Return(ownedLoan(), nil)
			},
			expectedCode: customError.ErrCodeAlreadyPaid,
		},
		{
			name: "Failure - concurrent duplicate loses inside the transaction",
			setupMocks: func(loanRepo *MockLoanRepository, paymentRepo *MockPaymentRepository) {
				loanRepo.On("GetInstallmentByID", mock.Anything, installmentID).Return(pendingInstallment(), nil)
				loanRepo.On("GetByID", mock.Anything, loanID).Return(ownedLoan(), nil)
				paymentRepo.On("SettleInstallment", mock.Anything, installmentID, domain.PaymentMethodBankTransfer, mock.AnythingOfType("time.Time")).
					Return(nil, customError.ErrInstallmentAlreadyPaid)
			},
			expectedCode: customError.ErrCodeAlreadyPaid,
		},
		{
			name: "Failure - transaction error rolls back and surfaces",
			setupMocks: func(loanRepo *MockLoanRepository, paymentRepo *MockPaymentRepository) {
				loanRepo.On("GetInstallmentByID", mock.Anything, installmentID).Return(pendingInstallment(), nil)
				loanRepo.On("GetByID", mock.Anything, loanID).Return(ownedLoan(), nil)
				paymentRepo.On("SettleInstallment", mock.Anything, installmentID, domain.PaymentMethodBankTransfer, mock.AnythingOfType("time.Time")).
					Return(nil, errors.New("deadlock detected"))
			},
			expectedCode: customError.ErrCodeTransactionFailed,
		},
		{
			name:   "Failure - unknown payment method",
			method: domain.PaymentMethod("IOU"),
			setupMocks: func(loanRepo *MockLoanRepository, paymentRepo *MockPaymentRepository) {
				loanRepo.On("GetInstallmentByID", mock.Anything, installmentID).Return(pendingInstallment(), nil)
				loanRepo.On("GetByID", mock.Anything, loanID).Return(ownedLoan(), nil)
			},
			expectedCode: customError.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loanRepo := &MockLoanRepository{}
			paymentRepo := &MockPaymentRepository{}
			tt.setupMocks(loanRepo, paymentRepo)

			svc := NewLedgerService(loanRepo, paymentRepo)

			payment, err := svc.PayInstallment(context.Background(), installmentID, userID, tt.method)

			if tt.expectedCode != "" {
				assertBusinessCode(t, err, tt.expectedCode)
				assert.Nil(t, payment)
			} else {
				require.NoError(t, err)
				require.NotNil(t, payment)
				assert.Equal(t, installmentID, payment.InstallmentID)
			}

			loanRepo.AssertExpectations(t)
			paymentRepo.AssertExpectations(t)
		})
	}
}

func TestPayInstallment_DuplicateCallsSettleOnce(t *testing.T) {
	userID := "user-1"
	installmentID := uuid.New()
	loanID := uuid.New()

	loanRepo := &MockLoanRepository{}
	paymentRepo := &MockPaymentRepository{}

	pending := &domain.Installment{
		ID:              installmentID,
		LoanID:          loanID,
		Amount:          decimal.NewFromInt(10000),
		PrincipalAmount: decimal.NewFromInt(10000),
		Status:          domain.InstallmentStatusPending,
	}
	paid := &domain.Installment{
		ID:              installmentID,
		LoanID:          loanID,
		Amount:          decimal.NewFromInt(10000),
		PrincipalAmount: decimal.NewFromInt(10000),
		Status:          domain.InstallmentStatusPaid,
	}
	loan := &domain.Loan{ID: loanID, UserID: userID, Status: domain.LoanStatusActive}

	loanRepo.On("GetInstallmentByID", mock.Anything, installmentID).Return(pending, nil).Once()
	loanRepo.On("GetInstallmentByID", mock.Anything, installmentID).Return(paid, nil).Once()
	loanRepo.On("GetByID", mock.Anything, loanID).Return(loan, nil)
	paymentRepo.On("SettleInstallment", mock.Anything, installmentID, domain.PaymentMethodBankTransfer, mock.AnythingOfType("time.Time")).
		Return(&domain.Payment{ID: uuid.New(), InstallmentID: installmentID}, nil).Once()

	svc := NewLedgerService(loanRepo, paymentRepo)

	_, err := svc.PayInstallment(context.Background(), installmentID, userID, "")
	require.NoError(t, err)

	_, err = svc.PayInstallment(context.Background(), installmentID, userID, "")
	assertBusinessCode(t, err, customError.ErrCodeAlreadyPaid)

	paymentRepo.AssertNumberOfCalls(t, "SettleInstallment", 1)
}

func TestGetSchedule(t *testing.T) {
	userID := "user-1"
	loanID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		loanRepo := &MockLoanRepository{}
		paymentRepo := &MockPaymentRepository{}

		loanRepo.On("GetByID", mock.Anything, loanID).
			Return(&domain.Loan{ID: loanID, UserID: userID}, nil)
		loanRepo.On("ListInstallmentsByLoanID", mock.Anything, loanID).
			Return([]*domain.Installment{{LoanID: loanID, Sequence: 1}}, nil)

		svc := NewLedgerService(loanRepo, paymentRepo)

		installments, err := svc.GetSchedule(context.Background(), loanID, userID)
		require.NoError(t, err)
		assert.Len(t, installments, 1)
	})

	t.Run("Failure - loan not found", func(t *testing.T) {
		loanRepo := &MockLoanRepository{}
		paymentRepo := &MockPaymentRepository{}

		loanRepo.On("GetByID", mock.Anything, loanID).Return(nil, sql.ErrNoRows)

		svc := NewLedgerService(loanRepo, paymentRepo)

		_, err := svc.GetSchedule(context.Background(), loanID, userID)
		assertBusinessCode(t, err, customError.ErrCodeLoanNotFound)
	})

	t.Run("Failure - not the owner", func(t *testing.T) {
		loanRepo := &MockLoanRepository{}
		paymentRepo := &MockPaymentRepository{}

		loanRepo.On("GetByID", mock.Anything, loanID).
			Return(&domain.Loan{ID: loanID, UserID: "someone-else"}, nil)

		svc := NewLedgerService(loanRepo, paymentRepo)

		_, err := svc.GetSchedule(context.Background(), loanID, userID)
		assertBusinessCode(t, err, customError.ErrCodeUnauthorized)
	})
}

func TestMarkOverdueInstallments(t *testing.T) {
	loanRepo := &MockLoanRepository{}
	paymentRepo := &MockPaymentRepository{}

	loanRepo.On("MarkOverdue", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(int64(3), nil)

	svc := NewLedgerService(loanRepo, paymentRepo)

	updated, err := svc.MarkOverdueInstallments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)
}
