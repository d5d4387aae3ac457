package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/fintrack/loan-engine/internal/domain"
)

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) CreateWithSchedule(ctx context.Context, loan *domain.Loan, installments []*domain.Installment) error {
	args := m.Called(ctx, loan, installments)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) GetInstallmentByID(ctx context.Context, installmentID uuid.UUID) (*domain.Installment, error) {
	args := m.Called(ctx, installmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Installment), args.Error(1)
}

func (m *MockLoanRepository) ListInstallmentsByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

func (m *MockLoanRepository) ListReminderCandidates(ctx context.Context, from, to time.Time) ([]*domain.ReminderCandidate, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReminderCandidate), args.Error(1)
}

func (m *MockLoanRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) SettleInstallment(ctx context.Context, installmentID uuid.UUID, method domain.PaymentMethod, paidAt time.Time) (*domain.Payment, error) {
	args := m.Called(ctx, installmentID, method, paidAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) Create(ctx context.Context, record *domain.ReminderRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockReminderRepository) CountSentSince(ctx context.Context, since time.Time) (int, error) {
	args := m.Called(ctx, since)
	return args.Int(0), args.Error(1)
}

func (m *MockReminderRepository) HasSentSince(ctx context.Context, installmentID uuid.UUID, since time.Time) (bool, error) {
	args := m.Called(ctx, installmentID, since)
	return args.Bool(0), args.Error(1)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, candidate *domain.ReminderCandidate) error {
	args := m.Called(ctx, candidate)
	return args.Error(0)
}
