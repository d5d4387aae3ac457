// Package schedule computes fixed-payment amortization schedules. It is
// pure: no storage, no clock, no side effects.
package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	customError "github.com/fintrack/loan-engine/pkg/errors"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Entry is one line of a generated schedule. Balance is the remaining
// principal after this entry settles.
type Entry struct {
	Sequence  int
	DueDate   time.Time
	Amount    decimal.Decimal
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Balance   decimal.Decimal
}

// Generate produces an ordered amortization schedule of term entries.
//
// periodicRate is a percent per period (1.5 means 1.5% monthly). With a
// zero rate the payment is a simple principal/term split. Otherwise the
// standard annuity formula applies:
//
//	payment = P * r * (1+r)^n / ((1+r)^n - 1)
//
// Every monetary value is rounded to 2 decimal places as it is produced.
// The final entry's principal portion is forced to the then-remaining
// balance, absorbing accumulated rounding so the schedule closes to
// exactly zero.
func Generate(principal, periodicRate decimal.Decimal, term int, startDate time.Time) ([]Entry, error) {
	if principal.LessThanOrEqual(decimal.Zero) {
		return nil, customError.WrapInvalidInput("principal must be greater than zero")
	}
	if term <= 0 {
		return nil, customError.WrapInvalidInput("term must be greater than zero")
	}
	if periodicRate.IsNegative() {
		return nil, customError.WrapInvalidInput("interest rate must not be negative")
	}

	r := periodicRate.Div(hundred)
	payment := periodicPayment(principal, r, term)

	entries := make([]Entry, 0, term)
	balance := principal

	for i := 1; i <= term; i++ {
		interest := balance.Mul(r).Round(2)

		var principalPart decimal.Decimal
		if i == term {
			// Final period clears whatever balance the rounded steps left.
			principalPart = balance
		} else {
			principalPart = payment.Sub(interest).Round(2)
		}

		balance = balance.Sub(principalPart).Round(2)
		if balance.IsNegative() {
			balance = decimal.Zero
		}

		entries = append(entries, Entry{
			Sequence:  i,
			DueDate:   startDate.AddDate(0, i, 0),
			Amount:    principalPart.Add(interest),
			Principal: principalPart,
			Interest:  interest,
			Balance:   balance,
		})
	}

	return entries, nil
}

func periodicPayment(principal, r decimal.Decimal, term int) decimal.Decimal {
	n := decimal.NewFromInt(int64(term))
	if r.IsZero() {
		return principal.Div(n).Round(2)
	}

	factor := one.Add(r).Pow(n)
	return principal.Mul(r).Mul(factor).Div(factor.Sub(one)).Round(2)
}
