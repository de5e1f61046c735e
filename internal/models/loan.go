package models

import "math"

// Loan statuses
const (
	LoanActive   = "Active"
	LoanClosed   = "Closed"
	LoanRejected = "Rejected"
)

// Loan represents a term loan held by a customer.
type Loan struct {
	LoanID         string  `json:"loan_id"`
	CustomerID     string  `json:"customer_id"`
	Principal      float64 `json:"principal"`
	InterestRate   float64 `json:"interest_rate"` // annual percent
	TenureMonths   int     `json:"tenure_months"`
	StartDate      string  `json:"start_date"` // YYYY-MM-DD
	Status         string  `json:"status"`
	EMIsPaid       int     `json:"emis_paid"`
	ApprovalReason string  `json:"approval_reason,omitempty"`
}

// EMI returns the equated monthly installment, rounded to two decimals.
func (l *Loan) EMI() float64 {
	r := l.InterestRate / 1200 // monthly rate
	n := float64(l.TenureMonths)
	if r == 0 {
		return math.Round(l.Principal/n*100) / 100
	}
	f := math.Pow(1+r, n)
	emi := l.Principal * r * f / (f - 1)
	return math.Round(emi*100) / 100
}

// Outstanding returns the number of EMIs still due.
func (l *Loan) Outstanding() int {
	left := l.TenureMonths - l.EMIsPaid
	if left < 0 {
		return 0
	}
	return left
}
