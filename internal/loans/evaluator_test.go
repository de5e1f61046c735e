package loans

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/fhic/bankcore/internal/models"
)

var evalNow = time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

func eligibleCustomer() *models.Customer {
	return &models.Customer{
		CustomerID:   "CUST00000001",
		DOB:          "15-03-1990",
		Salary:       80000,
		CreditScore:  780,
		KYCCompleted: true,
	}
}

func TestEMIFormula(t *testing.T) {
	// 500000 at 10.5% over 60 months: standard amortization gives ~10747.
	loan := &models.Loan{Principal: 500000, InterestRate: 10.5, TenureMonths: 60}
	if got := loan.EMI(); math.Abs(got-10746.96) > 0.05 {
		t.Errorf("EMI = %v, want about 10746.96", got)
	}

	// Zero rate degenerates to straight division.
	free := &models.Loan{Principal: 12000, InterestRate: 0, TenureMonths: 12}
	if got := free.EMI(); got != 1000 {
		t.Errorf("zero-rate EMI = %v, want 1000", got)
	}
}

func TestEvaluateApproves(t *testing.T) {
	d := Evaluate(eligibleCustomer(), nil, 500000, 60, evalNow)
	if !d.Approved {
		t.Fatalf("rejected: %s", d.Reason)
	}
	if d.InterestRate != 10.5 {
		t.Errorf("rate = %v, want 10.5 for score 780", d.InterestRate)
	}
}

func TestEvaluateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Customer)
		reason string
	}{
		{"underage", func(c *models.Customer) { c.DOB = "15-03-2010" }, "age"},
		{"overage", func(c *models.Customer) { c.DOB = "15-03-1950" }, "age"},
		{"no KYC", func(c *models.Customer) { c.KYCCompleted = false }, "KYC"},
		{"low salary", func(c *models.Customer) { c.Salary = 10000 }, "salary"},
		{"poor score", func(c *models.Customer) { c.CreditScore = 600 }, "credit score"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := eligibleCustomer()
			tt.mutate(c)
			d := Evaluate(c, nil, 500000, 60, evalNow)
			if d.Approved {
				t.Fatal("application should be rejected")
			}
			if !strings.Contains(d.Reason, tt.reason) {
				t.Errorf("reason = %q, want mention of %q", d.Reason, tt.reason)
			}
		})
	}
}

func TestEvaluateRejectsOnDebtToIncome(t *testing.T) {
	c := eligibleCustomer()
	c.Salary = 20000
	existing := []*models.Loan{
		{Principal: 400000, InterestRate: 10.5, TenureMonths: 60, Status: models.LoanActive, StartDate: "2026-01-05"},
	}
	d := Evaluate(c, existing, 400000, 60, evalNow)
	if d.Approved {
		t.Fatal("DTI above the cap should reject")
	}
	if !strings.Contains(d.Reason, "debt-to-income") {
		t.Errorf("reason = %q", d.Reason)
	}
}

func TestCreditScoreCleanHistory(t *testing.T) {
	c := eligibleCustomer()
	loans := []*models.Loan{
		{StartDate: "2026-06-25", TenureMonths: 12, EMIsPaid: 3, Status: models.LoanActive},
		{StartDate: "2025-01-25", TenureMonths: 12, EMIsPaid: 12, Status: models.LoanClosed},
	}
	// No missed EMIs (+100) and a 2-loan mix (+10) on the 650 baseline.
	if got := CreditScore(c, loans, evalNow); got != 760 {
		t.Errorf("score = %d, want 760", got)
	}
}

func TestCreditScorePenalizesMissedEMIs(t *testing.T) {
	c := eligibleCustomer()
	// Started 6 months ago, 7 EMIs expected, only 2 paid.
	loans := []*models.Loan{
		{StartDate: "2026-02-25", TenureMonths: 24, EMIsPaid: 2, Status: models.LoanActive},
	}
	// 650 - 50*4 (missed, capped) - 25 (delinquent active loan) = 425.
	if got := CreditScore(c, loans, evalNow); got != 425 {
		t.Errorf("score = %d, want 425", got)
	}
}

func TestCreditScoreStaysInRange(t *testing.T) {
	c := eligibleCustomer()
	var many []*models.Loan
	for i := 0; i < 10; i++ {
		many = append(many, &models.Loan{
			StartDate: "2024-01-25", TenureMonths: 12, EMIsPaid: 0, Status: models.LoanActive,
		})
	}
	got := CreditScore(c, many, evalNow)
	if got < 300 || got > 900 {
		t.Errorf("score %d outside 300-900", got)
	}
}
