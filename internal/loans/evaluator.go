// Package loans holds loan eligibility rules and the credit-score
// simulation. Pure computation; persistence stays with the caller.
package loans

import (
	"fmt"
	"time"

	"github.com/fhic/bankcore/internal/clock"
	"github.com/fhic/bankcore/internal/models"
)

// Eligibility thresholds.
const (
	MinAge         = 21
	MaxAge         = 60
	MinSalary      = 15000
	MaxDTI         = 0.5
	MinCreditScore = 650
)

// Decision is the outcome of a loan application evaluation.
type Decision struct {
	Approved     bool
	Reason       string
	InterestRate float64 // annual percent offered
}

// Evaluate applies the eligibility rules to a customer applying for a loan
// of the given principal and tenure. existing are the customer's current
// loans (any status).
func Evaluate(c *models.Customer, existing []*models.Loan, principal float64, tenureMonths int, now time.Time) Decision {
	age := ageAt(c.DOB, now)
	if age < MinAge || age > MaxAge {
		return Decision{Reason: fmt.Sprintf("applicant age %d outside %d-%d", age, MinAge, MaxAge)}
	}
	if !c.KYCCompleted {
		return Decision{Reason: "KYC not completed"}
	}
	if c.Salary < MinSalary {
		return Decision{Reason: fmt.Sprintf("monthly salary %.0f below minimum %.0f", c.Salary, float64(MinSalary))}
	}

	score := c.CreditScore
	if score == 0 {
		score = CreditScore(c, existing, now)
	}
	if score < MinCreditScore {
		return Decision{Reason: fmt.Sprintf("credit score %d below minimum %d", score, MinCreditScore)}
	}

	// Debt-to-income including the proposed EMI.
	proposed := models.Loan{Principal: principal, InterestRate: rateFor(score), TenureMonths: tenureMonths}
	dti := (MonthlyEMIs(existing) + proposed.EMI()) / c.Salary
	if dti > MaxDTI {
		return Decision{Reason: fmt.Sprintf("debt-to-income %.2f exceeds %.2f", dti, MaxDTI)}
	}

	return Decision{
		Approved:     true,
		Reason:       fmt.Sprintf("approved at %.2f%% (score %d, DTI %.2f)", rateFor(score), score, dti),
		InterestRate: rateFor(score),
	}
}

// MonthlyEMIs sums the EMIs of active loans.
func MonthlyEMIs(loans []*models.Loan) float64 {
	total := 0.0
	for _, l := range loans {
		if l.Status == models.LoanActive {
			total += l.EMI()
		}
	}
	return total
}

// CreditScore simulates a bureau-style score in the 300-900 range: baseline
// 650, rewarded for a clean repayment history and a healthy account mix,
// penalized for missed EMIs and active delinquency.
func CreditScore(c *models.Customer, loans []*models.Loan, now time.Time) int {
	score := 650

	late := 0
	delinquent := 0
	for _, l := range loans {
		start, err := time.Parse(clock.ISODateFormat, l.StartDate)
		if err != nil {
			continue
		}
		expected := monthsBetween(start, now) + 1
		if expected > l.TenureMonths {
			expected = l.TenureMonths
		}
		missed := expected - l.EMIsPaid
		if missed < 0 {
			missed = 0
		}
		late += missed
		if missed > 0 && l.Status == models.LoanActive {
			delinquent++
		}
	}

	if late == 0 {
		score += 100
	} else {
		if late > 4 {
			late = 4
		}
		score -= 50 * late
	}
	score -= 25 * delinquent

	// A modest mix of credit accounts helps; too many hurts.
	n := len(loans)
	switch {
	case n > 7:
		score -= 20
	case n >= 2 && n <= 5:
		score += 10
	}

	if score < 300 {
		score = 300
	}
	if score > 900 {
		score = 900
	}
	return score
}

// rateFor maps a credit score to the offered annual rate.
func rateFor(score int) float64 {
	switch {
	case score >= 800:
		return 9.5
	case score >= 750:
		return 10.5
	case score >= 700:
		return 11.5
	default:
		return 13.0
	}
}

func ageAt(dob string, now time.Time) int {
	d, err := time.Parse(clock.DateFormat, dob)
	if err != nil {
		return 0
	}
	age := now.Year() - d.Year()
	if now.Month() < d.Month() || (now.Month() == d.Month() && now.Day() < d.Day()) {
		age--
	}
	return age
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
