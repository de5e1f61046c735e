package service

import (
	"fmt"
	"strconv"

	"github.com/fhic/bankcore/internal/clock"
	"github.com/fhic/bankcore/internal/loans"
	"github.com/fhic/bankcore/internal/models"
)

// LoansForCustomer returns all loans held by a customer.
func (s *Service) LoansForCustomer(customerID string) []*models.Loan {
	var out []*models.Loan
	for _, l := range s.loans {
		if l.CustomerID == customerID {
			out = append(out, l)
		}
	}
	return out
}

// UpdateEmploymentProfile records the salary and employer details used by
// loan eligibility checks and marks KYC as completed.
func (s *Service) UpdateEmploymentProfile(customerID string, salary float64, employerName, employerCategory, city string) error {
	customer := s.FindCustomer(customerID)
	if customer == nil {
		return fmt.Errorf("customer %s not found", customerID)
	}
	if salary < 0 {
		return fmt.Errorf("salary cannot be negative")
	}
	customer.Salary = salary
	customer.EmployerName = employerName
	customer.EmployerCategory = employerCategory
	customer.City = city
	customer.JobStartDate = s.clock.Today().Format(clock.ISODateFormat)
	customer.KYCCompleted = true
	return s.store.SaveCustomers(s.customers)
}

// ApplyForLoan evaluates an application and, when approved, creates the loan
// and disburses the principal into the given account.
func (s *Service) ApplyForLoan(customerID, accountNumber string, principal float64, tenureMonths int) (*models.Loan, error) {
	customer := s.FindCustomer(customerID)
	if customer == nil {
		return nil, fmt.Errorf("customer %s not found", customerID)
	}
	acc := s.FindAccount(accountNumber)
	if acc == nil {
		return nil, fmt.Errorf("account %s not found", accountNumber)
	}
	if principal <= 0 || tenureMonths <= 0 {
		return nil, fmt.Errorf("principal and tenure must be positive")
	}

	existing := s.LoansForCustomer(customerID)
	decision := loans.Evaluate(customer, existing, principal, tenureMonths, s.clock.Now())
	if !decision.Approved {
		s.log.Infof("Loan application rejected for %s: %s", customerID, decision.Reason)
		return nil, fmt.Errorf("loan rejected: %s", decision.Reason)
	}

	loan := &models.Loan{
		LoanID:         fmt.Sprintf("LN%s%03d", s.clock.Now().Format("20060102"), len(s.loans)+1),
		CustomerID:     customerID,
		Principal:      principal,
		InterestRate:   decision.InterestRate,
		TenureMonths:   tenureMonths,
		StartDate:      s.clock.Today().Format(clock.ISODateFormat),
		Status:         models.LoanActive,
		ApprovalReason: decision.Reason,
	}
	s.loans = append(s.loans, loan)

	// Disburse the principal.
	acc.Balance += principal
	if _, err := s.recordTransaction(acc, models.TxnDeposit, principal, "", "",
		map[string]string{"loanId": loan.LoanID, "purpose": "loan disbursal"}); err != nil {
		return nil, err
	}
	if err := s.persistAccounts(); err != nil {
		return nil, err
	}
	if err := s.store.SaveLoans(s.loans); err != nil {
		return nil, err
	}

	s.log.Infof("Loan %s approved for %s: %.2f over %d months at %.2f%%",
		loan.LoanID, customerID, principal, tenureMonths, decision.InterestRate)
	return loan, nil
}

// PayEMI pays one installment of a loan from the given account and closes
// the loan when the final EMI is in.
func (s *Service) PayEMI(loanID, accountNumber string) (*models.Transaction, error) {
	var loan *models.Loan
	for _, l := range s.loans {
		if l.LoanID == loanID {
			loan = l
			break
		}
	}
	if loan == nil {
		return nil, fmt.Errorf("loan %s not found", loanID)
	}
	if loan.Status != models.LoanActive {
		return nil, fmt.Errorf("loan %s is %s", loanID, loan.Status)
	}
	acc := s.FindAccount(accountNumber)
	if acc == nil {
		return nil, fmt.Errorf("account %s not found", accountNumber)
	}

	emi := loan.EMI()
	if acc.Balance < emi {
		return nil, fmt.Errorf("insufficient funds for EMI: balance %.2f, EMI %.2f", acc.Balance, emi)
	}

	acc.Balance -= emi
	loan.EMIsPaid++
	txn, err := s.recordTransaction(acc, models.TxnBillPayment, emi, "", "", map[string]string{
		"loanId":   loan.LoanID,
		"billName": "Loan EMI",
		"category": "Loans",
		"emiNo":    strconv.Itoa(loan.EMIsPaid),
	})
	if err != nil {
		return nil, err
	}

	if loan.EMIsPaid >= loan.TenureMonths {
		loan.Status = models.LoanClosed
		s.log.Infof("Loan %s fully repaid and closed", loan.LoanID)
	}
	if err := s.persistAccounts(); err != nil {
		return nil, err
	}
	return txn, s.store.SaveLoans(s.loans)
}

// CreditScoreFor computes the simulated bureau score for a customer and
// caches it on the customer record.
func (s *Service) CreditScoreFor(customerID string) (int, error) {
	customer := s.FindCustomer(customerID)
	if customer == nil {
		return 0, fmt.Errorf("customer %s not found", customerID)
	}
	score := loans.CreditScore(customer, s.LoansForCustomer(customerID), s.clock.Now())
	customer.CreditScore = score
	if err := s.store.SaveCustomers(s.customers); err != nil {
		s.log.Warnf("Failed to persist credit score: %v", err)
	}
	return score, nil
}
