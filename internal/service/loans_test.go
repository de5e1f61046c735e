package service

import (
	"strings"
	"testing"

	"github.com/fhic/bankcore/internal/models"
)

func loanReadyAccount(t *testing.T, svc *Service) *models.Account {
	t.Helper()
	acc := register(t, svc, "ravi")
	if err := svc.UpdateEmploymentProfile(acc.CustomerID, 80000, "Acme Corp", "MNC", "Pune"); err != nil {
		t.Fatalf("UpdateEmploymentProfile: %v", err)
	}
	return acc
}

func TestApplyForLoanDisbursesPrincipal(t *testing.T) {
	svc, _ := testService(t)
	acc := loanReadyAccount(t, svc)

	loan, err := svc.ApplyForLoan(acc.CustomerID, acc.AccountNumber, 300000, 36)
	if err != nil {
		t.Fatalf("ApplyForLoan: %v", err)
	}
	if !strings.HasPrefix(loan.LoanID, "LN20260825") {
		t.Errorf("loan ID = %q", loan.LoanID)
	}
	if loan.Status != models.LoanActive {
		t.Errorf("status = %q", loan.Status)
	}
	if acc.Balance != 300000 {
		t.Errorf("balance = %v, principal not disbursed", acc.Balance)
	}
	disbursal := acc.Transactions[len(acc.Transactions)-1]
	if disbursal.Type != models.TxnDeposit || disbursal.Metadata["loanId"] != loan.LoanID {
		t.Errorf("disbursal txn = %+v", disbursal)
	}
}

func TestApplyForLoanRejectsWithoutKYC(t *testing.T) {
	svc, _ := testService(t)
	acc := register(t, svc, "ravi")

	if _, err := svc.ApplyForLoan(acc.CustomerID, acc.AccountNumber, 300000, 36); err == nil {
		t.Fatal("loan approved without KYC or salary on record")
	}
}

func TestPayEMIClosesLoanAtTenure(t *testing.T) {
	svc, _ := testService(t)
	acc := loanReadyAccount(t, svc)

	loan, err := svc.ApplyForLoan(acc.CustomerID, acc.AccountNumber, 12000, 3)
	if err != nil {
		t.Fatalf("ApplyForLoan: %v", err)
	}
	// Cover the interest portion of the EMIs.
	if _, err := svc.Deposit(acc.AccountNumber, 1000, "Cash"); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.PayEMI(loan.LoanID, acc.AccountNumber); err != nil {
			t.Fatalf("PayEMI %d: %v", i+1, err)
		}
	}
	if loan.Status != models.LoanClosed {
		t.Errorf("status = %q after final EMI, want %q", loan.Status, models.LoanClosed)
	}
	if loan.Outstanding() != 0 {
		t.Errorf("outstanding = %d", loan.Outstanding())
	}
	if _, err := svc.PayEMI(loan.LoanID, acc.AccountNumber); err == nil {
		t.Error("EMI accepted on a closed loan")
	}
}

func TestLoansSurviveRestart(t *testing.T) {
	svc, dir := testService(t)
	acc := loanReadyAccount(t, svc)
	loan, err := svc.ApplyForLoan(acc.CustomerID, acc.AccountNumber, 300000, 36)
	if err != nil {
		t.Fatalf("ApplyForLoan: %v", err)
	}
	if _, err := svc.PayEMI(loan.LoanID, acc.AccountNumber); err != nil {
		t.Fatalf("PayEMI: %v", err)
	}

	reopened := openService(t, dir)
	got := reopened.LoansForCustomer(acc.CustomerID)
	if len(got) != 1 {
		t.Fatalf("loans after restart = %d, want 1", len(got))
	}
	if got[0].EMIsPaid != 1 || got[0].Status != models.LoanActive {
		t.Errorf("loan after restart = %+v", got[0])
	}
}
