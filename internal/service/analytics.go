package service

import (
	"fmt"
	"sort"

	"github.com/fhic/bankcore/internal/loans"
	"github.com/fhic/bankcore/internal/models"
)

// IncomeExpenseStats totals credits and debits over an account's history.
func (s *Service) IncomeExpenseStats(accountNumber string) (models.IncomeExpenseStats, error) {
	acc := s.FindAccount(accountNumber)
	if acc == nil {
		return models.IncomeExpenseStats{}, fmt.Errorf("account %s not found", accountNumber)
	}

	var stats models.IncomeExpenseStats
	for i := range acc.Transactions {
		t := &acc.Transactions[i]
		switch {
		case t.IsCredit():
			stats.Income += t.Amount
		case t.IsDebit():
			stats.Expense += t.Amount
		}
	}
	stats.NetBalance = stats.Income - stats.Expense
	return stats, nil
}

// SpendByCategory breaks down debit transactions per category, largest
// first. Transactions without a category land under "Uncategorized".
func (s *Service) SpendByCategory(accountNumber string) ([]models.CategoryBreakdown, error) {
	acc := s.FindAccount(accountNumber)
	if acc == nil {
		return nil, fmt.Errorf("account %s not found", accountNumber)
	}

	totals := map[string]*models.CategoryBreakdown{}
	for i := range acc.Transactions {
		t := &acc.Transactions[i]
		if !t.IsDebit() {
			continue
		}
		cat := t.Category
		if cat == "" {
			cat = "Uncategorized"
		}
		b := totals[cat]
		if b == nil {
			b = &models.CategoryBreakdown{Category: cat}
			totals[cat] = b
		}
		b.Total += t.Amount
		b.Count++
	}

	out := make([]models.CategoryBreakdown, 0, len(totals))
	for _, b := range totals {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}

// CreditBurdenFor relates a customer's monthly EMI obligations to their
// declared salary.
func (s *Service) CreditBurdenFor(customerID string) (models.CreditBurden, error) {
	customer := s.FindCustomer(customerID)
	if customer == nil {
		return models.CreditBurden{}, fmt.Errorf("customer %s not found", customerID)
	}

	burden := models.CreditBurden{
		MonthlyEMIs:   loans.MonthlyEMIs(s.LoansForCustomer(customerID)),
		MonthlySalary: customer.Salary,
	}
	if customer.Salary > 0 {
		burden.BurdenRatio = burden.MonthlyEMIs / customer.Salary
	}
	return burden, nil
}
