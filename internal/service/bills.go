package service

import (
	"fmt"
	"time"

	"github.com/fhic/bankcore/internal/clock"
	"github.com/fhic/bankcore/internal/models"
)

// Bills returns the live recurring-bill collection.
func (s *Service) Bills() []*models.RecurringBill {
	return s.bills
}

// BillsForAccount returns the active bills attached to an account.
func (s *Service) BillsForAccount(accountNumber string) []*models.RecurringBill {
	var out []*models.RecurringBill
	for _, b := range s.bills {
		if b.AccountNumber == accountNumber && b.Active {
			out = append(out, b)
		}
	}
	return out
}

// AddRecurringBill registers a recurring bill on an account. Auto-debit
// bills get a NACH mandate ID from the mandate registry.
func (s *Service) AddRecurringBill(accountNumber, name, category string, amount float64, frequency string, dayOfMonth int, autoDebit bool) (*models.RecurringBill, error) {
	if s.FindAccount(accountNumber) == nil {
		return nil, fmt.Errorf("account %s not found", accountNumber)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("bill amount must be positive")
	}
	if dayOfMonth < 1 || dayOfMonth > 28 {
		return nil, fmt.Errorf("day of month must be 1-28, got %d", dayOfMonth)
	}
	switch frequency {
	case models.FreqMonthly, models.FreqQuarterly, models.FreqYearly:
	default:
		return nil, fmt.Errorf("unknown frequency %q", frequency)
	}

	bill := &models.RecurringBill{
		BillID:        s.nextBillID(),
		AccountNumber: accountNumber,
		Name:          name,
		Category:      category,
		Amount:        amount,
		Frequency:     frequency,
		DayOfMonth:    dayOfMonth,
		AutoDebit:     autoDebit,
		NextDueDate:   s.firstDueDate(dayOfMonth).Format(clock.ISODateFormat),
		Active:        true,
	}
	if autoDebit {
		mandateID, err := s.store.MandateIDs.Generate()
		if err != nil {
			return nil, fmt.Errorf("allocate NACH mandate id: %w", err)
		}
		bill.NACHMandateID = mandateID

		acc := s.FindAccount(accountNumber)
		if err := s.store.AppendActivity(models.ActivityRecord{
			Timestamp:     s.clock.FormattedDateTime(),
			Username:      acc.Username,
			AccountNumber: accountNumber,
			Action:        "NACH_REGISTERED",
			Metadata:      map[string]string{"mandateId": mandateID, "billId": bill.BillID, "billName": name},
		}); err != nil {
			s.log.Warnf("Failed to log mandate registration: %v", err)
		}
	}

	s.bills = append(s.bills, bill)
	if err := s.store.SaveBills(s.bills); err != nil {
		return nil, err
	}
	s.log.Infof("Recurring bill %s (%s) added to %s", bill.BillID, name, accountNumber)
	return bill, nil
}

// CancelRecurringBill deactivates a bill; the mandate stays burned in the
// registry.
func (s *Service) CancelRecurringBill(billID string) error {
	for _, b := range s.bills {
		if b.BillID == billID {
			b.Active = false
			return s.store.SaveBills(s.bills)
		}
	}
	return fmt.Errorf("bill %s not found", billID)
}

// PayBill pays one recurring bill from its account and advances the due
// date. Insufficient funds mark the bill missed instead of overdrawing.
func (s *Service) PayBill(bill *models.RecurringBill) error {
	acc := s.FindAccount(bill.AccountNumber)
	if acc == nil {
		return fmt.Errorf("account %s not found for bill %s", bill.AccountNumber, bill.BillID)
	}
	if acc.Balance < bill.Amount {
		bill.MissedCount++
		s.log.Warnf("Bill %s (%s) missed: balance %.2f < %.2f",
			bill.BillID, bill.Name, acc.Balance, bill.Amount)
		return s.store.SaveBills(s.bills)
	}

	acc.Balance -= bill.Amount
	meta := map[string]string{
		"billId":   bill.BillID,
		"billName": bill.Name,
		"category": bill.Category,
	}
	if bill.NACHMandateID != "" {
		meta["mandateId"] = bill.NACHMandateID
	}
	if _, err := s.recordTransaction(acc, models.TxnBillPayment, bill.Amount, "", "", meta); err != nil {
		return err
	}

	bill.LastPaidDate = s.clock.Today().Format(clock.ISODateFormat)
	bill.NextDueDate = nextDueDate(bill, s.clock.Today()).Format(clock.ISODateFormat)
	if err := s.persistAccounts(); err != nil {
		return err
	}
	return s.store.SaveBills(s.bills)
}

// ProcessDailyTasks pays every auto-debit bill due on or before the current
// virtual date and settles pending AMB fees. Returns the number of bills
// paid. Called once per day by the scheduler and repeatedly by catch-up.
func (s *Service) ProcessDailyTasks() int {
	today := s.clock.Today()
	paid := 0
	for _, bill := range s.bills {
		if !bill.Active || !bill.AutoDebit {
			continue
		}
		due, err := time.Parse(clock.ISODateFormat, bill.NextDueDate)
		if err != nil {
			s.log.Warnf("Bill %s has unparseable due date %q", bill.BillID, bill.NextDueDate)
			continue
		}
		if due.After(today) {
			continue
		}
		if err := s.PayBill(bill); err != nil {
			s.log.Warnf("Autopay failed for bill %s: %v", bill.BillID, err)
			continue
		}
		if bill.LastPaidDate == today.Format(clock.ISODateFormat) {
			paid++
		}
	}

	for _, acc := range s.accounts {
		if acc.PendingAMBFees > 0 {
			if err := s.SettlePendingAMBFees(acc.AccountNumber); err != nil {
				s.log.Warnf("Failed to settle AMB fees for %s: %v", acc.AccountNumber, err)
			}
		}
	}
	return paid
}

// nextBillID derives a date-stamped sequential bill ID from the persisted
// bill list, so IDs stay unique across restarts.
func (s *Service) nextBillID() string {
	return fmt.Sprintf("BILL%s%04d", s.clock.Now().Format("20060102"), len(s.bills)+1)
}

// firstDueDate is the next occurrence of dayOfMonth from today.
func (s *Service) firstDueDate(dayOfMonth int) time.Time {
	today := s.clock.Today()
	due := time.Date(today.Year(), today.Month(), dayOfMonth, 0, 0, 0, 0, today.Location())
	if due.Before(today) {
		due = due.AddDate(0, 1, 0)
	}
	return due
}

// nextDueDate advances a just-paid bill's due date by its frequency.
func nextDueDate(bill *models.RecurringBill, paidOn time.Time) time.Time {
	months := 1
	switch bill.Frequency {
	case models.FreqQuarterly:
		months = 3
	case models.FreqYearly:
		months = 12
	}
	next := paidOn.AddDate(0, months, 0)
	// Pin to the bill's day of month; AddDate can drift at month ends.
	return time.Date(next.Year(), next.Month(), bill.DayOfMonth, 0, 0, 0, 0, next.Location())
}
