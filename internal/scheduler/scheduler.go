// Package scheduler runs the bank's daily housekeeping: auto-debit bill
// payments and pending fee settlement. When the process has been down for a
// while, CatchUp replays the missed days against the virtual clock so
// auto-debited bills are paid for every day that passed.
package scheduler

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/fhic/bankcore/internal/clock"
	"github.com/fhic/bankcore/internal/models"
	"github.com/fhic/bankcore/internal/service"
)

// reminderLeadDays is how far ahead of a due date bill reminders go out.
const reminderLeadDays = 3

// Notifier delivers payment reminders. Satisfied by email.Sender.
type Notifier interface {
	SendBillReminder(to, name, billName string, amount float64, dueDate string, missed bool) error
	SendEMIReminder(to, name, loanID string, emi float64, dueDate string) error
}

// Scheduler drives the daily task cycle.
type Scheduler struct {
	svc      *service.Service
	clock    *clock.Clock
	log      *logrus.Logger
	cron     *cron.Cron
	notifier Notifier
}

// New creates a scheduler bound to the given service and clock.
func New(svc *service.Service, clk *clock.Clock, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		svc:   svc,
		clock: clk,
		log:   log,
		cron:  cron.New(),
	}
}

// Start registers the midnight job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("0 0 * * *", func() {
		s.clock.AdvanceDay()
		s.RunDaily()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule daily tasks: %w", err)
	}
	s.cron.Start()
	s.log.Info("Daily task scheduler started")
	return nil
}

// Stop stops the cron loop.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("Daily task scheduler stopped")
}

// SetNotifier enables reminder delivery on the daily run.
func (s *Scheduler) SetNotifier(n Notifier) {
	s.notifier = n
}

// RunDaily executes one day's housekeeping and returns the number of
// auto-debit payments made.
func (s *Scheduler) RunDaily() int {
	runID := uuid.NewString()
	paid := s.svc.ProcessDailyTasks()
	s.sendReminders()
	s.log.WithFields(logrus.Fields{
		"runId": runID,
		"date":  s.clock.FormattedDate(),
		"paid":  paid,
	}).Info("Daily tasks completed")
	return paid
}

// sendReminders notifies customers about bills coming due within the lead
// window and about bills already missed. Manual-payment bills only;
// auto-debit ones are collected by the daily run itself.
func (s *Scheduler) sendReminders() {
	if s.notifier == nil {
		return
	}
	today := s.clock.Today()
	horizon := today.AddDate(0, 0, reminderLeadDays)
	for _, bill := range s.svc.Bills() {
		if !bill.Active || bill.AutoDebit {
			continue
		}
		due, err := time.Parse(clock.ISODateFormat, bill.NextDueDate)
		if err != nil {
			continue
		}
		missed := due.Before(today)
		if !missed && due.After(horizon) {
			continue
		}
		customer := s.svc.CustomerForAccount(bill.AccountNumber)
		if customer == nil || customer.Email == "" {
			continue
		}
		if err := s.notifier.SendBillReminder(customer.Email, customer.FirstName,
			bill.Name, bill.Amount, bill.NextDueDate, missed); err != nil {
			s.log.Warnf("Reminder for bill %s not sent: %v", bill.BillID, err)
		}
	}

	// EMI reminders go out on each loan's monthly anniversary day.
	for _, loan := range s.svc.Loans() {
		if loan.Status != models.LoanActive {
			continue
		}
		start, err := time.Parse(clock.ISODateFormat, loan.StartDate)
		if err != nil || start.Day() != today.Day() || !start.Before(today) {
			continue
		}
		customer := s.svc.FindCustomer(loan.CustomerID)
		if customer == nil || customer.Email == "" {
			continue
		}
		if err := s.notifier.SendEMIReminder(customer.Email, customer.FirstName,
			loan.LoanID, loan.EMI(), today.Format(clock.ISODateFormat)); err != nil {
			s.log.Warnf("EMI reminder for loan %s not sent: %v", loan.LoanID, err)
		}
	}
}

// CatchUp advances the virtual clock one day at a time, running the daily
// cycle for each missed day, and returns the total auto-debit payments made.
func (s *Scheduler) CatchUp(days int) int {
	if days <= 0 {
		return 0
	}
	total := 0
	for i := 0; i < days; i++ {
		s.clock.AdvanceDay()
		total += s.RunDaily()
	}
	s.log.Infof("Caught up %d missed day(s), %d payment(s) made", days, total)
	return total
}
