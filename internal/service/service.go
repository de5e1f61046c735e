package service

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/fhic/bankcore/internal/clock"
	"github.com/fhic/bankcore/internal/ledger"
	"github.com/fhic/bankcore/internal/models"
)

// maxFailedAttempts locks an account after this many bad passwords.
const maxFailedAttempts = 3

// Service handles the banking business logic. It owns the in-memory entity
// collections; the ledger only sees them at load and save time. Every
// balance-affecting operation appends one activity row (durable, synchronous)
// before the account snapshot is saved.
type Service struct {
	store *ledger.Store
	clock *clock.Clock
	log   *logrus.Logger

	accounts  []*models.Account
	customers []*models.Customer
	loans     []*models.Loan
	bills     []*models.RecurringBill
}

// NewService loads all entity collections and returns a ready service.
func NewService(store *ledger.Store, clk *clock.Clock, log *logrus.Logger) (*Service, error) {
	s := &Service{store: store, clock: clk, log: log}

	var err error
	if s.accounts, err = store.LoadAccounts(); err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	if s.customers, err = store.LoadCustomers(); err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	if s.loans, err = store.LoadLoans(); err != nil {
		return nil, fmt.Errorf("load loans: %w", err)
	}
	if s.bills, err = store.LoadBills(); err != nil {
		return nil, fmt.Errorf("load bills: %w", err)
	}
	log.Infof("Loaded %d accounts, %d customers, %d loans, %d bills",
		len(s.accounts), len(s.customers), len(s.loans), len(s.bills))
	return s, nil
}

// Accounts returns the live account collection.
func (s *Service) Accounts() []*models.Account {
	return s.accounts
}

// Customers returns the live customer collection.
func (s *Service) Customers() []*models.Customer {
	return s.customers
}

// Loans returns the live loan collection.
func (s *Service) Loans() []*models.Loan {
	return s.loans
}

// FindAccount returns the account with the given number, or nil.
func (s *Service) FindAccount(accountNumber string) *models.Account {
	for _, acc := range s.accounts {
		if acc.AccountNumber == accountNumber {
			return acc
		}
	}
	return nil
}

// FindAccountByUsername returns the account with the given username, or nil.
func (s *Service) FindAccountByUsername(username string) *models.Account {
	for _, acc := range s.accounts {
		if acc.Username == username {
			return acc
		}
	}
	return nil
}

// CustomerForAccount returns the customer owning the given account, or nil.
func (s *Service) CustomerForAccount(accountNumber string) *models.Customer {
	acc := s.FindAccount(accountNumber)
	if acc == nil {
		return nil
	}
	return s.FindCustomer(acc.CustomerID)
}

// FindCustomer returns the customer with the given ID, or nil.
func (s *Service) FindCustomer(customerID string) *models.Customer {
	for _, c := range s.customers {
		if c.CustomerID == customerID {
			return c
		}
	}
	return nil
}

// Register creates a new customer with one initial account. The password is
// stored as a bcrypt hash on both records.
func (s *Service) Register(username, password, firstName, lastName, dob, gender, phone, email, accountType string) (*models.Customer, *models.Account, error) {
	if s.FindAccountByUsername(username) != nil {
		return nil, nil, fmt.Errorf("username %q already taken", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	customerID, err := s.store.CustomerIDs.Generate()
	if err != nil {
		return nil, nil, fmt.Errorf("allocate customer id: %w", err)
	}
	accountNumber, err := s.store.AccountNumbers.Generate()
	if err != nil {
		return nil, nil, fmt.Errorf("allocate account number: %w", err)
	}

	customer := &models.Customer{
		CustomerID:     customerID,
		Username:       username,
		PasswordHash:   string(hash),
		FirstName:      firstName,
		LastName:       lastName,
		DOB:            dob,
		Gender:         gender,
		PhoneNumber:    phone,
		Email:          email,
		AccountNumbers: []string{accountNumber},
	}
	account := &models.Account{
		CustomerID:    customerID,
		Username:      username,
		PasswordHash:  string(hash),
		FirstName:     firstName,
		LastName:      lastName,
		DOB:           dob,
		Gender:        gender,
		AccountType:   accountType,
		AccountNumber: accountNumber,
	}
	s.customers = append(s.customers, customer)
	s.accounts = append(s.accounts, account)

	if err := s.store.AppendActivity(models.ActivityRecord{
		Timestamp:     s.clock.FormattedDateTime(),
		Username:      username,
		AccountNumber: accountNumber,
		Action:        "ACCOUNT_CREATED",
		Metadata:      map[string]string{"customerId": customerID, "accountType": accountType},
	}); err != nil {
		s.log.Warnf("Failed to log account creation: %v", err)
	}
	if err := s.persist(); err != nil {
		return nil, nil, err
	}

	s.log.Infof("Customer registered: %s (%s)", username, customerID)
	return customer, account, nil
}

// Login authenticates by username and password. Three consecutive failures
// lock the account until it is unlocked administratively.
func (s *Service) Login(username, password string) (*models.Account, error) {
	acc := s.FindAccountByUsername(username)
	if acc == nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	if acc.Locked {
		return nil, fmt.Errorf("account is locked after %d failed attempts", maxFailedAttempts)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		acc.FailedAttempts++
		if acc.FailedAttempts >= maxFailedAttempts {
			acc.Locked = true
			s.log.Warnf("Account %s locked after %d failed attempts", acc.AccountNumber, acc.FailedAttempts)
		}
		if err := s.store.SaveAccounts(s.accounts); err != nil {
			s.log.Warnf("Failed to persist failed-attempt counter: %v", err)
		}
		return nil, fmt.Errorf("invalid credentials")
	}

	if acc.FailedAttempts > 0 {
		acc.FailedAttempts = 0
		if err := s.store.SaveAccounts(s.accounts); err != nil {
			s.log.Warnf("Failed to persist failed-attempt reset: %v", err)
		}
	}
	if err := s.store.AppendActivity(models.ActivityRecord{
		Timestamp:     s.clock.FormattedDateTime(),
		Username:      username,
		AccountNumber: acc.AccountNumber,
		Action:        "LOGIN",
	}); err != nil {
		s.log.Warnf("Failed to log login: %v", err)
	}
	s.log.Infof("User logged in: %s", username)
	return acc, nil
}

// Deposit credits the account. Method "Cheque" attaches a generated cheque ID.
func (s *Service) Deposit(accountNumber string, amount float64, method string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("deposit amount must be positive")
	}
	acc := s.FindAccount(accountNumber)
	if acc == nil {
		return nil, fmt.Errorf("account %s not found", accountNumber)
	}

	chequeID := ""
	if method == "Cheque" {
		chequeID = uuid.NewString()
	}
	acc.Balance += amount
	txn, err := s.recordTransaction(acc, models.TxnDeposit, amount, "", chequeID,
		map[string]string{"method": method})
	if err != nil {
		return nil, err
	}
	return txn, s.persistAccounts()
}

// Withdraw debits the account, rejecting overdrafts.
func (s *Service) Withdraw(accountNumber string, amount float64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("withdrawal amount must be positive")
	}
	acc := s.FindAccount(accountNumber)
	if acc == nil {
		return nil, fmt.Errorf("account %s not found", accountNumber)
	}
	if acc.Balance < amount {
		return nil, fmt.Errorf("insufficient funds: balance %.2f, requested %.2f", acc.Balance, amount)
	}

	acc.Balance -= amount
	txn, err := s.recordTransaction(acc, models.TxnWithdraw, amount, "", "", nil)
	if err != nil {
		return nil, err
	}
	return txn, s.persistAccounts()
}

// Transfer moves money between two internal accounts, writing one activity
// row per leg. Mode is "INTER_ACCOUNT", "NEFT" or "RTGS".
func (s *Service) Transfer(fromNumber, toNumber string, amount float64, mode string) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive")
	}
	from := s.FindAccount(fromNumber)
	if from == nil {
		return fmt.Errorf("account %s not found", fromNumber)
	}
	to := s.FindAccount(toNumber)
	if to == nil {
		return fmt.Errorf("account %s not found", toNumber)
	}
	if from.Balance < amount {
		return fmt.Errorf("insufficient funds: balance %.2f, requested %.2f", from.Balance, amount)
	}

	sentType, receivedType := models.TxnInterAccountSent, models.TxnInterAccountReceived
	switch mode {
	case "NEFT":
		sentType, receivedType = models.TxnNEFTSent, models.TxnNEFTReceived
	case "RTGS":
		sentType, receivedType = models.TxnRTGSSent, models.TxnRTGSReceived
	}

	from.Balance -= amount
	if _, err := s.recordTransaction(from, sentType, amount, mode, "",
		map[string]string{"counterparty": toNumber}); err != nil {
		return err
	}
	to.Balance += amount
	if _, err := s.recordTransaction(to, receivedType, amount, mode, "",
		map[string]string{"counterparty": fromNumber}); err != nil {
		return err
	}
	return s.persistAccounts()
}

// RecordExpense debits a categorized expense with merchant metadata.
func (s *Service) RecordExpense(accountNumber string, amount float64, category, merchant, method string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("expense amount must be positive")
	}
	acc := s.FindAccount(accountNumber)
	if acc == nil {
		return nil, fmt.Errorf("account %s not found", accountNumber)
	}
	if acc.Balance < amount {
		return nil, fmt.Errorf("insufficient funds: balance %.2f, requested %.2f", acc.Balance, amount)
	}

	acc.Balance -= amount
	txn, err := s.recordTransaction(acc, models.TxnExpense, amount, "", "",
		map[string]string{"category": category, "merchant": merchant, "method": method})
	if err != nil {
		return nil, err
	}
	return txn, s.persistAccounts()
}

// CreditSalary credits a salary payment.
func (s *Service) CreditSalary(accountNumber string, amount float64, employer string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("salary amount must be positive")
	}
	acc := s.FindAccount(accountNumber)
	if acc == nil {
		return nil, fmt.Errorf("account %s not found", accountNumber)
	}

	acc.Balance += amount
	txn, err := s.recordTransaction(acc, models.TxnSalaryCredit, amount, "", "",
		map[string]string{"employer": employer})
	if err != nil {
		return nil, err
	}
	return txn, s.persistAccounts()
}

// RedeemRewards credits the cash value of redeemed card reward points.
func (s *Service) RedeemRewards(accountNumber, cardID string, value float64) (*models.Transaction, error) {
	if value <= 0 {
		return nil, fmt.Errorf("redemption value must be positive")
	}
	acc := s.FindAccount(accountNumber)
	if acc == nil {
		return nil, fmt.Errorf("account %s not found", accountNumber)
	}

	acc.Balance += value
	txn, err := s.recordTransaction(acc, models.TxnRewardRedeemed, value, "", "",
		map[string]string{"cardId": cardID})
	if err != nil {
		return nil, err
	}
	return txn, s.persistAccounts()
}

// ChargeAMBFee charges an average-monthly-balance shortfall fee. If the
// balance cannot cover it, the fee accrues as pending.
func (s *Service) ChargeAMBFee(accountNumber string, fee float64) error {
	acc := s.FindAccount(accountNumber)
	if acc == nil {
		return fmt.Errorf("account %s not found", accountNumber)
	}
	if acc.Balance < fee {
		acc.PendingAMBFees += fee
		s.log.Infof("AMB fee %.2f deferred for %s (pending %.2f)", fee, accountNumber, acc.PendingAMBFees)
		return s.persistAccounts()
	}

	acc.Balance -= fee
	if _, err := s.recordTransaction(acc, models.TxnAMBFee, fee, "", "", nil); err != nil {
		return err
	}
	return s.persistAccounts()
}

// SettlePendingAMBFees collects previously-deferred AMB fees once the balance
// allows.
func (s *Service) SettlePendingAMBFees(accountNumber string) error {
	acc := s.FindAccount(accountNumber)
	if acc == nil {
		return fmt.Errorf("account %s not found", accountNumber)
	}
	if acc.PendingAMBFees <= 0 || acc.Balance < acc.PendingAMBFees {
		return nil
	}

	fee := acc.PendingAMBFees
	acc.Balance -= fee
	acc.PendingAMBFees = 0
	if _, err := s.recordTransaction(acc, models.TxnAMBFeeSettled, fee, "", "", nil); err != nil {
		return err
	}
	return s.persistAccounts()
}

// recordTransaction allocates a transaction ID, appends the transaction to
// the account and durably logs the activity row. The caller has already
// applied the balance change; the snapshot save happens separately.
func (s *Service) recordTransaction(acc *models.Account, txnType string, amount float64, mode, chequeID string, meta map[string]string) (*models.Transaction, error) {
	txnID, err := s.store.TransactionIDs.Generate()
	if err != nil {
		return nil, fmt.Errorf("allocate transaction id: %w", err)
	}

	txn := models.Transaction{
		ID:               txnID,
		Type:             txnType,
		Amount:           amount,
		ResultingBalance: acc.Balance,
		Timestamp:        s.clock.FormattedDateTime(),
		ChequeID:         chequeID,
		Metadata:         meta,
	}
	if meta != nil {
		txn.Category = meta["category"]
		txn.Merchant = meta["merchant"]
		txn.PaymentMethod = meta["method"]
	}
	acc.Transactions = append(acc.Transactions, txn)

	if err := s.store.AppendActivity(models.ActivityRecord{
		Timestamp:        txn.Timestamp,
		Username:         acc.Username,
		AccountNumber:    acc.AccountNumber,
		Action:           txnType,
		Amount:           strconv.FormatFloat(amount, 'f', -1, 64),
		Mode:             mode,
		ResultingBalance: strconv.FormatFloat(acc.Balance, 'f', -1, 64),
		TxnID:            txnID,
		ChequeID:         chequeID,
		Metadata:         meta,
	}); err != nil {
		return nil, fmt.Errorf("append activity: %w", err)
	}
	return &txn, nil
}

func (s *Service) persistAccounts() error {
	return s.store.SaveAccounts(s.accounts)
}

// persist flushes every collection. Used after multi-entity operations such
// as registration.
func (s *Service) persist() error {
	if err := s.store.SaveAccounts(s.accounts); err != nil {
		return err
	}
	if err := s.store.SaveCustomers(s.customers); err != nil {
		return err
	}
	return nil
}

// Save flushes all collections, for shutdown and catch-up runs.
func (s *Service) Save() error {
	if err := s.persist(); err != nil {
		return err
	}
	if err := s.store.SaveLoans(s.loans); err != nil {
		return err
	}
	return s.store.SaveBills(s.bills)
}
