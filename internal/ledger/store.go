// Package ledger is the durable persistence and recovery layer: JSON entity
// snapshots with atomic file replacement, an append-only CSV activity log,
// startup replay reconciling the two, and collision-checked ID registries.
//
// The design assumes a single active process against a given data directory.
// Each store protects its own files with its own mutex; entity collections
// handed out by Load* are mutated in place by the business layer and are not
// locked here. Crash consistency comes from temp-file-then-rename snapshots
// plus the append-only log, not from locking.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fhic/bankcore/internal/clock"
	"github.com/fhic/bankcore/internal/models"
)

// Store is the ledger facade other subsystems call: load/save for the entity
// collections, appending to the activity log, and the four ID registries.
type Store struct {
	mu  sync.Mutex
	dir string
	log *logrus.Logger

	Activity       *ActivityLog
	TransactionIDs *Allocator
	AccountNumbers *Allocator
	CustomerIDs    *Allocator
	MandateIDs     *Allocator
}

// NewStore opens (or initializes) the ledger rooted at dir.
func NewStore(dir string, clk *clock.Clock, log *logrus.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{
		dir:            dir,
		log:            log,
		Activity:       NewActivityLog(dir, log),
		TransactionIDs: NewTransactionIDs(dir, log),
		AccountNumbers: NewAccountNumbers(dir, log),
		CustomerIDs:    NewCustomerIDs(dir, log),
		MandateIDs:     NewMandateIDs(dir, clk, log),
	}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// AppendActivity durably records one activity row. This must be called before
// the corresponding snapshot save so a crash in between loses nothing.
func (s *Store) AppendActivity(rec models.ActivityRecord) error {
	return s.Activity.Append(rec)
}

// SaveAccounts snapshots the account collection to the primary JSON file and
// the flat CSV fallback. A failed save leaves the previous snapshot intact;
// the in-memory state stays authoritative until the next successful save.
func (s *Store) SaveAccounts(accounts []*models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jsonErr := saveJSON(s.path(accountsJSONFile), accounts)
	if jsonErr != nil {
		s.log.Warnf("Failed to save accounts snapshot: %v", jsonErr)
	}
	if err := saveAccountsCSV(s.path(accountsCSVFile), accounts); err != nil {
		s.log.Warnf("Failed to save accounts CSV fallback: %v", err)
		if jsonErr == nil {
			// Primary snapshot succeeded; the fallback being stale is not
			// fatal, it is only consulted when the primary is unreadable.
			return nil
		}
	}
	if jsonErr != nil {
		return fmt.Errorf("save accounts: %w", jsonErr)
	}
	return nil
}

// LoadAccounts restores the account collection: primary JSON snapshot, CSV
// fallback if the primary is missing or corrupt, then activity-log replay to
// patch in transactions the snapshot missed. Load never fails hard; the worst
// corrupt-everything case yields an empty collection.
func (s *Store) LoadAccounts() ([]*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := s.loadAccountsSnapshot()
	s.replayActivity(accounts)
	s.registerLoadedIDs(accounts)
	return accounts, nil
}

// LoadAccountsWithoutReplay restores accounts from the primary snapshot only.
// Used by read-only tooling that must see exactly what the snapshot holds.
func (s *Store) LoadAccountsWithoutReplay() ([]*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accounts []*models.Account
	if err := loadJSON(s.path(accountsJSONFile), &accounts); err != nil {
		if !os.IsNotExist(err) {
			s.log.Warnf("Failed to load accounts snapshot: %v", err)
		}
		return nil, nil
	}
	return accounts, nil
}

func (s *Store) loadAccountsSnapshot() []*models.Account {
	var accounts []*models.Account
	err := loadJSON(s.path(accountsJSONFile), &accounts)
	if err == nil {
		return accounts
	}
	if !os.IsNotExist(err) {
		s.log.Warnf("Accounts snapshot unreadable, trying CSV fallback: %v", err)
	}

	accounts, err = loadAccountsCSV(s.path(accountsCSVFile))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warnf("Accounts CSV fallback unreadable: %v", err)
		}
		return nil
	}
	return accounts
}

// registerLoadedIDs seeds the registries with identifiers already present in
// the snapshot so they can never be reissued.
func (s *Store) registerLoadedIDs(accounts []*models.Account) {
	for _, acc := range accounts {
		if strings.HasPrefix(acc.AccountNumber, "5621") {
			if err := s.AccountNumbers.Register(acc.AccountNumber); err != nil {
				s.log.Warnf("Failed to register account number %s: %v", acc.AccountNumber, err)
			}
		}
		for i := range acc.Transactions {
			if err := s.TransactionIDs.Register(acc.Transactions[i].ID); err != nil {
				s.log.Warnf("Failed to register transaction id %s: %v", acc.Transactions[i].ID, err)
			}
		}
	}
}

// SaveCustomers snapshots the customer collection.
func (s *Store) SaveCustomers(customers []*models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := saveJSON(s.path(customersFile), customers); err != nil {
		s.log.Warnf("Failed to save customers snapshot: %v", err)
		return fmt.Errorf("save customers: %w", err)
	}
	return nil
}

// LoadCustomers restores the customer collection, empty when the snapshot is
// missing or corrupt.
func (s *Store) LoadCustomers() ([]*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var customers []*models.Customer
	if err := loadJSON(s.path(customersFile), &customers); err != nil {
		if !os.IsNotExist(err) {
			s.log.Warnf("Failed to load customers snapshot: %v", err)
		}
		return nil, nil
	}
	return customers, nil
}

// SaveLoans snapshots the loan collection.
func (s *Store) SaveLoans(loans []*models.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := saveJSON(s.path(loansFile), loans); err != nil {
		s.log.Warnf("Failed to save loans snapshot: %v", err)
		return fmt.Errorf("save loans: %w", err)
	}
	return nil
}

// LoadLoans restores the loan collection.
func (s *Store) LoadLoans() ([]*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var loans []*models.Loan
	if err := loadJSON(s.path(loansFile), &loans); err != nil {
		if !os.IsNotExist(err) {
			s.log.Warnf("Failed to load loans snapshot: %v", err)
		}
		return nil, nil
	}
	return loans, nil
}

// SaveBills snapshots the recurring-bill collection.
func (s *Store) SaveBills(bills []*models.RecurringBill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := saveJSON(s.path(billsFile), bills); err != nil {
		s.log.Warnf("Failed to save bills snapshot: %v", err)
		return fmt.Errorf("save bills: %w", err)
	}
	return nil
}

// LoadBills restores the recurring-bill collection.
func (s *Store) LoadBills() ([]*models.RecurringBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var bills []*models.RecurringBill
	if err := loadJSON(s.path(billsFile), &bills); err != nil {
		if !os.IsNotExist(err) {
			s.log.Warnf("Failed to load bills snapshot: %v", err)
		}
		return nil, nil
	}
	return bills, nil
}

// SaveCards snapshots the card collection.
func (s *Store) SaveCards(cards []*models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := saveJSON(s.path(cardsFile), cards); err != nil {
		s.log.Warnf("Failed to save cards snapshot: %v", err)
		return fmt.Errorf("save cards: %w", err)
	}
	return nil
}

// LoadCards restores the card collection.
func (s *Store) LoadCards() ([]*models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cards []*models.Card
	if err := loadJSON(s.path(cardsFile), &cards); err != nil {
		if !os.IsNotExist(err) {
			s.log.Warnf("Failed to load cards snapshot: %v", err)
		}
		return nil, nil
	}
	return cards, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}
