package ledger

import (
	"bufio"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fhic/bankcore/internal/clock"
)

// ErrIDSpaceExhausted is returned when an allocator cannot find an unused ID
// within its attempt budget. It implies a namespace or randomness failure and
// should abort the operation that needed the ID.
var ErrIDSpaceExhausted = errors.New("id space exhausted")

// Registry file names.
const (
	transactionIDsFile = "transaction_ids.json"
	accountNumbersFile = "account_numbers.txt"
	customerIDsFile    = "customer_ids.txt"
	nachIDsFile        = "nach_ids.txt"
)

type setFormat int

const (
	lineSet setFormat = iota // newline-delimited strings
	jsonSet                  // JSON array of strings
)

// Allocator issues identifiers guaranteed unique against a persisted set of
// every ID it has ever handed out. Membership testing against the set, not
// counting, is the correctness mechanism: the set only grows, and a persisted
// ID is never reissued even across process restarts.
//
// Candidates are the prefix (optionally date-stamped) plus fixed-width random
// digits; on a collision the allocator retries up to maxAttempts times. Each
// successful allocation is persisted, by full overwrite of the set file,
// before the ID is returned to the caller.
type Allocator struct {
	mu          sync.Mutex
	path        string
	prefix      string
	digits      int
	dateStamped bool
	maxAttempts int
	format      setFormat
	reloadEach  bool // re-read the set from disk before every allocation
	clock       *clock.Clock
	log         *logrus.Logger

	ids    map[string]struct{}
	loaded bool
}

// NewTransactionIDs returns the transaction-ID registry: "FHIC" + 10 digits,
// persisted as a JSON array. The set is loaded once at construction time.
func NewTransactionIDs(dir string, log *logrus.Logger) *Allocator {
	a := &Allocator{
		path:        filepath.Join(dir, transactionIDsFile),
		prefix:      "FHIC",
		digits:      10,
		maxAttempts: 1000,
		format:      jsonSet,
		log:         log,
		ids:         map[string]struct{}{},
	}
	if err := a.reload(); err != nil {
		// Same recovery as a missing file: start empty, the set file will be
		// rewritten on the next allocation.
		log.Warnf("Failed to load transaction ids: %v", err)
	}
	a.loaded = true
	return a
}

// NewAccountNumbers returns the account-number registry: "5621" + 8 digits,
// newline-delimited file, reloaded from disk before every allocation so
// external edits to the file are honored.
func NewAccountNumbers(dir string, log *logrus.Logger) *Allocator {
	return &Allocator{
		path:        filepath.Join(dir, accountNumbersFile),
		prefix:      "5621",
		digits:      8,
		maxAttempts: 1000,
		format:      lineSet,
		reloadEach:  true,
		log:         log,
		ids:         map[string]struct{}{},
	}
}

// NewCustomerIDs returns the customer-ID registry: "CUST" + 8 digits,
// newline-delimited file, reloaded before every allocation.
func NewCustomerIDs(dir string, log *logrus.Logger) *Allocator {
	return &Allocator{
		path:        filepath.Join(dir, customerIDsFile),
		prefix:      "CUST",
		digits:      8,
		maxAttempts: 1000,
		format:      lineSet,
		reloadEach:  true,
		log:         log,
		ids:         map[string]struct{}{},
	}
}

// NewMandateIDs returns the NACH mandate registry: "NACH" + yyyymmdd + 6
// digits, newline-delimited file, reloaded before every allocation. The date
// stamp comes from the virtual bank clock.
func NewMandateIDs(dir string, clk *clock.Clock, log *logrus.Logger) *Allocator {
	return &Allocator{
		path:        filepath.Join(dir, nachIDsFile),
		prefix:      "NACH",
		digits:      6,
		dateStamped: true,
		maxAttempts: 100,
		format:      lineSet,
		reloadEach:  true,
		clock:       clk,
		log:         log,
		ids:         map[string]struct{}{},
	}
}

// Generate returns a fresh ID, durably recorded in the set file before it is
// handed to the caller. It fails with ErrIDSpaceExhausted if every candidate
// within the attempt budget collides.
func (a *Allocator) Generate() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureLoaded(); err != nil {
		return "", fmt.Errorf("load id set %s: %w", filepath.Base(a.path), err)
	}

	prefix := a.prefix
	if a.dateStamped {
		prefix += a.clock.Now().Format("20060102")
	}

	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		digits, err := randomDigits(a.digits)
		if err != nil {
			return "", fmt.Errorf("generate random digits: %w", err)
		}
		id := prefix + digits
		if _, used := a.ids[id]; used {
			continue
		}
		a.ids[id] = struct{}{}
		if err := a.persist(); err != nil {
			return "", fmt.Errorf("persist id set %s: %w", filepath.Base(a.path), err)
		}
		return id, nil
	}
	return "", fmt.Errorf("%w: no free id after %d attempts (prefix %s)", ErrIDSpaceExhausted, a.maxAttempts, prefix)
}

// Register adds an externally-sourced ID (e.g. loaded from a snapshot) to the
// set so it can never be reissued. Persists only when the ID was new.
func (a *Allocator) Register(id string) error {
	if id == "" {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureLoaded(); err != nil {
		return fmt.Errorf("load id set %s: %w", filepath.Base(a.path), err)
	}
	if _, ok := a.ids[id]; ok {
		return nil
	}
	a.ids[id] = struct{}{}
	if err := a.persist(); err != nil {
		return fmt.Errorf("persist id set %s: %w", filepath.Base(a.path), err)
	}
	return nil
}

// Contains reports whether id has already been issued or registered.
func (a *Allocator) Contains(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureLoaded(); err != nil {
		a.log.Warnf("Failed to load id set %s: %v", filepath.Base(a.path), err)
		return false
	}
	_, ok := a.ids[id]
	return ok
}

// Count returns the number of IDs ever issued by this registry.
func (a *Allocator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureLoaded(); err != nil {
		return 0
	}
	return len(a.ids)
}

func (a *Allocator) ensureLoaded() error {
	if a.loaded && !a.reloadEach {
		return nil
	}
	if err := a.reload(); err != nil {
		return err
	}
	a.loaded = true
	return nil
}

func (a *Allocator) reload() error {
	f, err := os.Open(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			a.ids = map[string]struct{}{}
			return nil
		}
		return err
	}
	defer f.Close()

	ids := map[string]struct{}{}
	switch a.format {
	case jsonSet:
		var list []string
		if err := json.NewDecoder(f).Decode(&list); err != nil {
			return err
		}
		for _, id := range list {
			ids[id] = struct{}{}
		}
	default:
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				ids[line] = struct{}{}
			}
		}
		if err := sc.Err(); err != nil {
			return err
		}
	}
	a.ids = ids
	return nil
}

// persist rewrites the whole set file atomically. Sorted output keeps the
// file diffable between runs.
func (a *Allocator) persist() error {
	ids := make([]string, 0, len(a.ids))
	for id := range a.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if a.format == jsonSet {
		return saveJSON(a.path, ids)
	}
	return writeFileAtomic(a.path, func(w io.Writer) error {
		for _, id := range ids {
			if _, err := io.WriteString(w, id+"\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

// randomDigits returns n decimal digits from the system CSPRNG.
func randomDigits(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = '0' + b%10
	}
	return string(buf), nil
}
