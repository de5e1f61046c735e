package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fhic/bankcore/internal/clock"
)

func TestTransactionIDFormat(t *testing.T) {
	a := NewTransactionIDs(t.TempDir(), testLogger())

	id, err := a.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(id, "FHIC") || len(id) != 14 {
		t.Errorf("id = %q, want FHIC + 10 digits", id)
	}
	for _, r := range id[4:] {
		if r < '0' || r > '9' {
			t.Errorf("non-digit %q in id %q", r, id)
		}
	}
	if !a.Contains(id) {
		t.Error("generated id not in set")
	}
}

func TestAccountNumberAndCustomerIDFormats(t *testing.T) {
	dir := t.TempDir()

	num, err := NewAccountNumbers(dir, testLogger()).Generate()
	if err != nil {
		t.Fatalf("account number: %v", err)
	}
	if !strings.HasPrefix(num, "5621") || len(num) != 12 {
		t.Errorf("account number = %q, want 5621 + 8 digits", num)
	}

	cid, err := NewCustomerIDs(dir, testLogger()).Generate()
	if err != nil {
		t.Fatalf("customer id: %v", err)
	}
	if !strings.HasPrefix(cid, "CUST") || len(cid) != 12 {
		t.Errorf("customer id = %q, want CUST + 8 digits", cid)
	}
}

func TestMandateIDCarriesClockDate(t *testing.T) {
	clk := clock.New()
	a := NewMandateIDs(t.TempDir(), clk, testLogger())

	id, err := a.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	wantPrefix := "NACH" + clk.Now().Format("20060102")
	if !strings.HasPrefix(id, wantPrefix) || len(id) != len(wantPrefix)+6 {
		t.Errorf("mandate id = %q, want prefix %s + 6 digits", id, wantPrefix)
	}
}

// N concurrent callers must receive N distinct IDs, and a fresh allocator on
// the same file must reject every one of them as already used.
func TestConcurrentGenerateYieldsDistinctPersistedIDs(t *testing.T) {
	dir := t.TempDir()
	a := NewTransactionIDs(dir, testLogger())

	const n = 50
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := a.Generate()
			if err != nil {
				t.Errorf("Generate: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d distinct ids, want %d", len(seen), n)
	}

	// Fresh process simulation: a new allocator over the same file.
	fresh := NewTransactionIDs(dir, testLogger())
	if fresh.Count() != n {
		t.Fatalf("fresh allocator sees %d ids, want %d", fresh.Count(), n)
	}
	for id := range seen {
		if !fresh.Contains(id) {
			t.Errorf("fresh allocator lost id %q", id)
		}
	}
}

func TestExhaustionIsFatal(t *testing.T) {
	a := &Allocator{
		path:        filepath.Join(t.TempDir(), "tiny_ids.txt"),
		prefix:      "X",
		digits:      1,
		maxAttempts: 100,
		format:      lineSet,
		log:         testLogger(),
		ids:         map[string]struct{}{},
	}
	// Burn the whole 10-value namespace.
	for d := '0'; d <= '9'; d++ {
		if err := a.Register("X" + string(d)); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	_, err := a.Generate()
	if err == nil {
		t.Fatal("Generate succeeded in exhausted namespace")
	}
	if !errors.Is(err, ErrIDSpaceExhausted) {
		t.Errorf("err = %v, want ErrIDSpaceExhausted", err)
	}
}

// The attempt cap must never trigger in realistic use: the transaction
// namespace has 10^10 values, so a long run of allocations stays collision
// free within the budget.
func TestAttemptCapNotHitInPractice(t *testing.T) {
	a := NewTransactionIDs(t.TempDir(), testLogger())
	for i := 0; i < 500; i++ {
		if _, err := a.Generate(); err != nil {
			t.Fatalf("Generate %d: %v", i, err)
		}
	}
}

// The reload-per-call registries honor external edits to their files between
// allocations; the transaction registry reads its file only once.
func TestReloadPerCallSeesExternalEdits(t *testing.T) {
	dir := t.TempDir()
	a := NewAccountNumbers(dir, testLogger())
	if _, err := a.Generate(); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	external := "562177777777"
	f, err := os.OpenFile(filepath.Join(dir, accountNumbersFile), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString(external + "\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()

	if !a.Contains(external) {
		t.Error("reload-per-call registry missed externally added id")
	}
}

func TestEagerRegistryLoadsOnce(t *testing.T) {
	dir := t.TempDir()
	a := NewTransactionIDs(dir, testLogger())
	if _, err := a.Generate(); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	before := a.Count()

	// Rewrite the file behind the allocator's back; the eager registry must
	// not notice until a new process (new allocator) loads it.
	if err := os.WriteFile(filepath.Join(dir, transactionIDsFile), []byte(`["FHIC9999999999"]`), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if a.Count() != before {
		t.Errorf("eager registry reloaded unexpectedly: %d != %d", a.Count(), before)
	}
	if a.Contains("FHIC9999999999") {
		t.Error("eager registry saw external edit")
	}

	fresh := NewTransactionIDs(dir, testLogger())
	if !fresh.Contains("FHIC9999999999") {
		t.Error("fresh allocator should load rewritten file")
	}
}

func TestCorruptIDFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, transactionIDsFile), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	a := NewTransactionIDs(dir, testLogger())
	if a.Count() != 0 {
		t.Errorf("corrupt file should yield empty set, got %d", a.Count())
	}
	if _, err := a.Generate(); err != nil {
		t.Errorf("Generate after corrupt load: %v", err)
	}
}
