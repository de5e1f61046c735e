package ledger

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fhic/bankcore/internal/models"
)

// activityHeader is the fixed column order of account_activity.csv.
var activityHeader = []string{
	"timestamp", "username", "accountNumber", "action",
	"amount", "mode", "resultingBalance", "txnId",
	"chequeId", "metadata",
}

// ActivityLog is the append-only durability primitive. Every balance-affecting
// operation writes exactly one row here, synchronously, before the next
// snapshot save. Rows are never updated or deleted; corrections are expressed
// as new compensating rows by callers.
type ActivityLog struct {
	mu   sync.Mutex
	path string
	log  *logrus.Logger
}

// NewActivityLog returns the activity log rooted in dir.
func NewActivityLog(dir string, log *logrus.Logger) *ActivityLog {
	return &ActivityLog{path: filepath.Join(dir, activityFile), log: log}
}

// Path returns the log file location.
func (l *ActivityLog) Path() string {
	return l.path
}

// Append writes one row and fsyncs before returning. The file is created
// with a header row on first use.
func (l *ActivityLog) Append(rec models.ActivityRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureHeader(); err != nil {
		return fmt.Errorf("activity log: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("activity log: open: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(activityRow(rec)); err != nil {
		return fmt.Errorf("activity log: write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("activity log: flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("activity log: sync: %w", err)
	}
	return nil
}

// Records reads every row of the log in file order. Malformed rows are
// skipped individually, never aborting the scan.
func (l *ActivityLog) Records() ([]models.ActivityRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("activity log: open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("activity log: read: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := map[string]int{}
	for i, name := range rows[0] {
		col[name] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := make([]models.ActivityRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, models.ActivityRecord{
			Timestamp:        field(row, "timestamp"),
			Username:         field(row, "username"),
			AccountNumber:    field(row, "accountNumber"),
			Action:           field(row, "action"),
			Amount:           field(row, "amount"),
			Mode:             field(row, "mode"),
			ResultingBalance: field(row, "resultingBalance"),
			TxnID:            field(row, "txnId"),
			ChequeID:         field(row, "chequeId"),
			Metadata:         decodeMetadata(field(row, "metadata")),
		})
	}
	return records, nil
}

func (l *ActivityLog) ensureHeader() error {
	if _, err := os.Stat(l.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := ensureDir(l.path); err != nil {
		return err
	}
	f, err := os.Create(l.path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(activityHeader); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

func activityRow(rec models.ActivityRecord) []string {
	return []string{
		rec.Timestamp,
		rec.Username,
		rec.AccountNumber,
		rec.Action,
		rec.Amount,
		rec.Mode,
		rec.ResultingBalance,
		rec.TxnID,
		rec.ChequeID,
		encodeMetadata(rec.Metadata),
	}
}

// encodeMetadata stores the annotations as a JSON object in the CSV cell.
func encodeMetadata(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}

// decodeMetadata accepts the JSON-object form and, for rows written by older
// versions, the legacy "k=v;k=v" form.
func decodeMetadata(s string) map[string]string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "{") {
		var m map[string]string
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			return m
		}
	}
	m := map[string]string{}
	for _, part := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		m[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
