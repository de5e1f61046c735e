package ledger

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fhic/bankcore/internal/models"
)

// Snapshot and registry file names inside the data directory.
const (
	accountsJSONFile = "bank_data.json"
	accountsCSVFile  = "accounts.csv"
	activityFile     = "account_activity.csv"
	customersFile    = "customers.json"
	loansFile        = "loans.json"
	billsFile        = "bills.json"
	cardsFile        = "cards.json"
)

// accountsCSVHeader is the column order of the flat fallback snapshot.
var accountsCSVHeader = []string{
	"username", "password", "firstName", "lastName", "dob",
	"gender", "accountType", "accountNumber", "balance",
	"failedAttempts", "locked",
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// writeFileAtomic writes through a temporary file in the same directory and
// atomically renames it onto dest. If the rename fails (e.g. cross-device),
// it falls back to copy-then-delete. On any failure the temp file is removed
// and the previous file is left untouched.
func writeFileAtomic(dest string, write func(io.Writer) error) error {
	if err := ensureDir(dest); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	tmp := dest + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp, dest); err != nil {
		if copyErr := replaceByCopy(tmp, dest); copyErr != nil {
			os.Remove(tmp)
			return fmt.Errorf("replace %s: rename failed (%v), copy fallback failed: %w", dest, err, copyErr)
		}
	}
	return nil
}

func replaceByCopy(tmp, dest string) error {
	in, err := os.Open(tmp)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(tmp)
}

// saveJSON atomically replaces path with the indented JSON encoding of v.
func saveJSON(path string, v any) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// loadJSON decodes path into v. The caller distinguishes a missing file via
// os.IsNotExist on the returned error.
func loadJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// saveAccountsCSV writes the flat fallback snapshot. It carries no
// transaction history; history is recoverable from the activity log.
func saveAccountsCSV(path string, accounts []*models.Account) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(accountsCSVHeader); err != nil {
			return err
		}
		for _, acc := range accounts {
			row := []string{
				acc.Username,
				acc.PasswordHash,
				acc.FirstName,
				acc.LastName,
				acc.DOB,
				acc.Gender,
				acc.AccountType,
				acc.AccountNumber,
				strconv.FormatFloat(acc.Balance, 'f', 2, 64),
				strconv.Itoa(acc.FailedAttempts),
				strconv.FormatBool(acc.Locked),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// loadAccountsCSV reconstructs minimal accounts from the flat snapshot.
// Rows that fail to parse are skipped individually.
func loadAccountsCSV(path string) ([]*models.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
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

	var accounts []*models.Account
	for _, row := range rows[1:] {
		number := field(row, "accountNumber")
		username := field(row, "username")
		if number == "" && username == "" {
			continue
		}
		balance, err := strconv.ParseFloat(field(row, "balance"), 64)
		if err != nil {
			balance = 0
		}
		attempts, err := strconv.Atoi(field(row, "failedAttempts"))
		if err != nil {
			attempts = 0
		}
		accounts = append(accounts, &models.Account{
			Username:       username,
			PasswordHash:   field(row, "password"),
			FirstName:      field(row, "firstName"),
			LastName:       field(row, "lastName"),
			DOB:            field(row, "dob"),
			Gender:         field(row, "gender"),
			AccountType:    field(row, "accountType"),
			AccountNumber:  number,
			Balance:        balance,
			FailedAttempts: attempts,
			Locked:         field(row, "locked") == "true",
		})
	}
	return accounts, nil
}
