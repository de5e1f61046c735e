package ledger

import (
	"encoding/csv"
	"os"
	"strings"
	"testing"

	"github.com/fhic/bankcore/internal/models"
)

func TestAppendCreatesHeaderOnFirstUse(t *testing.T) {
	l := NewActivityLog(t.TempDir(), testLogger())

	err := l.Append(models.ActivityRecord{
		Timestamp:        "01-08-2026 10:00:00",
		Username:         "asha",
		AccountNumber:    "562100000001",
		Action:           models.TxnDeposit,
		Amount:           "500",
		ResultingBalance: "1500",
		TxnID:            "FHIC0000000001",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	raw, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1 row", len(lines))
	}
	if lines[0] != strings.Join(activityHeader, ",") {
		t.Errorf("header = %q", lines[0])
	}
}

func TestAppendIsAppendOnly(t *testing.T) {
	l := NewActivityLog(t.TempDir(), testLogger())

	for i, action := range []string{models.TxnDeposit, models.TxnWithdraw, models.TxnExpense} {
		err := l.Append(models.ActivityRecord{
			Timestamp:     "01-08-2026 10:00:00",
			Username:      "asha",
			AccountNumber: "562100000001",
			Action:        action,
			Amount:        "100",
			TxnID:         "FHIC000000000" + string(rune('1'+i)),
		})
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	records, err := l.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	// File order is write order.
	want := []string{models.TxnDeposit, models.TxnWithdraw, models.TxnExpense}
	for i, rec := range records {
		if rec.Action != want[i] {
			t.Errorf("record %d action = %s, want %s", i, rec.Action, want[i])
		}
	}
}

func TestMetadataRoundTripAsJSON(t *testing.T) {
	l := NewActivityLog(t.TempDir(), testLogger())

	meta := map[string]string{"category": "Transport", "merchant": "Metro", "method": "Debit Card"}
	err := l.Append(models.ActivityRecord{
		Timestamp:     "01-08-2026 10:00:00",
		Username:      "asha",
		AccountNumber: "562100000001",
		Action:        models.TxnExpense,
		Amount:        "45",
		TxnID:         "FHIC0000000001",
		Metadata:      meta,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := l.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	got := records[0].Metadata
	for k, v := range meta {
		if got[k] != v {
			t.Errorf("metadata[%s] = %q, want %q", k, got[k], v)
		}
	}
}

func TestLegacyMetadataFormatAccepted(t *testing.T) {
	m := decodeMetadata("category=Transport;merchant=Metro;method=Debit Card")
	if m["category"] != "Transport" || m["merchant"] != "Metro" || m["method"] != "Debit Card" {
		t.Errorf("legacy metadata decode: %v", m)
	}
	if decodeMetadata("") != nil {
		t.Error("empty metadata should decode to nil")
	}
	if decodeMetadata("garbage-without-separator") != nil {
		t.Error("unparseable metadata should decode to nil")
	}
}

func TestRecordsOnMissingFile(t *testing.T) {
	l := NewActivityLog(t.TempDir(), testLogger())
	records, err := l.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if records != nil {
		t.Errorf("got %v, want nil", records)
	}
}

func TestRecordsToleratesShortRows(t *testing.T) {
	dir := t.TempDir()
	l := NewActivityLog(dir, testLogger())

	// Hand-write a log with a truncated row between two good ones.
	f, err := os.Create(l.Path())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	w := csv.NewWriter(f)
	w.Write(activityHeader)
	w.Write([]string{"01-08-2026 10:00:00", "asha", "562100000001", "DEPOSIT", "500", "", "1500", "FHIC0000000001", "", ""})
	w.Write([]string{"01-08-2026 10:01:00", "asha"}) // truncated
	w.Write([]string{"01-08-2026 10:02:00", "asha", "562100000001", "WITHDRAW", "200", "", "1300", "FHIC0000000002", "", ""})
	w.Flush()
	f.Close()

	records, err := l.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[1].Action != "" || records[1].TxnID != "" {
		t.Errorf("short row should yield empty fields: %+v", records[1])
	}
	if records[2].TxnID != "FHIC0000000002" {
		t.Errorf("row after short row lost: %+v", records[2])
	}
}
