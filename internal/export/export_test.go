package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sadopc/focusring/internal/catalog"
	"github.com/sadopc/focusring/internal/day"
	"github.com/sadopc/focusring/internal/summary"
)

func strp(s string) *string { return &s }
func intp(n int) *int       { return &n }

func sampleDay() day.Snapshot {
	s := day.EmptySnapshot("2025-03-14")
	s.Blocks[0].Category, s.Blocks[0].Focus, s.Blocks[0].Memo = strp("STUDY"), intp(4), strp("chapter 2")
	s.Blocks[1].Category = strp("STUDY")
	s.Blocks[40].Category = strp("RETIRED")
	s.Blocks[79].Memo = strp("memo only")
	return s
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(sampleDay(), catalog.Default(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	records := readCSV(t, path)

	// header + 4 data rows
	if len(records) != 5 {
		t.Fatalf("expected 5 rows (1 header + 4 data), got %d", len(records))
	}

	expectedHeader := []string{"Date", "Slot", "Start", "Category", "Label", "Weight", "Focus", "Memo"}
	for i, h := range expectedHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[1] != "0" || row[2] != "04:00" {
		t.Fatalf("slot/start = %q/%q, want 0/04:00", row[1], row[2])
	}
	if row[3] != "STUDY" || row[4] != "Study" || row[5] != "3" {
		t.Fatalf("category columns = %v", row[3:6])
	}
	if row[6] != "4" || row[7] != "chapter 2" {
		t.Fatalf("focus/memo = %q/%q", row[6], row[7])
	}

	if records[3][4] != "Unknown" {
		t.Fatalf("expected Unknown label for unresolved code, got %q", records[3][4])
	}
	last := records[4]
	if last[2] != "23:45" || last[3] != "" || last[7] != "memo only" {
		t.Fatalf("unexpected memo-only row: %v", last)
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	if err := ToCSV(day.EmptySnapshot("2025-03-14"), catalog.Default(), path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	err := ToCSV(day.EmptySnapshot("2025-03-14"), catalog.Default(), "/nonexistent/dir/file.csv")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	s := day.EmptySnapshot("2025-03-14")
	s.Blocks[3].Category = strp("BLOG")
	s.Blocks[3].Memo = strp(`notes with "quotes" and, commas`)
	path := filepath.Join(t.TempDir(), "special.csv")

	if err := ToCSV(s, catalog.Default(), path); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, path)
	if records[1][7] != `notes with "quotes" and, commas` {
		t.Fatalf("memo mangled: %q", records[1][7])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	s := sampleDay()
	cat := catalog.Default()
	path := filepath.Join(t.TempDir(), "test.json")

	if err := ToJSON(s, summary.Compute(s, cat), cat, path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.ExportedAt == "" {
		t.Fatal("exported_at should not be empty")
	}
	if result.Date != "2025-03-14" {
		t.Fatalf("date = %q", result.Date)
	}
	if len(result.Blocks) != 4 {
		t.Fatalf("blocks = %d, want 4", len(result.Blocks))
	}
	if result.Summary.FocusScore != 6 || result.Summary.TotalFilled != 3 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
	if len(result.Distribution) != 2 || result.Distribution[0].Code != "STUDY" {
		t.Fatalf("unexpected distribution: %+v", result.Distribution)
	}
	if len(result.TimeOfDay) != 5 {
		t.Fatalf("expected 5 periods, got %d", len(result.TimeOfDay))
	}

	b := result.Blocks[0]
	if b.Label != "Study" || b.Weight == nil || *b.Weight != 3 {
		t.Fatalf("unexpected first block: %+v", b)
	}
	if result.Blocks[2].Weight != nil {
		t.Fatal("unresolved block should have no weight")
	}
}

func TestToJSONEmpty(t *testing.T) {
	s := day.EmptySnapshot("2025-03-14")
	path := filepath.Join(t.TempDir(), "empty.json")

	if err := ToJSON(s, summary.Compute(s, catalog.Default()), catalog.Default(), path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result jsonExport
	json.Unmarshal(data, &result)

	if len(result.Blocks) != 0 {
		t.Fatalf("blocks = %d, want 0", len(result.Blocks))
	}
	if result.Distribution != nil {
		t.Fatal("distribution should be null for an empty day")
	}
}

func TestToJSONBadPath(t *testing.T) {
	s := day.EmptySnapshot("2025-03-14")
	err := ToJSON(s, summary.Daily{}, catalog.Default(), "/nonexistent/dir/file.json")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}
