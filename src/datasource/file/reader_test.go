package file

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/tealeg/xlsx"
)

const flightCSV = `airline,departure_airport,arrival_airport,flight_date,departure_hour,delay_time,is_claim
MU,PVG,HKG,2024-07-21,3,4.5,0
SV,DOH,SUB,2024-01-15,14,0.5,1
`

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func buildWorkbook(t *testing.T, sheetName string, rows [][]string) *xlsx.File {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().Value = v
		}
	}
	return f
}

func TestReadCSVKeepsRawStrings(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), "flights.csv", flightCSV)

	df, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if df.Nrow() != 2 {
		t.Errorf("rows = %d, want 2", df.Nrow())
	}
	want := []string{"4.5", "0.5"}
	if got := df.Col("delay_time").Records(); !reflect.DeepEqual(got, want) {
		t.Errorf("delay_time records = %v, want %v", got, want)
	}
}

func TestReadXLSXHeaderAndPadding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flights.xlsx")

	f := buildWorkbook(t, "flights", [][]string{
		{"airline", "delay_time"},
		{"MU", "4.5"},
		{"SV"},
	})
	if err := f.Save(path); err != nil {
		t.Fatal(err)
	}

	df, err := ReadXLSX(path, "flights")
	if err != nil {
		t.Fatalf("ReadXLSX: %v", err)
	}
	if !reflect.DeepEqual(df.Names(), []string{"airline", "delay_time"}) {
		t.Errorf("columns = %v", df.Names())
	}
	want := []string{"4.5", ""}
	if got := df.Col("delay_time").Records(); !reflect.DeepEqual(got, want) {
		t.Errorf("short row not padded: %v, want %v", got, want)
	}

	if _, err := ReadXLSX(path, "bookings"); err == nil {
		t.Error("missing sheet accepted")
	}

	// Empty sheet name selects the first sheet.
	if _, err := ReadXLSX(path, ""); err != nil {
		t.Errorf("first-sheet read failed: %v", err)
	}
}

func TestReadXLSXBinaryMatchesFileRead(t *testing.T) {
	f := buildWorkbook(t, "flights", [][]string{
		{"airline", "departure_hour"},
		{"MU", "3"},
	})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}

	df, err := ReadXLSXBinary(buf.Bytes(), "flights")
	if err != nil {
		t.Fatalf("ReadXLSXBinary: %v", err)
	}
	if df.Nrow() != 1 {
		t.Errorf("rows = %d, want 1", df.Nrow())
	}
	if got := df.Col("airline").Records()[0]; got != "MU" {
		t.Errorf("airline = %q, want MU", got)
	}
}

func TestReadDatasetDispatch(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeTestFile(t, dir, "flights.csv", flightCSV)

	df, err := ReadDataset(csvPath, "")
	if err != nil {
		t.Fatalf("ReadDataset csv: %v", err)
	}
	if df.Nrow() != 2 {
		t.Errorf("rows = %d, want 2", df.Nrow())
	}

	txtPath := writeTestFile(t, dir, "flights.txt", "not a dataset")
	if _, err := ReadDataset(txtPath, ""); err == nil {
		t.Error("unsupported extension accepted")
	}
}

func TestIsDatasetFile(t *testing.T) {
	cases := map[string]bool{
		"flights.csv":  true,
		"flights.XLSX": true,
		"flights.xls":  false,
		"readme.md":    false,
		"flights":      false,
	}
	for name, want := range cases {
		if got := IsDatasetFile(name); got != want {
			t.Errorf("IsDatasetFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestFindLatestDatasetPrefersNewest(t *testing.T) {
	dir := t.TempDir()
	older := writeTestFile(t, dir, "flights_2023.csv", flightCSV)
	writeTestFile(t, dir, "flights_2024.csv", flightCSV)
	writeTestFile(t, dir, "notes.txt", "ignore me")

	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	info, err := FindLatestDataset(dir, "flights")
	if err != nil {
		t.Fatalf("FindLatestDataset: %v", err)
	}
	if info.Name != "flights_2024.csv" {
		t.Errorf("latest = %s, want flights_2024.csv", info.Name)
	}
	if info.FullPath != filepath.Join(dir, "flights_2024.csv") {
		t.Errorf("full path = %s", info.FullPath)
	}

	if _, err := FindLatestDataset(dir, "bookings"); err == nil {
		t.Error("keyword with no matches accepted")
	}
}

func TestEnsureDir(t *testing.T) {
	dir := t.TempDir()

	nested := filepath.Join(dir, "a", "b")
	if err := EnsureDir(nested); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := EnsureDir(nested); err != nil {
		t.Errorf("existing directory rejected: %v", err)
	}

	blocked := writeTestFile(t, dir, "occupied", "x")
	if err := EnsureDir(blocked); err == nil {
		t.Error("regular file accepted as directory")
	}
}
