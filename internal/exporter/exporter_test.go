package exporter

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aanand-mishra/personas-api/internal/storage/memory"
	"github.com/aanand-mishra/personas-api/internal/types"
)

type failingStore struct {
	*memory.Store
}

func (failingStore) GetPersonas(context.Context) ([]types.Persona, error) {
	return nil, errors.New("connection refused")
}

func seeded(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	edad := 30
	_, err := s.InsertPersonas(context.Background(), []types.NewPersona{{
		Nombre:    "Ana",
		Apellido:  "Lopez",
		DNI:       "123",
		Correo:    "ana@test.com",
		Edad:      &edad,
		Telefono:  "555",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{"XLSX", FormatXLSX, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestExportCSV(t *testing.T) {
	svc := New(seeded(t), t.TempDir())

	file, err := svc.Export(context.Background(), FormatCSV)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if file.Name != "usuarios.csv" || file.Records != 1 {
		t.Errorf("file = %+v", file)
	}

	data, err := os.ReadFile(file.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "id,nombre_persona,") {
		t.Errorf("unexpected header: %q", data)
	}
	if !strings.Contains(string(data), "ana@test.com") {
		t.Errorf("record missing from export: %q", data)
	}

	if err := file.Cleanup(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Dir(file.Path)); !os.IsNotExist(err) {
		t.Errorf("export dir still present after Cleanup: %v", err)
	}
}

func TestExportXLSX(t *testing.T) {
	svc := New(seeded(t), t.TempDir())

	file, err := svc.Export(context.Background(), FormatXLSX)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	defer file.Cleanup()

	if file.Name != "usuarios.xlsx" {
		t.Errorf("name = %q", file.Name)
	}
	info, err := os.Stat(file.Path)
	if err != nil || info.Size() == 0 {
		t.Errorf("xlsx file missing or empty: %v", err)
	}
}

func TestExportEmptyWritesNothing(t *testing.T) {
	dir := t.TempDir()
	svc := New(memory.New(), dir)

	if _, err := svc.Export(context.Background(), FormatCSV); !errors.Is(err, ErrEmpty) {
		t.Fatalf("error = %v, want ErrEmpty", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("export dir has %d entries, want 0", len(entries))
	}
}

func TestExportSnapshotFailure(t *testing.T) {
	svc := New(failingStore{memory.New()}, t.TempDir())

	if _, err := svc.Export(context.Background(), FormatCSV); !errors.Is(err, ErrSnapshot) {
		t.Errorf("error = %v, want ErrSnapshot", err)
	}
}

func TestWriteTo(t *testing.T) {
	var buf bytes.Buffer
	n, err := New(seeded(t), "").WriteTo(context.Background(), &buf, FormatCSV)
	if err != nil || n != 1 {
		t.Fatalf("WriteTo() = %d, %v", n, err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 2 {
		t.Errorf("got %d lines, want 2", lines)
	}
}
