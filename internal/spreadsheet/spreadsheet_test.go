package spreadsheet

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/aanand-mishra/personas-api/internal/types"
	"github.com/xuri/excelize/v2"
)

func TestWrite(t *testing.T) {
	age := 30
	records := []types.Persona{
		{ID: 1, Nombre: "Ana", Apellido: "Lopez", DNI: "123", Correo: "ana@test.com", Edad: &age,
			CreatedAt: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), Telefono: "555"},
		{ID: 2, Nombre: "Luis", Correo: "luis@test.com", CreatedAt: time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][4] != types.ColCorreo {
		t.Errorf("header[4] = %q, want %q", rows[0][4], types.ColCorreo)
	}
	if rows[1][1] != "Ana" || rows[1][4] != "ana@test.com" || rows[1][5] != "30" {
		t.Errorf("unexpected first data row: %v", rows[1])
	}
	if rows[2][4] != "luis@test.com" {
		t.Errorf("unexpected second data row: %v", rows[2])
	}
}

func TestWriteEmpty(t *testing.T) {
	if err := Write(&bytes.Buffer{}, nil); !errors.Is(err, ErrNoRecords) {
		t.Fatalf("error = %v, want ErrNoRecords", err)
	}
}
