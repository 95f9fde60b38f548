package csvcodec

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aanand-mishra/personas-api/internal/types"
)

const header = "nombre_persona,apellido_persona,dni_persona,correo_persona,edad_persona,telefono_persona"

func TestReadAll(t *testing.T) {
	input := header + "\nAna,Lopez,123,ana@test.com,30,555\nLuis,Diaz,456,luis@test.com,41,777\n"

	rows, err := Parse(strings.NewReader(input)).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0][types.ColCorreo] != "ana@test.com" {
		t.Errorf("rows[0] correo = %q", rows[0][types.ColCorreo])
	}
	if rows[1][types.ColNombre] != "Luis" || rows[1][types.ColEdad] != "41" {
		t.Errorf("unexpected rows[1]: %v", rows[1])
	}
}

func TestNextIsLazy(t *testing.T) {
	p := Parse(strings.NewReader(header + "\nAna,Lopez,123,ana@test.com,30,555\n"))

	row, err := p.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if row.Email() != "ana@test.com" {
		t.Errorf("Email() = %q", row.Email())
	}
	if len(p.Header()) != 6 {
		t.Errorf("Header() has %d columns, want 6", len(p.Header()))
	}

	if _, err := p.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("second Next() error = %v, want io.EOF", err)
	}
	if _, err := p.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("Next() after EOF error = %v, want io.EOF", err)
	}
}

func TestShortAndLongLines(t *testing.T) {
	input := header + "\nAna,Lopez\nLuis,Diaz,456,luis@test.com,41,777,extra\n"

	rows, err := Parse(strings.NewReader(input)).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if _, ok := rows[0][types.ColCorreo]; ok {
		t.Error("short line should not carry a correo_persona key")
	}
	if len(rows[1]) != 6 {
		t.Errorf("long line should be trimmed to the header, got %d keys", len(rows[1]))
	}
}

func TestEmptyEmailCell(t *testing.T) {
	rows, err := Parse(strings.NewReader(header + "\nAna,Lopez,123,,30,555\n")).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if got, ok := rows[0][types.ColCorreo]; !ok || got != "" {
		t.Errorf("correo = %q (present %v), want empty and present", got, ok)
	}
}

func TestSeparatorOnlyLineIsARow(t *testing.T) {
	rows, err := Parse(strings.NewReader(header + "\n,,,,,\n")).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
}

func TestHeaderBOMAndSpaces(t *testing.T) {
	input := "\ufeffnombre_persona , correo_persona\nAna,ana@test.com\n"

	rows, err := Parse(strings.NewReader(input)).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if rows[0][types.ColNombre] != "Ana" || rows[0].Email() != "ana@test.com" {
		t.Errorf("unexpected row: %v", rows[0])
	}
}

func TestEmptyInput(t *testing.T) {
	_, err := Parse(strings.NewReader("")).ReadAll()
	if !errors.Is(err, ErrNoHeader) {
		t.Fatalf("error = %v, want ErrNoHeader", err)
	}
}

func TestHeaderOnly(t *testing.T) {
	rows, err := Parse(strings.NewReader(header + "\n")).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestMalformedQuoting(t *testing.T) {
	_, err := Parse(strings.NewReader(header + "\nAna,\"Lo\"pez,1,a@b.co,1,2\n")).ReadAll()
	if err == nil {
		t.Fatal("expected a parse error for a bare quote")
	}
}

func TestBareQuoteInUnquotedField(t *testing.T) {
	_, err := Parse(strings.NewReader(header + "\nAna,O\"Brien,1,a@b.co,1,2\n")).ReadAll()
	if !errors.Is(err, csv.ErrBareQuote) {
		t.Fatalf("error = %v, want csv.ErrBareQuote", err)
	}
}

func TestUnterminatedQuote(t *testing.T) {
	_, err := Parse(strings.NewReader(header + "\n\"Ana,Lopez,1,a@b.co,1,2\n")).ReadAll()
	if !errors.Is(err, csv.ErrQuote) {
		t.Fatalf("error = %v, want csv.ErrQuote", err)
	}
}

func TestSerialize(t *testing.T) {
	age := 30
	created := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	records := []types.Persona{
		{ID: 1, Nombre: "Ana", Apellido: "Lopez", DNI: "123", Correo: "ana@test.com", Edad: &age, CreatedAt: created, Telefono: "555"},
		{ID: 2, Nombre: "Luis", Apellido: "Diaz", DNI: "456", Correo: "luis@test.com", CreatedAt: created, Telefono: "777"},
	}

	out, err := Serialize(records)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}

	wantHeader := "id,nombre_persona,apellido_persona,dni_persona,correo_persona,edad_persona,fecha_creacion,telefono_persona"
	if lines[0] != wantHeader {
		t.Errorf("header = %q, want %q", lines[0], wantHeader)
	}
	if want := "1,Ana,Lopez,123,ana@test.com,30,2024-05-01T10:30:00Z,555"; lines[1] != want {
		t.Errorf("line 1 = %q, want %q", lines[1], want)
	}
	if want := "2,Luis,Diaz,456,luis@test.com,,2024-05-01T10:30:00Z,777"; lines[2] != want {
		t.Errorf("line 2 = %q, want %q", lines[2], want)
	}
}

func TestSerializeEmpty(t *testing.T) {
	if _, err := Serialize(nil); !errors.Is(err, ErrNoRecords) {
		t.Fatalf("error = %v, want ErrNoRecords", err)
	}
}

func TestRoundTripThroughParse(t *testing.T) {
	records := []types.Persona{{ID: 7, Nombre: "Ana, María", Correo: "ana@test.com"}}

	out, err := Serialize(records)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	rows, err := Parse(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if rows[0][types.ColNombre] != "Ana, María" {
		t.Errorf("nombre = %q, want the quoted value back", rows[0][types.ColNombre])
	}
}
