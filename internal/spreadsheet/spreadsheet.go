// Package spreadsheet renders persona snapshots as XLSX workbooks.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"

	"github.com/aanand-mishra/personas-api/internal/types"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet every export contains.
const SheetName = "usuarios"

// ErrNoRecords mirrors csvcodec.ErrNoRecords for the XLSX path.
var ErrNoRecords = errors.New("spreadsheet: no records to write")

// Header is the first row of the worksheet, in column order.
var Header = []any{
	types.ColID,
	types.ColNombre,
	types.ColApellido,
	types.ColDNI,
	types.ColCorreo,
	types.ColEdad,
	types.ColCreacion,
	types.ColTelefono,
}

// Write renders records into a workbook and writes it to w.
func Write(w io.Writer, records []types.Persona) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"; rename instead of adding a second one.
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("spreadsheet: rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("spreadsheet: stream writer: %w", err)
	}

	if err := sw.SetRow("A1", Header); err != nil {
		return fmt.Errorf("spreadsheet: header: %w", err)
	}

	for i, rec := range records {
		var edad any
		if rec.Edad != nil {
			edad = *rec.Edad
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("spreadsheet: cell name: %w", err)
		}

		row := []any{
			rec.ID,
			rec.Nombre,
			rec.Apellido,
			rec.DNI,
			rec.Correo,
			edad,
			rec.CreatedAt,
			rec.Telefono,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("spreadsheet: row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("spreadsheet: flush: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("spreadsheet: write: %w", err)
	}
	return nil
}
