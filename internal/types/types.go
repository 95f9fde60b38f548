// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, storage, the codec and the reconciler can all import types
// without depending on each other.
package types

import "time"

// Column names of the persona table. They double as the CSV header names
// accepted by the importer and produced by the exporter.
const (
	ColID       = "id"
	ColNombre   = "nombre_persona"
	ColApellido = "apellido_persona"
	ColDNI      = "dni_persona"
	ColCorreo   = "correo_persona"
	ColEdad     = "edad_persona"
	ColCreacion = "fecha_creacion"
	ColTelefono = "telefono_persona"
)

// Persona is one persisted row of the persona table.
//
// Struct tags serve two purposes:
//
//  1. json:"..." — key names in the GET /api/usuarios response.
//  2. csv:"..."  — header names used by the CSV exporter (csvutil).
//
// Field order is the column order of every export.
//
// Edad is a pointer because the column is nullable: an empty or
// non-numeric age in an import is stored as NULL.
type Persona struct {
	ID        int64     `json:"id"               csv:"id"`
	Nombre    string    `json:"nombre_persona"   csv:"nombre_persona"`
	Apellido  string    `json:"apellido_persona" csv:"apellido_persona"`
	DNI       string    `json:"dni_persona"      csv:"dni_persona"`
	Correo    string    `json:"correo_persona"   csv:"correo_persona"`
	Edad      *int      `json:"edad_persona"     csv:"edad_persona,omitempty"`
	CreatedAt time.Time `json:"fecha_creacion"   csv:"fecha_creacion"`
	Telefono  string    `json:"telefono_persona" csv:"telefono_persona"`
}

// NewPersona is one entry of an insert plan: the fields taken from an
// uploaded row plus the server-assigned creation timestamp.
type NewPersona struct {
	Nombre    string
	Apellido  string
	DNI       string
	Correo    string
	Edad      *int
	Telefono  string
	CreatedAt time.Time
}

// CandidateRow is one parsed CSV line, keyed by header name.
// It has no enforced shape until the reconciler has looked at it.
type CandidateRow map[string]string

// Email returns the candidate's correo_persona value ("" when absent).
func (c CandidateRow) Email() string {
	return c[ColCorreo]
}

// Snapshot is what an import checks candidates against: every stored
// correo_persona plus the number of rows in the table. Rows counts rows
// whose correo is NULL too, so it can exceed len(Emails).
type Snapshot struct {
	Emails []string
	Rows   int
}

// ValidationError reports why one uploaded row was rejected.
// Index is the 1-based position of the row inside the uploaded batch.
type ValidationError struct {
	Index  int    `json:"index"`
	Correo string `json:"correo_persona"`
	Error  string `json:"error"`
}

// Rejection reasons, exactly as they are returned to clients.
const (
	ReasonEmptyEmail     = "El correo no debe estar vacío"
	ReasonMalformedEmail = "El correo no cumple con un formato válido"
	ReasonDuplicate      = "Registro duplicado"
)
