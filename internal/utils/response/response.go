// Package response provides helpers for writing consistent HTTP responses.
//
// Every JSON body this service returns has one of a handful of shapes.
// Rather than building maps in every handler, the shapes live here so
// API consumers always get the same keys.
package response

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"

	"github.com/aanand-mishra/personas-api/internal/types"
)

// Message is the { "message": "..." } body used for informational and
// request-shape responses.
type Message struct {
	Message string `json:"message"`
}

// Error is the { "error": "..." } body the export endpoint uses.
type Error struct {
	Error string `json:"error"`
}

// InsertFailure is returned when the validated batch could not be written.
type InsertFailure struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Rejection lists every row that kept an import from being accepted.
type Rejection struct {
	RegistrosDuplicados []types.ValidationError `json:"registros_duplicados"`
}

// Status is the health-check body.
type Status struct {
	Status string `json:"status"`
}

// Status string constants for the health check.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ─────────────────────────────────────────────────────────────────────────────
// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
// ─────────────────────────────────────────────────────────────────────────────
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteMessage is shorthand for WriteJSON(w, status, Message{msg}).
func WriteMessage(w http.ResponseWriter, status int, msg string) error {
	return WriteJSON(w, status, Message{Message: msg})
}

// ─────────────────────────────────────────────────────────────────────────────
// Attachment streams the file at path as a download named name.
// contentType is set explicitly: the mime tables do not know ".csv"
// on every platform.
//
// http.ServeContent handles Range requests and Last-Modified for us;
// Content-Disposition makes browsers save instead of display.
// ─────────────────────────────────────────────────────────────────────────────
func Attachment(w http.ResponseWriter, r *http.Request, path, name, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("Attachment: open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("Attachment: stat: %w", err)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), f)
	return nil
}
