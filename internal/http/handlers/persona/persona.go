// Package persona contains the HTTP handlers for the /api/usuarios
// resource.
//
// Handlers follow the closure / factory pattern: each exported function
// receives its dependencies once at startup and returns the
// http.HandlerFunc the router calls on every request.
//
//	r.Get("/api/usuarios", persona.GetList(store))
package persona

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/aanand-mishra/personas-api/internal/exporter"
	"github.com/aanand-mishra/personas-api/internal/importer"
	"github.com/aanand-mishra/personas-api/internal/logging"
	"github.com/aanand-mishra/personas-api/internal/storage"
	"github.com/aanand-mishra/personas-api/internal/utils/response"
)

// UploadField is the multipart field the import expects the file in.
const UploadField = "usuariosCSV"

// csvMediaType is the only declared upload type accepted.
const csvMediaType = "text/csv"

// User-facing messages.
const (
	MsgListFailed     = "Error al consultar los usuarios"
	MsgNothingExport  = "No se encontraron registros por exportar"
	MsgExportFailed   = "Error al exportar los usuarios"
	MsgWriteFailed    = "Error al escribir el archivo CSV"
	MsgBadFormat      = "Formato de exportación no soportado"
	MsgNoFile         = "No se envió ningún archivo"
	MsgNotCSV         = "El archivo debe ser de formato CSV"
	MsgTooLarge       = "El archivo excede el tamaño máximo permitido"
	MsgInvalidCSV     = "El archivo CSV no tiene un formato válido"
	MsgBusy           = "Hay demasiadas importaciones en curso, intente más tarde"
	MsgInsertFailed   = "Hubo un error al insertar los datos..."
	MsgImported       = "Datos de usuarios importados exitosamente"
	MsgRequestTimeout = "La solicitud fue cancelada"
)

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/usuarios
// Returns a JSON array of every persona, [] when the table is empty.
//
// Error responses:
//
//	500 Internal — { "message": "Error al consultar los usuarios" }
//
// ─────────────────────────────────────────────────────────────────────────────
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		personas, err := store.GetPersonas(r.Context())
		if err != nil {
			log.Error("error getting personas", slog.String("error", err.Error()))
			response.WriteMessage(w, http.StatusInternalServerError, MsgListFailed)
			return
		}

		log.Debug("listed personas", slog.Int("count", len(personas)))
		response.WriteJSON(w, http.StatusOK, personas)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Export handles GET /api/usuarios/export[?formato=xlsx]
// Writes the snapshot to a file and sends it as an attachment named
// usuarios.csv (or usuarios.xlsx).
//
// Responses:
//
//	200 attachment
//	200 { "message": "No se encontraron registros por exportar" }
//	400 { "message": ... }   unknown formato
//	500 { "error": ... }     storage or write failure
//
// ─────────────────────────────────────────────────────────────────────────────
func Export(svc *exporter.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		format, err := exporter.ParseFormat(r.URL.Query().Get("formato"))
		if err != nil {
			response.WriteMessage(w, http.StatusBadRequest, MsgBadFormat)
			return
		}

		file, err := svc.Export(r.Context(), format)
		switch {
		case errors.Is(err, exporter.ErrEmpty):
			response.WriteMessage(w, http.StatusOK, MsgNothingExport)
			return
		case errors.Is(err, exporter.ErrSnapshot):
			log.Error("error reading personas for export", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error{Error: MsgExportFailed})
			return
		case err != nil:
			log.Error("error writing export file", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error{Error: MsgWriteFailed})
			return
		}
		defer func() {
			if err := file.Cleanup(); err != nil {
				log.Warn("error removing export file", slog.String("path", file.Path), slog.String("error", err.Error()))
			}
		}()

		if err := response.Attachment(w, r, file.Path, file.Name, format.ContentType()); err != nil {
			log.Error("error sending export file", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error{Error: MsgWriteFailed})
			return
		}

		log.Info("personas exported",
			slog.String("format", string(format)),
			slog.Int("records", file.Records))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Import handles POST /api/usuarios/import
// Expects a multipart form with the CSV in the "usuariosCSV" field. The
// batch is all-or-nothing.
//
// Responses:
//
//	200 { "message": "Datos de usuarios importados exitosamente" }
//	400 { "message": ... }                     missing file, not CSV, bad CSV
//	400 { "registros_duplicados": [...] }      rejected rows
//	400 { "ok": false, "message": ... }        insert failed, nothing committed
//	413 { "message": ... }                     upload too large
//	500 { "message": ... }                     existing records unreadable
//	503 { "message": ... }                     every import slot busy
//
// ─────────────────────────────────────────────────────────────────────────────
func Import(svc *importer.Service, maxSize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		// ── Step 1: Pull the file out of the form ─────────────────────
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)

		if err := r.ParseMultipartForm(maxSize); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.WriteMessage(w, http.StatusRequestEntityTooLarge, MsgTooLarge)
				return
			}
			response.WriteMessage(w, http.StatusBadRequest, MsgNoFile)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile(UploadField)
		if err != nil {
			response.WriteMessage(w, http.StatusBadRequest, MsgNoFile)
			return
		}
		defer file.Close()

		// ── Step 2: Check the declared type ───────────────────────────
		mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
		if err != nil || mediaType != csvMediaType {
			response.WriteMessage(w, http.StatusBadRequest, MsgNotCSV)
			return
		}

		// ── Step 3: Parse, reconcile and insert ───────────────────────
		out, err := svc.Import(r.Context(), file)
		switch {
		case errors.Is(err, importer.ErrBusy):
			response.WriteMessage(w, http.StatusServiceUnavailable, MsgBusy)
			return
		case errors.Is(err, importer.ErrInvalidCSV):
			response.WriteMessage(w, http.StatusBadRequest, MsgInvalidCSV)
			return
		case errors.Is(err, importer.ErrInsert):
			log.Error("error inserting personas",
				slog.String("import_id", out.ID),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusBadRequest, response.InsertFailure{OK: false, Message: MsgInsertFailed})
			return
		case errors.Is(err, importer.ErrSnapshot):
			log.Error("error reading existing emails",
				slog.String("import_id", out.ID),
				slog.String("error", err.Error()))
			response.WriteMessage(w, http.StatusInternalServerError, MsgListFailed)
			return
		case err != nil:
			// Context cancelled or deadline hit while waiting for a slot.
			log.Warn("import aborted", slog.String("error", err.Error()))
			response.WriteMessage(w, http.StatusServiceUnavailable, MsgRequestTimeout)
			return
		}

		if out.Rejected {
			response.WriteJSON(w, http.StatusBadRequest, response.Rejection{RegistrosDuplicados: out.Errors})
			return
		}

		log.Info("personas imported",
			slog.String("import_id", out.ID),
			slog.String("file", header.Filename),
			slog.Int64("inserted", out.Inserted))
		response.WriteMessage(w, http.StatusOK, MsgImported)
	}
}

// Health handles GET /healthz.
func Health(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			logging.FromContext(r.Context()).Error("health check failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusServiceUnavailable, response.Status{Status: response.StatusError})
			return
		}
		response.WriteJSON(w, http.StatusOK, response.Status{Status: response.StatusOK})
	}
}
