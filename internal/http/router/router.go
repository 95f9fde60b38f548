// Package router assembles the chi router: middleware stack, API routes
// and the static front end.
package router

import (
	"net/http"
	"time"

	"github.com/aanand-mishra/personas-api/internal/exporter"
	"github.com/aanand-mishra/personas-api/internal/http/handlers/persona"
	"github.com/aanand-mishra/personas-api/internal/importer"
	"github.com/aanand-mishra/personas-api/internal/logging"
	"github.com/aanand-mishra/personas-api/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps are the services the routes are built from.
type Deps struct {
	Store    storage.Storage
	Importer *importer.Service
	Exporter *exporter.Service

	MaxUploadSize  int64
	RequestTimeout time.Duration
	AllowedOrigins []string
	StaticDir      string
}

// New returns the application handler.
//
// Route table:
//
//	GET  /api/usuarios         → list all personas
//	GET  /api/usuarios/export  → download usuarios.csv (or .xlsx)
//	POST /api/usuarios/import  → bulk import from CSV
//	GET  /healthz              → storage ping
//	GET  /*                    → files under StaticDir
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Requests)
	r.Use(middleware.Recoverer)
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}

	r.Get("/healthz", persona.Health(d.Store))

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}))

		r.Get("/usuarios", persona.GetList(d.Store))
		r.Get("/usuarios/export", persona.Export(d.Exporter))
		r.Post("/usuarios/import", persona.Import(d.Importer, d.MaxUploadSize))
	})

	if d.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(d.StaticDir)))
	}

	return r
}
