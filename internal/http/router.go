package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/fleetspend/internal/http/auth"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/credit"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/importcsv"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/invoice"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/limit"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/matching"
	apimw "github.com/MrJamesThe3rd/fleetspend/internal/http/middleware"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/stats"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/transaction"
	"github.com/MrJamesThe3rd/fleetspend/internal/http/vehicle"
)

type Handlers struct {
	Auth         *auth.Handler
	Credit       *credit.Handler
	Limits       *limit.Handler
	Stats        *stats.Handler
	Invoices     *invoice.Handler
	Transactions *transaction.Handler
	Import       *importcsv.Handler
	Vehicles     *vehicle.Handler
	Aliases      *matching.Handler
}

type Options struct {
	CORSOrigins []string
	Timeout     time.Duration
}

func New(tokens apimw.TokenVerifier, opts Options, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Auth.PublicRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(apimw.Authenticate(tokens))
				h.Auth.Routes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(apimw.Authenticate(tokens))

			r.Group(h.Credit.Routes)

			r.Route("/limits", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Limits.Routes(r)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Stats.Routes(r)
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Invoices.Routes(r)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Route("/import", h.Import.Routes)

				r.Group(func(r chi.Router) {
					r.Use(middleware.AllowContentType("application/json"))
					h.Transactions.Routes(r)
				})
			})

			r.Route("/vehicles", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Vehicles.Routes(r)
			})

			r.Route("/station-aliases", h.Aliases.Routes)
		})
	})

	return router
}
