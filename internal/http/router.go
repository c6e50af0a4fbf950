package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	categoryHandler "github.com/hometab/hometab/internal/http/category"
	expenseHandler "github.com/hometab/hometab/internal/http/expense"
	exportHandler "github.com/hometab/hometab/internal/http/export"
	forecastHandler "github.com/hometab/hometab/internal/http/forecast"
	importHandler "github.com/hometab/hometab/internal/http/importcsv"
	merchantHandler "github.com/hometab/hometab/internal/http/merchant"
	"github.com/hometab/hometab/internal/http/middleware"
	receiptHandler "github.com/hometab/hometab/internal/http/receipt"
)

func New(
	receiptsV1 *receiptHandler.Handler,
	expensesV1 *expenseHandler.Handler,
	forecastV1 *forecastHandler.Handler,
	importV1 *importHandler.Handler,
	merchantV1 *merchantHandler.Handler,
	exportV1 *exportHandler.Handler,
	categoriesV1 *categoryHandler.Handler,
	authSecret string,
) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(authSecret))

		r.Route("/receipts", func(r chi.Router) {
			r.Use(chimiddleware.AllowContentType("application/json"))
			receiptsV1.Routes(r)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Use(chimiddleware.AllowContentType("application/json"))
			expensesV1.Routes(r)
		})

		r.Route("/forecast", func(r chi.Router) {
			forecastV1.Routes(r)
		})

		r.Route("/import", importV1.Routes)

		r.Route("/merchants", func(r chi.Router) {
			merchantV1.Routes(r)
		})

		r.Route("/export", func(r chi.Router) {
			r.Use(chimiddleware.AllowContentType("application/json"))
			exportV1.Routes(r)
		})

		r.Route("/categories", func(r chi.Router) {
			categoriesV1.Routes(r)
		})
	})

	return router
}
