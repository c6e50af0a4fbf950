package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/hometab/hometab/internal/config"
	"github.com/hometab/hometab/internal/database"
	"github.com/hometab/hometab/internal/expense"
	expenseStore "github.com/hometab/hometab/internal/expense/store"
	"github.com/hometab/hometab/internal/export"
	"github.com/hometab/hometab/internal/forecast"
	hometabHttp "github.com/hometab/hometab/internal/http"
	categoryHandler "github.com/hometab/hometab/internal/http/category"
	expenseHandler "github.com/hometab/hometab/internal/http/expense"
	exportHandler "github.com/hometab/hometab/internal/http/export"
	forecastHandler "github.com/hometab/hometab/internal/http/forecast"
	importHandler "github.com/hometab/hometab/internal/http/importcsv"
	merchantHandler "github.com/hometab/hometab/internal/http/merchant"
	receiptHandler "github.com/hometab/hometab/internal/http/receipt"
	"github.com/hometab/hometab/internal/importer"
	"github.com/hometab/hometab/internal/merchant"
	merchantStore "github.com/hometab/hometab/internal/merchant/store"
	"github.com/hometab/hometab/internal/receipt"
	receiptStore "github.com/hometab/hometab/internal/receipt/store"
)

func main() {
	// Best effort; the environment wins over .env files.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString(), database.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	expStore := expenseStore.New(db)

	var (
		receiptService  = receipt.NewService(receiptStore.New(db))
		expenseService  = expense.NewService(expStore)
		forecastService = forecast.NewService(expStore, cfg.Forecast.LookbackMonths)
		merchantService = merchant.NewService(merchantStore.New(db))
		importService   = importer.NewService()
		exportService   = export.NewService(expenseService)
	)

	// Receipts saved through the split ledger land in the spending history.
	receiptService.MirrorExpenses(expenseService)

	var (
		receiptH  = receiptHandler.NewHandler(receiptService)
		expenseH  = expenseHandler.NewHandler(expenseService)
		forecastH = forecastHandler.NewHandler(forecastService)
		importH   = importHandler.NewHandler(importService, expenseService, merchantService)
		merchantH = merchantHandler.NewHandler(merchantService)
		exportH   = exportHandler.NewHandler(exportService, receiptService)
		categoryH = categoryHandler.NewHandler()
	)

	router := hometabHttp.New(receiptH, expenseH, forecastH, importH, merchantH, exportH, categoryH, cfg.Auth.Secret)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
