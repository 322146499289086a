package main

import (
	"log"

	"centime/internal/domain/account"
	"centime/internal/domain/importer"
	"centime/internal/domain/transaction"
	"centime/internal/infrastructure/postgres"
	httphandlers "centime/internal/interfaces/http"
	"centime/internal/shared/config"
	"centime/internal/statement"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	ImportHandler      *httphandlers.ImportHandler
	AccountHandler     *httphandlers.AccountHandler
	TransactionHandler *httphandlers.TransactionHandler
	BankHandler        *httphandlers.BankHandler
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	// Initialize repositories
	bankRepo := postgres.NewBankRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	importStore := postgres.NewImportStore(db)

	// Initialize domain services
	accountService := account.NewService(accountRepo)
	duplicateResolver := transaction.NewDuplicateResolver(transactionRepo)
	registry := statement.NewRegistry()
	importService := importer.NewService(
		registry,
		accountService,
		accountRepo,
		duplicateResolver,
		importStore,
		cfg.Import.BaseCurrency,
	)

	// Initialize handlers
	importHandler := httphandlers.NewImportHandler(importService, bankRepo, cfg.Import.MaxUploadBytes)
	accountHandler := httphandlers.NewAccountHandler(accountService)
	transactionHandler := httphandlers.NewTransactionHandler(accountService, transactionRepo)
	bankHandler := httphandlers.NewBankHandler(bankRepo)

	return &Dependencies{
		DB:                 db,
		ImportHandler:      importHandler,
		AccountHandler:     accountHandler,
		TransactionHandler: transactionHandler,
		BankHandler:        bankHandler,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
