package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"centime/internal/domain/account"
	"centime/internal/domain/importer"
	"centime/internal/domain/transaction"
	"centime/internal/infrastructure/postgres"
	"centime/internal/shared/config"
	"centime/internal/statement"
)

const usage = `Centime Admin CLI - Management commands for the Centime API

Usage:
  admin <command> [options]

Commands:
  import       Import a bank statement file for a user
  parse-check  Parse a statement file and print the result without touching the database

Examples:
  # Preview an import without persisting anything
  admin import --user-id=1 --bank-id=bnp --file=statement.csv --dry-run

  # Import a statement
  admin import --user-id=1 --bank-id=bnp --file=statement.ofx

  # Inspect what the parsers extract from a file
  admin parse-check --file=statement.xlsx
`

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("%s\n", usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "import":
		runImport(os.Args[2:])
	case "parse-check":
		runParseCheck(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Printf("%s\n", usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Printf("%s\n", usage)
		os.Exit(1)
	}
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	userID := fs.Int64("user-id", 0, "User ID to import for")
	bankID := fs.String("bank-id", "", "Bank the statement belongs to")
	file := fs.String("file", "", "Statement file to import (.csv, .xlsx, .ofx)")
	accountID := fs.String("account-id", "", "Explicit target account (optional)")
	dryRun := fs.Bool("dry-run", false, "Print the preview without committing")
	timeoutStr := fs.String("timeout", "5m", "Timeout for the operation (e.g., 30s, 5m)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *userID <= 0 || *bankID == "" || *file == "" {
		fmt.Println("Error: --user-id, --bank-id and --file are required")
		fs.Usage()
		os.Exit(1)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read statement file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	importService := importer.NewService(
		statement.NewRegistry(),
		account.NewService(accountRepo),
		accountRepo,
		transaction.NewDuplicateResolver(transactionRepo),
		postgres.NewImportStore(db),
		cfg.Import.BaseCurrency,
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	preview, err := importService.Preview(ctx, importer.PreviewInput{
		UserID:          *userID,
		BankID:          *bankID,
		FileName:        filepath.Base(*file),
		Data:            data,
		TargetAccountID: *accountID,
	})
	if err != nil {
		log.Fatalf("Preview failed: %v", err)
	}

	printJSON(preview)

	if *dryRun {
		log.Println("Dry run, nothing committed")
		return
	}

	result, err := importService.Commit(ctx, importer.CommitInput{
		UserID:   *userID,
		BankID:   *bankID,
		FileName: filepath.Base(*file),
		Preview:  *preview,
	})
	if err != nil {
		log.Fatalf("Commit failed: %v", err)
	}

	log.Printf("Import finished: imported=%d, accounts=%d", result.ImportedCount, result.AccountsSynced)
}

func runParseCheck(args []string) {
	fs := flag.NewFlagSet("parse-check", flag.ExitOnError)

	file := fs.String("file", "", "Statement file to parse (.csv, .xlsx, .ofx)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *file == "" {
		fmt.Println("Error: --file is required")
		fs.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read statement file: %v", err)
	}

	registry := statement.NewRegistry()
	parser, err := registry.ParserFor(filepath.Base(*file))
	if err != nil {
		log.Fatalf("%v (supported: %v)", err, registry.Extensions())
	}

	parsed, err := parser.Parse(data)
	if err != nil {
		log.Fatalf("Parse failed: %v", err)
	}

	log.Printf("Parsed with %s: accounts=%d, transactions=%d", parser.Name(), len(parsed.Accounts), parsed.TransactionCount())
	printJSON(parsed)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
}
