package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/tx-categorizer/internal/categorize"
	"github.com/dvloznov/tx-categorizer/internal/config"
	"github.com/dvloznov/tx-categorizer/internal/logger"
	"github.com/dvloznov/tx-categorizer/internal/provider"
	"github.com/dvloznov/tx-categorizer/internal/source"
	"github.com/dvloznov/tx-categorizer/internal/source/factory"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runCategorize(log)
	case "check":
		runCheck(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Transaction Categorizer CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  run       Execute one categorization run against the configured source")
	fmt.Println("  check     Validate the configuration and source layout without running")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runCategorize(log zerolog.Logger) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to a TOML config file (environment variables win)")
	showExchange := fs.Bool("show-exchange", false, "Print the last provider request/response after the run")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	src, err := factory.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record source")
	}

	client, err := provider.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create provider client")
	}

	runner := categorize.NewRunner(cfg, src, client, log)
	result := runner.Run(ctx)

	fmt.Println(result.Message)
	if result.Detail != "" {
		fmt.Fprintf(os.Stderr, "Detail: %s\n", result.Detail)
	}

	if *showExchange {
		printExchange()
	}

	if result.Status == categorize.StatusFailed {
		os.Exit(1)
	}
}

func printExchange() {
	interaction, ok := provider.LastInteraction()
	if !ok {
		fmt.Fprintln(os.Stderr, "No provider call was made.")
		return
	}

	fmt.Fprintf(os.Stderr, "\n=== Provider Exchange (%s, %s) ===\n", interaction.Provider, interaction.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(os.Stderr, "Request:\n%s\n", interaction.Request)
	if interaction.Response != "" {
		fmt.Fprintf(os.Stderr, "Response:\n%s\n", interaction.Response)
	}
	if interaction.Err != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", interaction.Err)
	}
}

func runCheck(log zerolog.Logger) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to a TOML config file (environment variables win)")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	src, err := factory.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record source")
	}

	table, err := src.TransactionRows(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read the transactions table")
	}

	fmt.Println("\n=== Source Check ===")
	fmt.Printf("Source:       %s\n", cfg.Source.Kind)
	fmt.Printf("Provider:     %s (%s)\n", cfg.Provider, cfg.ProviderSettings().Model)
	fmt.Printf("Rows:         %d\n", len(table.Rows))

	ok := true
	for _, column := range source.RequiredColumns {
		if table.HasColumn(column) {
			fmt.Printf("Column %-20q found\n", column)
		} else {
			fmt.Printf("Column %-20q MISSING\n", column)
			ok = false
		}
	}
	if table.HasColumn(source.ColumnAITouched) {
		fmt.Printf("Column %-20q found (audit timestamps enabled)\n", source.ColumnAITouched)
	}

	labels, err := src.CategoryLabels(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read the categories table")
	}
	fmt.Printf("Categories:   %d\n", len(labels))

	if !ok {
		os.Exit(1)
	}
	fmt.Println("\nConfiguration and source layout look good.")
}
