package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/medreport/internal/app"
	"github.com/dvloznov/medreport/internal/config"
	"github.com/dvloznov/medreport/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "extract":
		err = runExtract(args)
	case "view":
		err = runView(args)
	case "report":
		err = runReport(args)
	case "summarize":
		err = runSummarize(args)
	case "upload":
		err = runUpload(args)
	case "ingest":
		err = runIngest(args)
	case "doctors":
		err = runDoctors(args)
	case "list-documents":
		err = runListDocuments(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Medical report CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  extract         Extract the fields of a report or a folder of reports")
	fmt.Println("  view            Browse the extracted table in the terminal")
	fmt.Println("  report          Fill a template with one visit of a report")
	fmt.Println("  summarize       Summarise a PDF of medical evidence")
	fmt.Println("  upload          Upload a report or PDF to GCS as a pending document")
	fmt.Println("  ingest          Process a document from GCS, a local file or by ID")
	fmt.Println("  doctors         List the registered doctors")
	fmt.Println("  list-documents  List stored documents")
	fmt.Println("  help            Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// env is what every subcommand needs: the configuration, a logger and a
// context carrying it.
type env struct {
	cfg    *config.Config
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// newFlagSet creates a subcommand flag set with the shared -config flag.
func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return fs, fs.String("config", "", "path to the YAML config file")
}

// setup loads the configuration after fs has been parsed.
func setup(configPath string, timeout time.Duration) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := app.Logger(cfg, os.Stderr)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return &env{cfg: cfg, log: log, ctx: logger.WithContext(ctx, log), cancel: cancel}, nil
}

// wire creates the application for commands that use the repository,
// storage or model.
func (e *env) wire() (*app.App, error) {
	return app.New(e.ctx, e.cfg)
}
