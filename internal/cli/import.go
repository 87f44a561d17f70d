package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/eknihy-sync/internal/config"
	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/importers"
	"github.com/mrlokans/eknihy-sync/internal/services"
)

// ImportCommand loads a harvest dump into Strapi.
type ImportCommand struct {
	cfg *config.Config

	Backend      backendFlags
	Input        string
	Start        int
	DryRun       bool
	DatabasePath string
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{cfg: config.NewConfig()}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	cmd.Backend.register(fs, cmd.cfg.Backend)
	fs.StringVar(&cmd.Input, "input", "mlp_ebooks.json", "JSON dump written by the harvest command")
	fs.IntVar(&cmd.Start, "start", 0, "Index to resume from")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Classify and report without writing to Strapi")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the service database (run history, audit)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a harvest dump into Strapi. Works already present are skipped.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Resume an interrupted import:\n")
		fmt.Fprintf(os.Stderr, "  %s import -input mlp_ebooks.json -start 1200\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Input == "" {
		return fmt.Errorf("required flag -input not provided")
	}
	return nil
}

func (cmd *ImportCommand) Run() error {
	printHeader("Dump Import", cmd.DryRun)

	works, err := importers.LoadDumpFile(cmd.Input)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d works from %s\n", len(works), cmd.Input)

	rt, err := openRuntime(cmd.DatabasePath, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	classify, err := loadClassifier(cmd.cfg.Classifier.TaxonomyFile)
	if err != nil {
		return err
	}

	importer := services.NewFileImport(
		cmd.Backend.client(cmd.cfg.Backend),
		classify,
		rt.progress(entities.SyncTypeFileImport),
		rt.audit,
		cmd.cfg.Backend.WriteDelay,
	)

	ctx, cancel := signalContext()
	defer cancel()

	report, runErr := importer.Run(ctx, services.FileImportRequest{Works: works, Start: cmd.Start, DryRun: cmd.DryRun})
	if report != nil {
		fmt.Println("\n=== Summary ===")
		fmt.Printf("Run:     %s\n", report.RunID)
		fmt.Printf("Range:   %d-%d of %d\n", report.Start, report.Total, report.Total)
		fmt.Printf("Created: %d\n", report.Summary.Created)
		fmt.Printf("Skipped: %d\n", report.Summary.Skipped)
		fmt.Printf("Failed:  %d\n", report.Summary.Failed)
		if len(report.Summary.Categories) > 0 {
			fmt.Println("\nBy category:")
			printHistogram(report.Summary.Categories)
		}
	}
	return runErr
}
