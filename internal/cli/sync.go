package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mrlokans/eknihy-sync/internal/audit"
	"github.com/mrlokans/eknihy-sync/internal/config"
	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/marc"
	"github.com/mrlokans/eknihy-sync/internal/oaipmh"
	"github.com/mrlokans/eknihy-sync/internal/services"
	"github.com/mrlokans/eknihy-sync/internal/syncstate"
)

// SyncCommand runs one incremental catalog sync, the job the nightly cron
// entry used to run.
type SyncCommand struct {
	cfg *config.Config

	Backend      backendFlags
	From         string
	Days         int
	DryRun       bool
	DatabasePath string
	StateFile    string
	Verbose      bool
}

func NewSyncCommand() *SyncCommand {
	return &SyncCommand{cfg: config.NewConfig()}
}

func (cmd *SyncCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	cmd.Backend.register(fs, cmd.cfg.Backend)
	fs.StringVar(&cmd.From, "from", "", "Harvest records changed since this date (YYYY-MM-DD), overrides the stored watermark")
	fs.IntVar(&cmd.Days, "days", cmd.cfg.Sync.InitialDays, "Look-back in days when no watermark is stored")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Harvest and classify without writing to Strapi or saving state")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the service database (run history, audit, state)")
	fs.StringVar(&cmd.StateFile, "state-file", "", "Keep the watermark in this JSON file instead of the database")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sync [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import e-books added to the library catalog since the last run.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Regular incremental run:\n")
		fmt.Fprintf(os.Stderr, "  %s sync -token $STRAPI_TOKEN\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Re-run a window without touching Strapi:\n")
		fmt.Fprintf(os.Stderr, "  %s sync -from 2026-10-01 -dry-run\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.StateFile != "" {
		cmd.cfg.Sync.StateBackend = config.StateBackendFile
		cmd.cfg.Sync.StateFile = cmd.StateFile
	}
	return nil
}

func (cmd *SyncCommand) Run() error {
	printHeader("Catalog Sync", cmd.DryRun)

	rt, err := openRuntime(cmd.DatabasePath, cmd.Verbose)
	if err != nil {
		return err
	}
	defer rt.Close()

	state, err := syncstate.Open(cmd.cfg.Sync, rt.db.DB)
	if err != nil {
		return err
	}

	classify, err := loadClassifier(cmd.cfg.Classifier.TaxonomyFile)
	if err != nil {
		return err
	}

	source := cmd.cfg.Source
	harvester := oaipmh.NewHarvester(oaipmh.NewClient(source.BaseURL, source.Timeout), marc.NewParser(), source.PageDelay)

	catalog := services.NewCatalogSync(services.CatalogSyncDeps{
		Backend:    cmd.Backend.client(cmd.cfg.Backend),
		Harvester:  harvester,
		Classifier: classify,
		State:      state,
		Progress:   rt.progress(entities.SyncTypeCatalog),
		Audit:      rt.audit,
		Snapshots:  audit.NewAuditor(cmd.cfg.Audit.Dir),
	}, services.CatalogSyncOptions{
		Set:            source.Set,
		MetadataPrefix: source.MetadataPrefix,
		InitialDays:    cmd.cfg.Sync.InitialDays,
		WriteDelay:     cmd.cfg.Backend.WriteDelay,
	})

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("Source: %s (set %s)\n", source.BaseURL, source.Set)
	fmt.Printf("Target: %s\n\n", cmd.Backend.URL)

	report, runErr := catalog.Run(ctx, services.RunRequest{From: cmd.From, Days: cmd.Days, DryRun: cmd.DryRun})
	if report != nil {
		printSyncReport(report)
	}
	return runErr
}

func printSyncReport(report *services.RunReport) {
	fmt.Println("\n=== Summary ===")
	fmt.Printf("Run:       %s\n", report.RunID)
	fmt.Printf("From:      %s\n", report.From)
	if h := report.Harvest; h != nil {
		fmt.Printf("Pages:     %d\n", h.Pages)
		fmt.Printf("Records:   %d (%d rejected)\n", h.Records, h.RejectedTotal())
		fmt.Printf("Harvested: %d works\n", len(h.Works))
	}
	fmt.Printf("Created:   %d\n", report.Summary.Created)
	fmt.Printf("Skipped:   %d\n", report.Summary.Skipped)
	fmt.Printf("Failed:    %d\n", report.Summary.Failed)
	if report.Snapshot != "" {
		fmt.Printf("Snapshot:  %s\n", report.Snapshot)
	}
	fmt.Printf("Duration:  %v\n", report.Duration.Round(time.Millisecond))

	if len(report.Summary.Categories) > 0 {
		fmt.Println("\nBy category:")
		printHistogram(report.Summary.Categories)
	}

	if report.StateSaved {
		fmt.Println("\nWatermark saved.")
	} else if !report.DryRun {
		fmt.Println("\nWatermark NOT saved; the next run repeats this window.")
	}
}
