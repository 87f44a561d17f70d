package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/eknihy-sync/internal/config"
	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/oaipmh"
	"github.com/mrlokans/eknihy-sync/internal/services"
)

// FixAuthorsCommand attaches authors to imported books that have none.
type FixAuthorsCommand struct {
	cfg *config.Config

	Backend      backendFlags
	Limit        int
	DryRun       bool
	DatabasePath string
}

func NewFixAuthorsCommand() *FixAuthorsCommand {
	return &FixAuthorsCommand{cfg: config.NewConfig()}
}

func (cmd *FixAuthorsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("fix-authors", flag.ExitOnError)

	cmd.Backend.register(fs, cmd.cfg.Backend)
	fs.IntVar(&cmd.Limit, "limit", 0, "Process at most this many books (0 = all)")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Look authors up without updating books")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the service database (run history, audit)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s fix-authors [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Re-read the source record of every book without an author and attach one.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Limit < 0 {
		return fmt.Errorf("-limit must not be negative")
	}
	return nil
}

func (cmd *FixAuthorsCommand) Run() error {
	printHeader("Fix Missing Authors", cmd.DryRun)

	rt, err := openRuntime(cmd.DatabasePath, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	source := cmd.cfg.Source
	repair := services.NewAuthorRepair(
		cmd.Backend.client(cmd.cfg.Backend),
		oaipmh.NewClient(source.BaseURL, source.Timeout),
		rt.progress(entities.SyncTypeAuthorRepair),
		rt.audit,
		services.AuthorRepairOptions{
			MetadataPrefix: source.MetadataPrefix,
			FetchDelay:     services.DefaultRepairFetchDelay,
			WriteDelay:     cmd.cfg.Backend.WriteDelay,
		},
	)

	ctx, cancel := signalContext()
	defer cancel()

	report, runErr := repair.Run(ctx, services.RepairRequest{Limit: cmd.Limit, DryRun: cmd.DryRun})
	if report != nil {
		fmt.Println("\n=== Summary ===")
		fmt.Printf("Run:        %s\n", report.RunID)
		fmt.Printf("Candidates: %d\n", report.Candidates)
		fmt.Printf("Fixed:      %d\n", report.Fixed)
		fmt.Printf("Skipped:    %d\n", report.Skipped)
		fmt.Printf("Errors:     %d\n", report.Errors)
	}
	return runErr
}
