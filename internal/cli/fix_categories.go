package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/eknihy-sync/internal/config"
	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/services"
)

// FixCategoriesCommand moves books by foreign authors from the domestic
// literature category to world literature.
type FixCategoriesCommand struct {
	cfg *config.Config

	Backend      backendFlags
	DryRun       bool
	DatabasePath string
}

func NewFixCategoriesCommand() *FixCategoriesCommand {
	return &FixCategoriesCommand{cfg: config.NewConfig()}
}

func (cmd *FixCategoriesCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("fix-categories", flag.ExitOnError)

	cmd.Backend.register(fs, cmd.cfg.Backend)
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "List the books that would move")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the service database (run history, audit)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s fix-categories [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Move books by foreign authors out of the domestic literature category.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *FixCategoriesCommand) Run() error {
	printHeader("Fix Categories", cmd.DryRun)

	rt, err := openRuntime(cmd.DatabasePath, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	classify, err := loadClassifier(cmd.cfg.Classifier.TaxonomyFile)
	if err != nil {
		return err
	}
	tax := classify.Taxonomy()

	reclassifier := services.NewReclassifier(
		cmd.Backend.client(cmd.cfg.Backend),
		classify,
		rt.progress(entities.SyncTypeReclassify),
		rt.audit,
		services.ReclassifyOptions{
			From:       tax.DefaultCategory,
			To:         tax.ForeignCategory,
			WriteDelay: cmd.cfg.Backend.WriteDelay,
		},
	)

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("%s -> %s\n\n", tax.DefaultCategory, tax.ForeignCategory)

	report, runErr := reclassifier.Run(ctx, cmd.DryRun)
	if report != nil {
		if cmd.DryRun {
			for _, m := range report.Moves {
				fmt.Printf("  %s (%s)\n", m.Title, m.Author)
			}
		}
		fmt.Println("\n=== Summary ===")
		fmt.Printf("Run:     %s\n", report.RunID)
		fmt.Printf("Scanned: %d\n", report.Scanned)
		fmt.Printf("Foreign: %d\n", len(report.Moves))
		fmt.Printf("Moved:   %d\n", report.Moved)
		fmt.Printf("Errors:  %d\n", report.Errors)
	}
	return runErr
}
