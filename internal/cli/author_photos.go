package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/eknihy-sync/internal/config"
	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/metadata"
)

// AuthorPhotosCommand attaches Wikipedia portraits to authors.
type AuthorPhotosCommand struct {
	cfg *config.Config

	Backend      backendFlags
	Start        int
	DryRun       bool
	DatabasePath string
}

func NewAuthorPhotosCommand() *AuthorPhotosCommand {
	return &AuthorPhotosCommand{cfg: config.NewConfig()}
}

func (cmd *AuthorPhotosCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("author-photos", flag.ExitOnError)

	cmd.Backend.register(fs, cmd.cfg.Backend)
	fs.IntVar(&cmd.Start, "start", 0, "Index in the list of authors without a photo to resume from")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Look portraits up without uploading")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the service database (run history)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s author-photos [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Find a Wikipedia portrait for every author without a photo and upload it.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Start < 0 {
		return fmt.Errorf("-start must not be negative")
	}
	return nil
}

func (cmd *AuthorPhotosCommand) Run() error {
	printHeader("Author Photos", cmd.DryRun)

	rt, err := openRuntime(cmd.DatabasePath, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	wiki := cmd.cfg.Wikipedia
	enricher := metadata.NewEnricher(
		metadata.NewWikipediaClient(wiki.Languages, wiki.Delay),
		cmd.Backend.client(cmd.cfg.Backend),
		cmd.cfg.Backend.WriteDelay,
	)
	enricher.SetProgressReporter(rt.progress(entities.SyncTypeAuthorPhotos))

	ctx, cancel := signalContext()
	defer cancel()

	result, runErr := enricher.EnrichAll(ctx, cmd.Start, cmd.DryRun)
	if result != nil {
		fmt.Println("\n=== Summary ===")
		fmt.Printf("Run:       %s\n", result.RunID)
		fmt.Printf("Authors:   %d (from #%d)\n", result.Total, result.Start)
		fmt.Printf("Found:     %d\n", result.Found)
		fmt.Printf("Not found: %d\n", result.NotFound)
		fmt.Printf("Errors:    %d\n", result.Failed)
		for _, e := range result.Errors {
			fmt.Printf("  [ERROR] %s\n", e)
		}
	}
	return runErr
}
