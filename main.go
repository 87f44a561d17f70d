package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/eknihy-sync/internal/cli"
	"github.com/mrlokans/eknihy-sync/internal/config"
	"github.com/mrlokans/eknihy-sync/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// command is implemented by every CLI subcommand.
type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	var cmd command
	switch name {
	case "sync":
		cmd = cli.NewSyncCommand()
	case "harvest":
		cmd = cli.NewHarvestCommand()
	case "import":
		cmd = cli.NewImportCommand()
	case "fix-authors":
		cmd = cli.NewFixAuthorsCommand()
	case "fix-categories":
		cmd = cli.NewFixCategoriesCommand()
	case "author-photos":
		cmd = cli.NewAuthorPhotosCommand()
	case "classify":
		cmd = cli.NewClassifyCommand()

	case "version":
		fmt.Printf("eknihy-sync %s (%s)\n", Version, Commit)
		return

	case "-h", "--help", "help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve           Run the scheduler, task workers and HTTP API (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  sync            Import e-books added to the catalog since the last run\n")
	fmt.Fprintf(os.Stderr, "  harvest         Harvest the e-book set into a JSON dump\n")
	fmt.Fprintf(os.Stderr, "  import          Import a JSON dump into Strapi\n")
	fmt.Fprintf(os.Stderr, "  fix-authors     Attach authors to books imported without one\n")
	fmt.Fprintf(os.Stderr, "  fix-categories  Move foreign authors to world literature\n")
	fmt.Fprintf(os.Stderr, "  author-photos   Attach Wikipedia portraits to authors\n")
	fmt.Fprintf(os.Stderr, "  classify        Print the category for a title, author and topics\n")
	fmt.Fprintf(os.Stderr, "  version         Print version information\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
