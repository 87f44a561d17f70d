package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mrlokans/eknihy-sync/internal/config"
	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/importers"
	"github.com/mrlokans/eknihy-sync/internal/marc"
	"github.com/mrlokans/eknihy-sync/internal/oaipmh"
)

// HarvestCommand downloads the catalog into a JSON dump that the import
// command can load later.
type HarvestCommand struct {
	cfg *config.Config

	From   string
	Limit  int
	Output string
	Delay  time.Duration
}

func NewHarvestCommand() *HarvestCommand {
	return &HarvestCommand{cfg: config.NewConfig()}
}

func (cmd *HarvestCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("harvest", flag.ExitOnError)

	fs.StringVar(&cmd.From, "from", "", "Only records changed since this date (YYYY-MM-DD); empty harvests everything")
	fs.IntVar(&cmd.Limit, "limit", 0, "Stop after this many accepted works (0 = all)")
	fs.StringVar(&cmd.Output, "output", "mlp_ebooks.json", "Output JSON file")
	fs.DurationVar(&cmd.Delay, "delay", cmd.cfg.Source.PageDelay, "Pause between pages")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s harvest [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Harvest the e-book set into a JSON dump.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Sample the first 50 works:\n")
		fmt.Fprintf(os.Stderr, "  %s harvest -limit 50 -output sample.json\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.From != "" {
		if _, err := time.Parse(entities.WatermarkLayout, cmd.From); err != nil {
			return fmt.Errorf("invalid -from %q: want YYYY-MM-DD", cmd.From)
		}
	}
	if cmd.Limit < 0 {
		return fmt.Errorf("-limit must not be negative")
	}
	return nil
}

func (cmd *HarvestCommand) Run() error {
	printHeader("Catalog Harvest", false)

	source := cmd.cfg.Source
	harvester := oaipmh.NewHarvester(oaipmh.NewClient(source.BaseURL, source.Timeout), marc.NewParser(), cmd.Delay)

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("Source: %s (set %s)\n", source.BaseURL, source.Set)
	if cmd.From != "" {
		fmt.Printf("From:   %s\n", cmd.From)
	}
	fmt.Println()

	start := time.Now()
	result, harvestErr := harvester.Harvest(ctx, oaipmh.Options{
		Set:            source.Set,
		MetadataPrefix: source.MetadataPrefix,
		From:           cmd.From,
		Limit:          cmd.Limit,
		OnPage: func(p oaipmh.PageStats) {
			fmt.Printf("  page %d: %d records, %d accepted (%d total)\n", p.Page, p.Records, p.Accepted, p.Total)
		},
	})
	if harvestErr != nil {
		fmt.Printf("\n[WARN] Harvest stopped early: %v\n", harvestErr)
	}

	if len(result.Works) > 0 {
		if err := importers.SaveDumpFile(cmd.Output, result.Works); err != nil {
			return err
		}
	}

	stats := summarizeWorks(result.Works)

	fmt.Println("\n=== Summary ===")
	fmt.Printf("Pages:            %d\n", result.Pages)
	fmt.Printf("Records:          %d\n", result.Records)
	fmt.Printf("Works:            %d\n", len(result.Works))
	fmt.Printf("With cover:       %d\n", stats.withCover)
	fmt.Printf("With description: %d\n", stats.withDescription)
	fmt.Printf("Without author:   %d\n", stats.withoutAuthor)
	fmt.Printf("Duration:         %v\n", time.Since(start).Round(time.Millisecond))
	if result.Limited {
		fmt.Printf("Stopped at -limit %d\n", cmd.Limit)
	}

	if len(result.Rejected) > 0 {
		fmt.Println("\nRejected records:")
		printHistogram(result.Rejected)
	}
	if len(stats.formats) > 0 {
		fmt.Println("\nDownload formats:")
		printHistogram(stats.formats)
	}

	if len(result.Works) > 0 {
		fmt.Printf("\nSaved to %s\n", cmd.Output)
	} else {
		fmt.Println("\nNothing harvested, no file written")
	}
	return harvestErr
}

type workStats struct {
	withCover       int
	withDescription int
	withoutAuthor   int
	formats         map[string]int
}

func summarizeWorks(works []*entities.Work) workStats {
	stats := workStats{formats: map[string]int{}}
	for _, w := range works {
		if w.CoverURL != "" {
			stats.withCover++
		}
		if w.Description != "" {
			stats.withDescription++
		}
		if !w.HasAuthor() {
			stats.withoutAuthor++
		}
		for _, l := range w.Links {
			stats.formats[l.Format]++
		}
	}
	return stats
}
