package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mrlokans/eknihy-sync/internal/config"
)

// topicList collects repeated -topic flags.
type topicList []string

func (t *topicList) String() string { return strings.Join(*t, "; ") }

func (t *topicList) Set(v string) error {
	*t = append(*t, v)
	return nil
}

// ClassifyCommand prints the category a work would be filed under.
type ClassifyCommand struct {
	cfg *config.Config

	Title        string
	Author       string
	Topics       topicList
	TaxonomyFile string
}

func NewClassifyCommand() *ClassifyCommand {
	return &ClassifyCommand{cfg: config.NewConfig()}
}

func (cmd *ClassifyCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)

	fs.StringVar(&cmd.Title, "title", "", "Work title")
	fs.StringVar(&cmd.Author, "author", "", "Author as in the catalog (\"Surname, Given\")")
	fs.Var(&cmd.Topics, "topic", "Subject heading (repeatable)")
	fs.StringVar(&cmd.TaxonomyFile, "taxonomy", cmd.cfg.Classifier.TaxonomyFile, "YAML taxonomy file (default: built-in tables)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s classify -title <title> [-author <name>] [-topic <subject>]...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s classify -title \"Krakatit\" -author \"Čapek, Karel\" -topic \"české romány\"\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Title == "" && cmd.Author == "" && len(cmd.Topics) == 0 {
		return fmt.Errorf("nothing to classify: give -title, -author or -topic")
	}
	return nil
}

func (cmd *ClassifyCommand) Run() error {
	c, err := loadClassifier(cmd.TaxonomyFile)
	if err != nil {
		return err
	}

	fmt.Println(c.Classify(cmd.Topics, cmd.Author, cmd.Title))
	if cmd.Author != "" && c.IsForeignAuthor(cmd.Author) {
		fmt.Println("(foreign author)")
	}
	return nil
}
