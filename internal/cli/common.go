package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/mrlokans/eknihy-sync/internal/audit"
	"github.com/mrlokans/eknihy-sync/internal/classifier"
	"github.com/mrlokans/eknihy-sync/internal/config"
	"github.com/mrlokans/eknihy-sync/internal/database"
	dbaudit "github.com/mrlokans/eknihy-sync/internal/database/audit"
	syncrepo "github.com/mrlokans/eknihy-sync/internal/database/sync"
	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/strapi"
)

// backendFlags are the Strapi connection flags shared by every command that
// writes to the backend. Defaults come from the environment.
type backendFlags struct {
	URL   string
	Token string
}

func (b *backendFlags) register(fs *flag.FlagSet, cfg config.Backend) {
	fs.StringVar(&b.URL, "url", cfg.URL, "Strapi base URL (env STRAPI_URL)")
	fs.StringVar(&b.Token, "token", cfg.Token, "Strapi API token (env STRAPI_TOKEN)")
}

func (b *backendFlags) client(cfg config.Backend) *strapi.Client {
	return strapi.NewClient(b.URL, b.Token, cfg.Timeout)
}

// runtime is the service database plus what hangs off it: run history
// and audit events.
type runtime struct {
	db    *database.Database
	audit *audit.Service
}

func openRuntime(dbPath string, verbose bool) (*runtime, error) {
	db, err := database.NewDatabase(dbPath, verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return &runtime{
		db:    db,
		audit: audit.NewService(dbaudit.NewRepository(db.DB)),
	}, nil
}

func (r *runtime) progress(syncType entities.SyncType) *syncrepo.Repository {
	return syncrepo.NewRepository(r.db.DB, syncType)
}

// Close waits for pending audit writes and closes the database.
func (r *runtime) Close() {
	r.audit.Flush()
	if err := r.db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
	}
}

func loadClassifier(taxonomyFile string) (*classifier.Classifier, error) {
	if taxonomyFile == "" {
		return classifier.NewDefault(), nil
	}
	c, err := classifier.Load(taxonomyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load taxonomy: %w", err)
	}
	return c, nil
}

// signalContext is cancelled on SIGINT/SIGTERM so a run can stop between
// records.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printHeader(title string, dryRun bool) {
	fmt.Println(title)
	for range title {
		fmt.Print("=")
	}
	fmt.Println()
	if dryRun {
		fmt.Println("DRY RUN MODE - No changes will be made")
	}
	fmt.Println()
}

// printHistogram prints counts sorted by descending value, then by key.
func printHistogram(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		fmt.Printf("  %-30s %d\n", k, counts[k])
	}
}
