// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Content Backend
//
//   - importers.Backend: find, create, update and list Strapi entries (internal/importers/orchestrator.go)
//   - services.Backend: importers.Backend plus Ping and HasToken (internal/services/interfaces.go)
//   - metadata.AuthorStore: author listing, media upload (internal/metadata/enricher.go)
//
// All three are implemented by strapi.Client.
//
// ## Source Repository
//
//   - services.Harvester: incremental or full ListRecords harvest (internal/services/interfaces.go)
//   - services.RecordFetcher: single GetRecord lookup (internal/services/interfaces.go)
//
// ## State and Progress
//
//   - services.StateStore: sync watermark, file or database backed (internal/services/interfaces.go)
//   - services.ProgressTracker: per-run progress rows (internal/services/interfaces.go)
//   - services.RunLogger: audit events per run (internal/services/interfaces.go)
//
// # Adding a New Content Backend
//
// To write to something other than Strapi:
//
//  1. Create a client package under internal/ that implements services.Backend
//
//     func (c *Client) FindID(ctx context.Context, kind strapi.Kind, field, value string) (string, bool, error)
//     func (c *Client) Create(ctx context.Context, kind strapi.Kind, fields map[string]any) (string, error)
//     ...
//
//  2. Add a compile-time check to checks.go
//
//  3. Construct it in entrypoint.go and the cli commands
//
// # Adding a New Background Task
//
//  1. Define the task type with a Config() method in internal/tasks/
//
//  2. Write a processor over a small consumer interface and a NewXQueue constructor
//
//  3. Register the queue in entrypoint.go and, if it can be triggered from the
//     API, add it to the switch in internal/http/tasks.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go.
package interfaces
