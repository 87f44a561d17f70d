// Package importers writes normalized Works into the content backend.
//
// # Architecture
//
// An import run follows a simple flow:
//
//	Harvester / dump file → []*entities.Work → Orchestrator → Backend (Strapi)
//
// For every Work the Orchestrator:
//
//  1. skips it when the identity index already holds its external id
//  2. classifies it into one category label
//  3. resolves (or creates) the author and the category, through per-run caches
//  4. probes for a free slug, appending -1, -2, ... on conflicts
//  5. creates the book and records its external id in the index
//
// A failure of one Work is counted and logged; the batch continues. In
// dry-run mode the backend is never called and author/category ids are
// synthetic ("dry-<slug>", "dry-cat-<slug>").
//
// # Example Usage
//
//	index := identity.NewIndex()
//	_ = index.Rebuild(ctx, client)
//
//	orch := importers.NewOrchestrator(client, classifier.NewDefault(), index, importers.Options{
//		WriteDelay: 400 * time.Millisecond,
//	})
//	summary, err := orch.ImportAll(ctx, works)
//
// Dump files (ReadDump / WriteDump) hold the same Works as a JSON array so a
// full harvest can be imported later, or resumed from an offset.
package importers
