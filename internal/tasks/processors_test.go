package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/eknihy-sync/internal/importers"
	"github.com/mrlokans/eknihy-sync/internal/metadata"
	"github.com/mrlokans/eknihy-sync/internal/services"
)

type mockRunner struct {
	requests []services.RunRequest
	err      error
}

func (m *mockRunner) Run(_ context.Context, req services.RunRequest) (*services.RunReport, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &services.RunReport{From: "2026-10-09", Summary: importers.Summary{Created: 2}}, nil
}

func TestSyncCatalogProcessor_PassesRequest(t *testing.T) {
	runner := &mockRunner{}
	process := SyncCatalogProcessor(runner)

	err := process(context.Background(), SyncCatalogTask{From: "2026-10-01", DryRun: true, Trigger: "api"})

	require.NoError(t, err)
	require.Len(t, runner.requests, 1)
	assert.Equal(t, services.RunRequest{From: "2026-10-01", DryRun: true}, runner.requests[0])
}

func TestSyncCatalogProcessor_InProgressIsNotAFailure(t *testing.T) {
	process := SyncCatalogProcessor(&mockRunner{err: services.ErrSyncInProgress})

	assert.NoError(t, process(context.Background(), SyncCatalogTask{Trigger: "schedule"}))
}

func TestSyncCatalogProcessor_Error(t *testing.T) {
	process := SyncCatalogProcessor(&mockRunner{err: errors.New("harvest: boom")})

	err := process(context.Background(), SyncCatalogTask{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog sync")
}

func TestSyncCatalogProcessor_NilRunner(t *testing.T) {
	assert.Error(t, SyncCatalogProcessor(nil)(context.Background(), SyncCatalogTask{}))
}

type mockEnricher struct {
	authors []metadata.Author
	starts  []int
	outcome metadata.PhotoOutcome
	err     error
}

func (m *mockEnricher) EnrichAuthor(_ context.Context, author metadata.Author, _ bool) (metadata.PhotoOutcome, error) {
	m.authors = append(m.authors, author)
	return m.outcome, m.err
}

func (m *mockEnricher) EnrichAll(_ context.Context, start int, _ bool) (*metadata.PhotoResult, error) {
	m.starts = append(m.starts, start)
	if m.err != nil {
		return nil, m.err
	}
	return &metadata.PhotoResult{Total: 4, Found: 3, NotFound: 1}, nil
}

func TestEnrichAuthorPhotoProcessor(t *testing.T) {
	enricher := &mockEnricher{outcome: metadata.PhotoAttached}
	process := EnrichAuthorPhotoProcessor(enricher)

	err := process(context.Background(), EnrichAuthorPhotoTask{DocumentID: "a1", Name: "Čapek, Karel", Slug: "capek-karel"})

	require.NoError(t, err)
	require.Len(t, enricher.authors, 1)
	assert.Equal(t, metadata.Author{DocumentID: "a1", Name: "Čapek, Karel", Slug: "capek-karel"}, enricher.authors[0])
}

func TestEnrichAuthorPhotoProcessor_Error(t *testing.T) {
	process := EnrichAuthorPhotoProcessor(&mockEnricher{err: errors.New("upload failed")})

	err := process(context.Background(), EnrichAuthorPhotoTask{DocumentID: "a1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "a1")
}

func TestEnrichAuthorPhotosProcessor(t *testing.T) {
	enricher := &mockEnricher{}
	process := EnrichAuthorPhotosProcessor(enricher)

	require.NoError(t, process(context.Background(), EnrichAuthorPhotosTask{Start: 10}))
	assert.Equal(t, []int{10}, enricher.starts)
}

type mockCleaner struct {
	retention time.Duration
	deleted   int64
	err       error
}

func (m *mockCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	m.retention = retention
	return m.deleted, m.err
}

type mockPruner struct {
	age time.Duration
}

func (m *mockPruner) PruneOlderThan(age time.Duration) (int, error) {
	m.age = age
	return 2, nil
}

func TestCleanupHistoryProcessor(t *testing.T) {
	cleaner := &mockCleaner{deleted: 5}
	pruner := &mockPruner{}
	process := CleanupHistoryProcessor(cleaner, pruner)

	require.NoError(t, process(context.Background(), CleanupHistoryTask{RetentionDays: 30}))

	assert.Equal(t, 30*24*time.Hour, cleaner.retention)
	assert.Equal(t, 30*24*time.Hour, pruner.age)
}

func TestCleanupHistoryProcessor_DefaultRetention(t *testing.T) {
	cleaner := &mockCleaner{}
	process := CleanupHistoryProcessor(cleaner, nil)

	require.NoError(t, process(context.Background(), CleanupHistoryTask{}))

	assert.Equal(t, 90*24*time.Hour, cleaner.retention)
}

func TestCleanupHistoryProcessor_Error(t *testing.T) {
	process := CleanupHistoryProcessor(&mockCleaner{err: errors.New("locked")}, nil)

	assert.Error(t, process(context.Background(), CleanupHistoryTask{}))
}
