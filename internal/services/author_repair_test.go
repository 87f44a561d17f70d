package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/eknihy-sync/internal/marc"
	"github.com/mrlokans/eknihy-sync/internal/strapi"
)

func newRepairFixture() (*fakeBackend, *fakeRecords, *fakeAudit, *AuthorRepair) {
	backend := newFakeBackend()
	backend.lists[strapi.KindBooks] = []strapi.Entry{
		{"documentId": "b1", "title": "Krakatit", "mlpId": "oai:1"},
		{"documentId": "b2", "title": "Anonymní sbírka", "mlpId": "oai:2"},
		{"documentId": "b3", "title": "Zmizelý záznam", "mlpId": "oai:3"},
		{"documentId": "b4", "title": "Bez identifikátoru"},
		{"documentId": "b5", "title": "Babička", "mlpId": "oai:5"},
	}
	backend.setID(strapi.KindAuthors, "name", "Němcová, Božena", "author-nemcova")

	records := &fakeRecords{records: map[string]marc.Raw{
		"oai:1": {Identifier: "oai:1", Record: marcWithAuthor("100", "Čapek, Karel,")},
		"oai:2": {Identifier: "oai:2", Record: &marc.Record{}},
		"oai:5": {Identifier: "oai:5", Record: marcWithAuthor("700", "Němcová, Božena.")},
	}}
	audit := &fakeAudit{}
	repair := NewAuthorRepair(backend, records, &fakeProgress{}, audit, AuthorRepairOptions{MetadataPrefix: "marc21"})
	return backend, records, audit, repair
}

func TestAuthorRepair_Run(t *testing.T) {
	backend, records, audit, repair := newRepairFixture()

	report, err := repair.Run(context.Background(), RepairRequest{})

	require.NoError(t, err)
	assert.Equal(t, 5, report.Candidates)
	assert.Equal(t, 2, report.Fixed)
	assert.Equal(t, 3, report.Skipped)
	assert.Zero(t, report.Errors)
	assert.Equal(t, []string{"oai:1", "oai:2", "oai:3", "oai:5"}, records.calls)

	authors := backend.createdOf(strapi.KindAuthors)
	require.Len(t, authors, 1)
	assert.Equal(t, "Čapek, Karel", authors[0]["name"])

	require.Len(t, backend.updates, 2)
	assert.Equal(t, update{kind: strapi.KindBooks, id: "b1", fields: map[string]any{"author": "authors-new-1"}}, backend.updates[0])
	assert.Equal(t, update{kind: strapi.KindBooks, id: "b5", fields: map[string]any{"author": "author-nemcova"}}, backend.updates[1])
	assert.Equal(t, []string{"attach_author:b1", "attach_author:b5"}, audit.entities)

	require.NotEmpty(t, backend.queries)
	q := backend.queries[0].Values()
	assert.Equal(t, "true", q.Get("filters[mlpId][$notNull]"))
	assert.Equal(t, "true", q.Get("filters[author][id][$null]"))
	assert.Equal(t, "100", q.Get("pagination[pageSize]"))
	assert.Equal(t, "preview", q.Get("publicationState"))
}

func TestAuthorRepair_Run_Limit(t *testing.T) {
	_, records, _, repair := newRepairFixture()

	report, err := repair.Run(context.Background(), RepairRequest{Limit: 1})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Candidates)
	assert.Equal(t, 1, report.Fixed)
	assert.Equal(t, []string{"oai:1"}, records.calls)
}

func TestAuthorRepair_Run_DryRun(t *testing.T) {
	backend, _, _, repair := newRepairFixture()
	backend.noToken = true

	report, err := repair.Run(context.Background(), RepairRequest{DryRun: true})

	require.NoError(t, err)
	assert.Equal(t, 2, report.Fixed)
	assert.Empty(t, backend.created)
	assert.Empty(t, backend.updates)
}

func TestAuthorRepair_Run_UpdateFailure(t *testing.T) {
	backend, _, _, repair := newRepairFixture()
	backend.failIDs["b1"] = errors.New("400 validation")

	report, err := repair.Run(context.Background(), RepairRequest{})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 1, report.Fixed)
}

func TestAuthorRepair_Run_DeletedBookIsSkipped(t *testing.T) {
	backend, _, _, repair := newRepairFixture()
	backend.failIDs["b1"] = &strapi.APIError{Method: "PUT", Path: "/api/books/b1", StatusCode: 404}

	report, err := repair.Run(context.Background(), RepairRequest{})

	require.NoError(t, err)
	assert.Zero(t, report.Errors)
	assert.Equal(t, 1, report.Fixed)
	assert.Equal(t, 4, report.Skipped)
}

func TestAuthorRepair_Run_FetchFailureIsAnError(t *testing.T) {
	_, records, _, repair := newRepairFixture()
	records.failures = map[string]error{"oai:1": errors.New("connection reset")}

	report, err := repair.Run(context.Background(), RepairRequest{})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 1, report.Fixed)
	assert.Equal(t, 3, report.Skipped, "withdrawn records still count as skipped")
}

func TestAuthorRepair_Run_MissingToken(t *testing.T) {
	backend, records, _, repair := newRepairFixture()
	backend.noToken = true

	_, err := repair.Run(context.Background(), RepairRequest{})

	assert.ErrorIs(t, err, strapi.ErrMissingToken)
	assert.Empty(t, records.calls)
}
