package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/marc"
	"github.com/mrlokans/eknihy-sync/internal/oaipmh"
	"github.com/mrlokans/eknihy-sync/internal/strapi"
)

type update struct {
	kind   strapi.Kind
	id     string
	fields map[string]any
}

// fakeBackend serves listings from memory and records writes.
type fakeBackend struct {
	mu       sync.Mutex
	noToken  bool
	pingErr  error
	lists    map[strapi.Kind][]strapi.Entry
	ids      map[string]string // kind|field|value -> id
	created  []map[string]any
	updates  []update
	queries  []strapi.ListQuery
	failIDs  map[string]error // Update failures by document id
	pings    int
	createID int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		lists:   map[strapi.Kind][]strapi.Entry{},
		ids:     map[string]string{},
		failIDs: map[string]error{},
	}
}

func (b *fakeBackend) setID(kind strapi.Kind, field, value, id string) {
	b.ids[string(kind)+"|"+field+"|"+value] = id
}

func (b *fakeBackend) Ping(context.Context) error {
	b.pings++
	return b.pingErr
}

func (b *fakeBackend) HasToken() bool { return !b.noToken }

func (b *fakeBackend) FindID(_ context.Context, kind strapi.Kind, field, value string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.ids[string(kind)+"|"+field+"|"+value]
	return id, ok, nil
}

func (b *fakeBackend) Create(_ context.Context, kind strapi.Kind, fields map[string]any) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.noToken {
		return "", strapi.ErrMissingToken
	}
	b.createID++
	id := fmt.Sprintf("%s-new-%d", kind, b.createID)
	copied := map[string]any{"_kind": string(kind)}
	for k, v := range fields {
		copied[k] = v
	}
	b.created = append(b.created, copied)
	if name, ok := fields["name"].(string); ok {
		b.ids[string(kind)+"|name|"+name] = id
	}
	return id, nil
}

func (b *fakeBackend) Update(_ context.Context, kind strapi.Kind, id string, fields map[string]any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failIDs[id]; err != nil {
		return err
	}
	b.updates = append(b.updates, update{kind: kind, id: id, fields: fields})
	return nil
}

func (b *fakeBackend) List(_ context.Context, kind strapi.Kind, q strapi.ListQuery) (*strapi.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries = append(b.queries, q)

	all := b.lists[kind]
	size := q.PageSize
	if size <= 0 {
		size = 25
	}
	page := max(q.Page, 1)
	pageCount := (len(all) + size - 1) / size
	lo := min((page-1)*size, len(all))
	hi := min(lo+size, len(all))

	res := &strapi.Page{Data: all[lo:hi]}
	res.Meta.Pagination = strapi.Pagination{Page: page, PageSize: size, PageCount: pageCount, Total: len(all)}
	return res, nil
}

func (b *fakeBackend) createdOf(kind strapi.Kind) []map[string]any {
	var out []map[string]any
	for _, c := range b.created {
		if c["_kind"] == string(kind) {
			out = append(out, c)
		}
	}
	return out
}

type fakeHarvester struct {
	result *oaipmh.Result
	err    error
	calls  []oaipmh.Options
}

func (h *fakeHarvester) Harvest(_ context.Context, opts oaipmh.Options) (*oaipmh.Result, error) {
	h.calls = append(h.calls, opts)
	if opts.OnPage != nil && h.result != nil {
		opts.OnPage(oaipmh.PageStats{Page: 1, Records: len(h.result.Works), Accepted: len(h.result.Works), Total: len(h.result.Works)})
	}
	return h.result, h.err
}

type memoryState struct {
	state   *entities.SyncState
	loadErr error
	saves   int
}

func (m *memoryState) Load(context.Context) (*entities.SyncState, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.state == nil {
		return nil, nil
	}
	copied := *m.state
	return &copied, nil
}

func (m *memoryState) Save(_ context.Context, state *entities.SyncState) error {
	copied := *state
	m.state = &copied
	m.saves++
	return nil
}

type progressCall struct {
	processed, succeeded, failed, skipped int
}

type fakeProgress struct {
	runID     string
	total     int
	updates   []progressCall
	completed bool
	succeeded bool
	errorMsg  string
}

func (p *fakeProgress) StartSync(runID string, total int) error {
	p.runID, p.total = runID, total
	return nil
}

func (p *fakeProgress) SetTotal(total int) error {
	p.total = total
	return nil
}

func (p *fakeProgress) UpdateProgress(processed, succeeded, failed, skipped int, _ string) error {
	p.updates = append(p.updates, progressCall{processed, succeeded, failed, skipped})
	return nil
}

func (p *fakeProgress) CompleteSync(succeeded bool, errorMsg string) error {
	p.completed, p.succeeded, p.errorMsg = true, succeeded, errorMsg
	return nil
}

type runEvent struct {
	runID  string
	action string
	counts map[string]any
	err    error
}

type fakeAudit struct {
	runs     []runEvent
	entities []string
}

func (a *fakeAudit) LogRun(runID string, _ entities.AuditEventType, action, _ string, counts map[string]any, err error) {
	a.runs = append(a.runs, runEvent{runID: runID, action: action, counts: counts, err: err})
}

func (a *fakeAudit) LogEntity(_ string, _ entities.AuditEventType, action, _, entityID, _ string) {
	a.entities = append(a.entities, action+":"+entityID)
}

type fakeSnapshots struct {
	names []string
}

func (s *fakeSnapshots) Enabled() bool { return true }

func (s *fakeSnapshots) SaveJSON(name string, _ any) (string, error) {
	s.names = append(s.names, name)
	return "/audit/" + name + ".json", nil
}

// fakeRecords serves GetRecord from a map; unknown ids fail.
type fakeRecords struct {
	records  map[string]marc.Raw
	failures map[string]error
	calls    []string
}

func (f *fakeRecords) GetRecord(_ context.Context, identifier, _ string) (marc.Raw, error) {
	f.calls = append(f.calls, identifier)
	if err := f.failures[identifier]; err != nil {
		return marc.Raw{}, err
	}
	raw, ok := f.records[identifier]
	if !ok {
		return marc.Raw{}, errors.Join(oaipmh.ErrIDDoesNotExist, fmt.Errorf("record %s", identifier))
	}
	return raw, nil
}

func marcWithAuthor(tag, name string) *marc.Record {
	return &marc.Record{DataFields: []marc.DataField{
		{Tag: "245", Subfields: []marc.Subfield{{Code: "a", Value: "Titul"}}},
		{Tag: tag, Subfields: []marc.Subfield{{Code: "a", Value: name}}},
	}}
}

func work(id, title, author string) *entities.Work {
	return &entities.Work{
		ExternalID: id,
		Title:      title,
		Author:     author,
		Links:      []entities.DownloadLink{{URL: "https://example.org/" + id + ".epub", Format: "EPUB", Ext: "epub"}},
	}
}
