package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/eknihy-sync/internal/services"
	"github.com/mrlokans/eknihy-sync/internal/tasks"
)

type blockingRunner struct {
	release chan struct{}
	started chan services.RunRequest
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{release: make(chan struct{}), started: make(chan services.RunRequest, 4)}
}

func (r *blockingRunner) Run(ctx context.Context, req services.RunRequest) (*services.RunReport, error) {
	r.started <- req
	select {
	case <-r.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &services.RunReport{}, nil
}

type recordingQueue struct {
	mu    sync.Mutex
	tasks []backlite.Task
	err   error
}

func (q *recordingQueue) Enqueue(task backlite.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.tasks = append(q.tasks, task)
	return "task-1", nil
}

type recordingAudit struct {
	mu      sync.Mutex
	actions []string
}

func (a *recordingAudit) LogSchedule(action, _ string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
}

func TestScheduler_StartDisabled(t *testing.T) {
	s := NewCatalogSyncScheduler(newBlockingRunner(), nil, nil, Options{Enabled: false, Schedule: "0 3 * * *"})

	require.NoError(t, s.Start(context.Background()))

	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
}

func TestScheduler_StartInvalidSchedule(t *testing.T) {
	s := NewCatalogSyncScheduler(newBlockingRunner(), nil, nil, Options{Enabled: true, Schedule: "every night"})

	err := s.Start(context.Background())

	require.Error(t, err)
	assert.False(t, s.IsRunning())
}

func TestScheduler_StartStop(t *testing.T) {
	audit := &recordingAudit{}
	s := NewCatalogSyncScheduler(newBlockingRunner(), nil, audit, Options{Enabled: true, Schedule: "0 3 * * *"})

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	next := s.GetNextRunTime()
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
	assert.Equal(t, []string{"scheduler_started", "scheduler_stopped"}, audit.actions)
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	s := NewCatalogSyncScheduler(newBlockingRunner(), nil, nil, Options{Enabled: true, Schedule: "0 3 * * *"})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_RunNowInProcess(t *testing.T) {
	runner := newBlockingRunner()
	s := NewCatalogSyncScheduler(runner, nil, nil, Options{})

	id, err := s.RunNow(services.RunRequest{From: "2026-10-01", DryRun: true})
	require.NoError(t, err)
	assert.Empty(t, id)

	select {
	case req := <-runner.started:
		assert.Equal(t, services.RunRequest{From: "2026-10-01", DryRun: true}, req)
	case <-time.After(2 * time.Second):
		t.Fatal("sync did not start")
	}
	assert.True(t, s.IsSyncing())

	_, err = s.RunNow(services.RunRequest{})
	assert.ErrorIs(t, err, services.ErrSyncInProgress)

	close(runner.release)
	assert.Eventually(t, func() bool { return !s.IsSyncing() }, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_RunNowQueued(t *testing.T) {
	queue := &recordingQueue{}
	s := NewCatalogSyncScheduler(nil, queue, nil, Options{})

	id, err := s.RunNow(services.RunRequest{DryRun: true})

	require.NoError(t, err)
	assert.Equal(t, "task-1", id)
	assert.True(t, s.Queued())
	require.Len(t, queue.tasks, 1)
	assert.Equal(t, tasks.SyncCatalogTask{DryRun: true, Trigger: "api"}, queue.tasks[0])
}

func TestScheduler_RunNowQueueError(t *testing.T) {
	s := NewCatalogSyncScheduler(nil, &recordingQueue{err: errors.New("database is locked")}, nil, Options{})

	_, err := s.RunNow(services.RunRequest{})

	assert.Error(t, err)
}

func TestScheduler_RunNowWithoutRunner(t *testing.T) {
	s := NewCatalogSyncScheduler(nil, nil, nil, Options{})

	_, err := s.RunNow(services.RunRequest{})

	assert.Error(t, err)
}

func TestScheduler_EnqueueCleanup(t *testing.T) {
	queue := &recordingQueue{}
	s := NewCatalogSyncScheduler(nil, queue, nil, Options{RetentionDays: 30})

	s.enqueueCleanup()

	require.Len(t, queue.tasks, 1)
	assert.Equal(t, tasks.CleanupHistoryTask{RetentionDays: 30}, queue.tasks[0])
}

func TestScheduler_InvalidCleanupSchedule(t *testing.T) {
	s := NewCatalogSyncScheduler(nil, &recordingQueue{}, nil, Options{
		Enabled:         true,
		Schedule:        "0 3 * * *",
		CleanupSchedule: "weekly",
	})

	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}
