package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pharma/meridian-erp/internal/finance"
)

type fakeChecker struct {
	numbers []string
	err     error
}

func (f fakeChecker) CheckIntegrity(context.Context) ([]string, error) {
	return f.numbers, f.err
}

type fakeLister struct {
	docs []finance.UnpostedDocument
	err  error
}

func (f fakeLister) UnpostedDocuments(context.Context) ([]finance.UnpostedDocument, error) {
	return f.docs, f.err
}

type fakeReallocator struct {
	calls int
	err   error
}

func (f *fakeReallocator) ReallocateAll(context.Context) error {
	f.calls++
	return f.err
}

func TestLedgerIntegrityJobReportsViolations(t *testing.T) {
	job := NewLedgerIntegrityJob(fakeChecker{numbers: []string{"JE2602-0007"}}, nil, nil)
	err := job.Handle(context.Background(), NewLedgerIntegrityTask())
	require.NoError(t, err)
}

func TestLedgerIntegrityJobPropagatesError(t *testing.T) {
	job := NewLedgerIntegrityJob(fakeChecker{err: errors.New("db down")}, nil, nil)
	err := job.Handle(context.Background(), NewLedgerIntegrityTask())
	require.Error(t, err)
}

func TestUnpostedScanJobHandlesDocuments(t *testing.T) {
	job := NewUnpostedScanJob(fakeLister{docs: []finance.UnpostedDocument{
		{SourceModule: "finance_expense", DocumentNumber: "EXP2602-0001", Amount: 100},
	}}, nil, nil)
	err := job.Handle(context.Background(), NewUnpostedScanTask())
	require.NoError(t, err)
}

func TestReallocateContainersJobRunsOnce(t *testing.T) {
	costs := &fakeReallocator{}
	job := NewReallocateContainersJob(costs, nil, nil)
	require.NoError(t, job.Handle(context.Background(), NewReallocateContainersTask()))
	require.Equal(t, 1, costs.calls)
}

func TestStockRecountJobRequiresConfiguration(t *testing.T) {
	job := &StockRecountJob{}
	err := job.Handle(context.Background(), asynq.NewTask(TaskStockRecount, nil))
	require.Error(t, err)
}

func TestDefaultCronCoversAllMaintenanceTasks(t *testing.T) {
	entries, err := DefaultCron()
	require.NoError(t, err)
	require.Len(t, entries, 4)
	types := map[string]bool{}
	for _, e := range entries {
		types[e.Task.Type()] = true
	}
	require.True(t, types[TaskLedgerIntegrity])
	require.True(t, types[TaskUnpostedScan])
	require.True(t, types[TaskStockRecount])
	require.True(t, types[TaskReallocateContainers])
}
