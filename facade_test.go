package entrybatch_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/entrybatch"
)

// ledgerPort records which steps ran for which record.
type ledgerPort struct {
	mu    sync.Mutex
	steps []string
	fail  map[string]error // keyed by "step/identity"
}

func (p *ledgerPort) do(ctx context.Context, step string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec := entrybatch.RecordFromContext(ctx)
	p.steps = append(p.steps, step+"/"+rec.Label())
	if err, ok := p.fail[step+"/"+rec.Label()]; ok {
		delete(p.fail, step+"/"+rec.Label())
		return err
	}
	return nil
}

func (p *ledgerPort) OpenFreshEntry(ctx context.Context) error       { return p.do(ctx, "open") }
func (p *ledgerPort) DuplicateFromCurrent(ctx context.Context) error { return p.do(ctx, "dup") }
func (p *ledgerPort) Commit(ctx context.Context) error               { return p.do(ctx, "commit") }
func (p *ledgerPort) RecoverSession(ctx context.Context) error       { return nil }

func (p *ledgerPort) FillHeader(ctx context.Context, _ *entrybatch.Record) error {
	return p.do(ctx, "header")
}

func (p *ledgerPort) FillDetail(ctx context.Context, _ *entrybatch.Record) error {
	return p.do(ctx, "detail")
}

func (p *ledgerPort) FillLines(ctx context.Context, _ *entrybatch.Record) error {
	return p.do(ctx, "lines")
}

func rec(id, a, b string) *entrybatch.Record {
	return &entrybatch.Record{Identity: id, ChainKeyA: a, ChainKeyB: b}
}

func TestFacadeRun_ChainsAndFreshRecords(t *testing.T) {
	src := entrybatch.NewSlice(rec("A1", "K", "P"), rec("A2", "K", "P"), rec("B1", "L", "P"))
	port := &ledgerPort{}

	report, err := entrybatch.Run(context.Background(), src, port, entrybatch.RecordDelay(0))
	require.NoError(t, err)

	assert.Equal(t, entrybatch.StateCompleted, report.State)
	assert.Len(t, report.Succeeded, 3)
	assert.True(t, report.Succeeded[1].Chained)
	assert.Equal(t, entrybatch.ModePrimary, report.Succeeded[1].Mode)
	assert.Equal(t, []string{
		"open/A1", "header/A1", "detail/A1", "lines/A1", "commit/A1",
		"dup/A2", "detail/A2", "lines/A2", "commit/A2",
		"open/B1", "header/B1", "detail/B1", "lines/B1", "commit/B1",
	}, port.steps)
}

func TestFacadeRun_FailureAbortsPausedRun(t *testing.T) {
	src := entrybatch.NewSlice(rec("A1", "K", "P"), rec("B1", "L", "P"))
	port := &ledgerPort{fail: map[string]error{"commit/A1": errors.New("rejected")}}

	report, err := entrybatch.Run(context.Background(), src, port, entrybatch.RecordDelay(0))
	require.NoError(t, err)

	assert.Equal(t, entrybatch.StateAborted, report.State)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "A1", report.Failed[0].Identity)
	assert.Empty(t, report.Succeeded)
}

func TestFacadeNew_ResumeAfterFailure(t *testing.T) {
	src := entrybatch.NewSlice(rec("A1", "K", "P"), rec("B1", "L", "P"))
	port := &ledgerPort{fail: map[string]error{"header/A1": errors.New("bad value")}}

	o, err := entrybatch.New(src, port, entrybatch.RecordDelay(0), entrybatch.WithRunID("run-42"))
	require.NoError(t, err)
	assert.Equal(t, "run-42", o.RunID())

	report, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, entrybatch.StatePaused, report.State)

	report, err = o.Resume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entrybatch.StateCompleted, report.State)
	assert.Len(t, report.Succeeded, 1)

	_, err = o.Resume(context.Background())
	assert.ErrorIs(t, err, entrybatch.ErrFinished)
}

func TestFacadeRun_TransientSkips(t *testing.T) {
	src := entrybatch.NewSlice(rec("A1", "K", "P"))
	port := &ledgerPort{fail: map[string]error{}}
	blocked := entrybatch.Transient(errors.New("overlay"))
	port.fail["open/A1"] = blocked

	report, err := entrybatch.Run(context.Background(), src, port,
		entrybatch.RecordDelay(0),
		entrybatch.Retry(entrybatch.RetryPolicy{MaxAttempts: 1}))
	require.NoError(t, err)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "transient failure after 1 attempts", report.Skipped[0].Detail)
	assert.True(t, entrybatch.IsTransient(blocked))
}

func TestFacadeRun_NilSource(t *testing.T) {
	_, err := entrybatch.Run(context.Background(), nil, &ledgerPort{})
	assert.Error(t, err)
}

func TestFacadeReadCSV(t *testing.T) {
	src, err := entrybatch.ReadCSV(strings.NewReader("No,Docket,Kode,Proyek\n1,D1,K,P\n2,D2,K,P\n"), entrybatch.Columns{})
	require.NoError(t, err)
	assert.Equal(t, 2, src.Count())
	assert.True(t, src.ChainsWith(0))
	assert.False(t, src.ChainsWith(1))
}

func TestFacadeDefaults(t *testing.T) {
	assert.Equal(t, 3, entrybatch.DefaultRetryPolicy().MaxAttempts)
	assert.Equal(t, entrybatch.ModePrimary, entrybatch.DefaultStrategies().First())
	assert.NotZero(t, entrybatch.DefaultRecordDelay)
}

func TestFacadeOpenSQLite_RecordsRun(t *testing.T) {
	ctx := context.Background()
	store, err := entrybatch.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	report, err := entrybatch.Run(ctx, entrybatch.NewSlice(rec("A1", "K", "P")), &ledgerPort{},
		entrybatch.RecordDelay(0),
		entrybatch.WithObserver(entrybatch.NewRecorder(store)))
	require.NoError(t, err)

	run, err := store.GetRun(ctx, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, entrybatch.StateCompleted, run.State)
	assert.Equal(t, 1, run.Succeeded)
}
