package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/entrybatch/pkg/core"
)

func TestObserver_CountsEvents(t *testing.T) {
	o := New(false)
	ctx := context.Background()

	o.OnAttempt(ctx, &core.AttemptEvent{Outcome: core.OutcomeTransient, Mode: core.ModePrimary, Chained: true})
	o.OnAttempt(ctx, &core.AttemptEvent{Outcome: core.OutcomeSuccess, Mode: core.ModeAlternative, Chained: true})
	o.OnRowResult(ctx, "run-1", core.RowResult{Status: core.StatusSucceeded})
	o.OnRowResult(ctx, "run-1", core.RowResult{Status: core.StatusSucceeded, Chained: true})
	o.OnRowResult(ctx, "run-1", core.RowResult{Status: core.StatusSkipped})
	o.OnChainEvent(ctx, &core.ChainEvent{Kind: core.ChainStarted})
	o.OnChainEvent(ctx, &core.ChainEvent{Kind: core.ChainStrategySwitched, From: core.ModePrimary, To: core.ModeAlternative})
	o.OnChainEvent(ctx, &core.ChainEvent{Kind: core.ChainStopped})

	assert.Equal(t, 1.0, testutil.ToFloat64(o.attempts.WithLabelValues("transient", "primary", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.attempts.WithLabelValues("success", "alternative", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.rows.WithLabelValues("succeeded", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.rows.WithLabelValues("succeeded", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.rows.WithLabelValues("skipped", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.chains))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.strategySwitches.WithLabelValues("primary", "alternative")))
}

func TestObserver_StateChanges(t *testing.T) {
	o := New(false)
	ctx := context.Background()
	start := time.Now().Add(-3 * time.Second)

	o.OnStateChange(ctx, &core.StateChange{To: core.StateRunning, Report: &core.BatchReport{StartedAt: start}})
	o.OnStateChange(ctx, &core.StateChange{To: core.StateCompleted, Report: &core.BatchReport{
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
	}})

	assert.Equal(t, 1.0, testutil.ToFloat64(o.stateChanges.WithLabelValues("running")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.stateChanges.WithLabelValues("completed")))
	assert.Equal(t, 1, testutil.CollectAndCount(o.runDuration))
}

func TestObserver_Handler(t *testing.T) {
	o := New(true)
	o.OnRowResult(context.Background(), "run-1", core.RowResult{Status: core.StatusFailed})

	srv := httptest.NewServer(o.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `entrybatch_rows_total{chained="false",status="failed"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
