package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-sync/internal/models"
	"github.com/noah-isme/sma-fee-sync/internal/store"
	appErrors "github.com/noah-isme/sma-fee-sync/pkg/errors"
)

func strPtr(s string) *string { return &s }

func newTestController(gw feeGateway) (*Controller, *store.FeeStore, *Notices, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	st := store.NewFeeStore()
	notices := NewNotices(0, 0)
	c := newController(ctx, st, gw, notices, newBusySet(), zap.NewNop())
	return c, st, notices, cancel
}

func seedStore(t *testing.T, st *store.FeeStore, recs ...models.FeeRecord) {
	t.Helper()
	require.True(t, st.ReplaceIfCurrent(st.Begin(), recs))
}

func TestReloadSkipsEmptyScope(t *testing.T) {
	calls := 0
	gw := &fakeGateway{listFees: func(context.Context, models.FeeFilter) ([]models.FeeRecord, error) {
		calls++
		return nil, nil
	}}
	c, st, _, cancel := newTestController(gw)
	defer cancel()

	c.SetFilter(models.FeeFilterPatch{Search: strPtr("amara")})

	require.NoError(t, c.Reload(context.Background()))
	assert.Equal(t, 0, calls)
	assert.Zero(t, st.Len())
}

func TestReloadStaleResultDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	calls := 0

	gw := &fakeGateway{listFees: func(context.Context, models.FeeFilter) ([]models.FeeRecord, error) {
		calls++
		if calls == 1 {
			close(started)
			<-release
			return []models.FeeRecord{{ID: "stale", StudentName: "Old"}}, nil
		}
		return []models.FeeRecord{{ID: "fresh", StudentName: "New"}}, nil
	}}
	c, st, _, cancel := newTestController(gw)
	defer cancel()
	c.SetFilter(models.FeeFilterPatch{SchoolID: strPtr("school-1")})

	done := make(chan error, 1)
	go func() { done <- c.Reload(context.Background()) }()
	<-started

	// A newer reload starts and lands while the first is still in flight.
	require.NoError(t, c.Reload(context.Background()))

	close(release)
	require.NoError(t, <-done)

	snap := st.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "fresh", snap[0].ID)
}

func TestReloadFailureKeepsPreviousContents(t *testing.T) {
	gw := &fakeGateway{listFees: func(context.Context, models.FeeFilter) ([]models.FeeRecord, error) {
		return nil, appErrors.Clone(appErrors.ErrGatewayUnavailable, "")
	}}
	c, st, notices, cancel := newTestController(gw)
	defer cancel()
	c.SetFilter(models.FeeFilterPatch{SchoolID: strPtr("school-1")})

	seedStore(t, st, models.FeeRecord{ID: "kept", StudentName: "Keep Me"})

	err := c.Reload(context.Background())
	require.Error(t, err)

	snap := st.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "kept", snap[0].ID)

	active := notices.Active()
	require.Len(t, active, 1)
	assert.Equal(t, models.NoticeError, active[0].Level)
	assert.Equal(t, appErrors.ErrGatewayUnavailable.Message, active[0].Message)
}

func TestReloadAfterTeardownDiscardsResult(t *testing.T) {
	var cancel context.CancelFunc
	gw := &fakeGateway{listFees: func(context.Context, models.FeeFilter) ([]models.FeeRecord, error) {
		// Teardown happens while the request is in flight.
		cancel()
		return []models.FeeRecord{{ID: "late"}}, nil
	}}
	c, st, notices, cancelFn := newTestController(gw)
	cancel = cancelFn
	c.SetFilter(models.FeeFilterPatch{SchoolID: strPtr("school-1")})

	require.NoError(t, c.Reload(context.Background()))
	assert.Zero(t, st.Len())
	assert.Empty(t, notices.Active())
}

func TestSetFilterMergesPatch(t *testing.T) {
	c, _, _, cancel := newTestController(&fakeGateway{})
	defer cancel()

	c.SetFilter(models.FeeFilterPatch{SchoolID: strPtr("school-1"), Month: strPtr("Mar-2025")})
	got := c.SetFilter(models.FeeFilterPatch{StudentClass: strPtr("Class 10")})

	assert.Equal(t, models.FeeFilter{
		SchoolID:     "school-1",
		StudentClass: "Class 10",
		Month:        "Mar-2025",
	}, got)
	assert.Equal(t, got, c.Filter())
}

func TestSetFilterSchedulesOnlyOnScopeChange(t *testing.T) {
	c, _, _, cancel := newTestController(&fakeGateway{})
	defer cancel()

	fired := make(chan struct{}, 4)
	c.scheduler = NewReloadScheduler(15*time.Millisecond, func() { fired <- struct{}{} })
	defer c.scheduler.Stop()

	c.SetFilter(models.FeeFilterPatch{Search: strPtr("brian")})
	select {
	case <-fired:
		t.Fatal("search change must not schedule a reload")
	case <-time.After(60 * time.Millisecond):
	}

	c.SetFilter(models.FeeFilterPatch{SchoolID: strPtr("school-1")})
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("scope change never scheduled a reload")
	}

	// Re-applying the same scope is a no-op.
	c.SetFilter(models.FeeFilterPatch{SchoolID: strPtr("school-1")})
	select {
	case <-fired:
		t.Fatal("unchanged scope must not schedule a reload")
	case <-time.After(60 * time.Millisecond):
	}
}
