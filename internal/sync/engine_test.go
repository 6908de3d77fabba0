package sync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-fee-sync/internal/models"
)

func TestEngineFilterChangeTriggersDebouncedReload(t *testing.T) {
	var loads atomic.Int32
	gw := &fakeGateway{listFees: func(_ context.Context, filter models.FeeFilter) ([]models.FeeRecord, error) {
		loads.Add(1)
		return []models.FeeRecord{{ID: "fee-1", StudentName: "Amara Okafor", StudentClass: filter.StudentClass}}, nil
	}}
	e := NewEngine(EngineConfig{Gateway: gw, DebounceInterval: 20 * time.Millisecond})
	defer e.Close()

	// A burst of scope changes collapses into a single fetch.
	e.SetFilter(models.FeeFilterPatch{SchoolID: strPtr("school-1")})
	e.SetFilter(models.FeeFilterPatch{StudentClass: strPtr("Class 9")})
	e.SetFilter(models.FeeFilterPatch{Month: strPtr("Mar-2025")})

	require.Eventually(t, func() bool { return loads.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), loads.Load())

	view := e.View()
	require.Len(t, view.Fees, 1)
	assert.Equal(t, "Class 9", view.Fees[0].StudentClass)
}

func TestEngineViewAppliesSearchWithoutReload(t *testing.T) {
	var loads atomic.Int32
	gw := &fakeGateway{listFees: func(context.Context, models.FeeFilter) ([]models.FeeRecord, error) {
		loads.Add(1)
		return []models.FeeRecord{
			{ID: "f1", StudentName: "Amara Okafor"},
			{ID: "f2", StudentName: "Brian Kiptoo"},
		}, nil
	}}
	e := NewEngine(EngineConfig{Gateway: gw, DebounceInterval: time.Hour})
	defer e.Close()

	e.SetFilter(models.FeeFilterPatch{SchoolID: strPtr("school-1")})
	require.NoError(t, e.Reload(context.Background()))
	before := loads.Load()

	e.SetFilter(models.FeeFilterPatch{Search: strPtr("brian")})

	view := e.View()
	require.Len(t, view.Fees, 1)
	assert.Equal(t, "Brian Kiptoo", view.Fees[0].StudentName)
	assert.Equal(t, before, loads.Load())
}

func TestEngineDefaultSortIsByClass(t *testing.T) {
	e := NewEngine(EngineConfig{Gateway: &fakeGateway{}})
	defer e.Close()

	view := e.View()
	assert.Equal(t, models.SortByStudentClass, view.Sort.Column)
	assert.False(t, view.Sort.Descending)
}

func TestEngineSetSortToggles(t *testing.T) {
	e := NewEngine(EngineConfig{Gateway: &fakeGateway{}})
	defer e.Close()

	got := e.SetSort(models.SortByBalanceDue)
	assert.Equal(t, models.SortState{Column: models.SortByBalanceDue}, got)

	got = e.SetSort(models.SortByBalanceDue)
	assert.True(t, got.Descending)
}

func TestEngineCloseStopsPendingReload(t *testing.T) {
	var loads atomic.Int32
	gw := &fakeGateway{listFees: func(context.Context, models.FeeFilter) ([]models.FeeRecord, error) {
		loads.Add(1)
		return nil, nil
	}}
	e := NewEngine(EngineConfig{Gateway: gw, DebounceInterval: 30 * time.Millisecond})

	e.SetFilter(models.FeeFilterPatch{SchoolID: strPtr("school-1")})
	e.Close()

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), loads.Load())
}

func TestEngineBusyReportsInFlightOperation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gw := &fakeGateway{deleteFees: func(context.Context, []string) error {
		close(started)
		<-release
		return nil
	}}
	e := NewEngine(EngineConfig{Gateway: gw})
	defer e.Close()
	seedStore(t, e.store, models.FeeRecord{ID: "f1"})

	done := make(chan error, 1)
	go func() { done <- e.DeleteMany(context.Background(), []string{"f1"}) }()
	<-started

	assert.True(t, e.Busy()[BusyDelete])
	assert.False(t, e.Busy()[BusyCreate])

	close(release)
	require.NoError(t, <-done)
	assert.False(t, e.Busy()[BusyDelete])
}
