package rollcall

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/dormdesk/pkg/api"
)

// fakeSource appends every upsert as a new record, like a store that
// accumulates duplicates
type fakeSource struct {
	mu        sync.Mutex
	students  []api.Student
	records   []api.RollcallRecord
	nextID    int
	upserts   []api.RollcallUpsert
	upsertErr error
	listErr   error
	gates     map[string]chan struct{}
	started   chan string
}

func newFakeSource(students ...api.Student) *fakeSource {
	return &fakeSource{students: students, nextID: 100, gates: map[string]chan struct{}{}}
}

func (f *fakeSource) ListStudents(ctx context.Context, roomID *int) ([]api.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []api.Student
	for _, s := range f.students {
		if roomID == nil || (s.RoomID != nil && *s.RoomID == *roomID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSource) ListRollcalls(ctx context.Context, q api.RollcallQuery) ([]api.RollcallRecord, error) {
	f.mu.Lock()
	gate := f.gates[q.Date]
	started := f.started
	f.mu.Unlock()

	if started != nil {
		started <- q.Date
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []api.RollcallRecord
	for _, r := range f.records {
		if r.Date == q.Date {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) UpsertRollcall(ctx context.Context, in api.RollcallUpsert) (*api.RollcallRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, in)
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	f.nextID++
	status := in.Status
	r := api.RollcallRecord{
		ID: f.nextID, StudentID: in.StudentID, Date: in.Date, Present: in.Present,
		CleaningStatus: in.CleaningStatus, Note: in.Note, RoomID: in.RoomID,
	}
	if status != "" {
		r.Status = &status
	}
	f.records = append(f.records, r)
	return &r, nil
}

func (f *fakeSource) Upserts() []api.RollcallUpsert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.RollcallUpsert(nil), f.upserts...)
}

func rowFor(t *testing.T, snap Snapshot, key int) Row {
	t.Helper()
	for _, r := range snap.Rows {
		if r.Key == key {
			return r
		}
	}
	t.Fatalf("no row for student %d", key)
	return Row{}
}

func TestSelectJoinsRosterWithDedupedRecords(t *testing.T) {
	src := newFakeSource(
		api.Student{ID: intPtr(42), Name: "Min", RoomID: intPtr(3)},
		api.Student{StudentNo: "7", Name: "Jae", RoomID: intPtr(3)},
	)
	src.records = []api.RollcallRecord{
		{ID: 5, StudentID: 42, Date: "2025-01-15", Present: false},
		{ID: 9, StudentID: 42, Date: "2025-01-15", Present: true},
	}

	b := NewBoard(src)
	require.NoError(t, b.Select(context.Background(), Selection{Date: "2025-01-15", RoomID: intPtr(3)}))

	snap := b.Snapshot()
	require.Len(t, snap.Rows, 2)
	kim := rowFor(t, snap, 42)
	require.NotNil(t, kim.Record)
	assert.Equal(t, 9, kim.Record.ID)
	assert.Equal(t, api.StatusPresent, kim.Status)

	jae := rowFor(t, snap, 7)
	assert.Nil(t, jae.Record)
	assert.Empty(t, jae.Status)
	assert.Equal(t, api.CleaningNone, jae.Cleaning)
}

func TestEditSendsFullRowAndRefetches(t *testing.T) {
	src := newFakeSource(api.Student{ID: intPtr(42), RoomID: intPtr(3)})
	src.records = []api.RollcallRecord{
		{ID: 9, StudentID: 42, Date: "2025-01-15", Present: true, CleaningStatus: api.CleaningPass, Note: "late bus"},
	}
	ctx := context.Background()
	b := NewBoard(src)
	require.NoError(t, b.Select(ctx, Selection{Date: "2025-01-15"}))

	require.NoError(t, b.SetStatus(ctx, 42, api.StatusLeave))

	upserts := src.Upserts()
	require.Len(t, upserts, 1)
	assert.Equal(t, api.RollcallUpsert{
		StudentID:      42,
		Date:           "2025-01-15",
		Present:        false,
		Status:         api.StatusLeave,
		CleaningStatus: api.CleaningPass,
		Note:           "late bus",
		RoomID:         intPtr(3),
	}, upserts[0])

	row := rowFor(t, b.Snapshot(), 42)
	assert.Equal(t, RowIdle, row.State)
	assert.False(t, row.Edited, "refetch replaces the overlay")
	require.NotNil(t, row.Record)
	assert.Equal(t, 101, row.Record.ID)
	assert.Equal(t, api.StatusLeave, row.Status)
}

func TestUpsertRoundTripYieldsSingleRecord(t *testing.T) {
	src := newFakeSource(api.Student{ID: intPtr(42)})
	ctx := context.Background()
	b := NewBoard(src)
	require.NoError(t, b.Select(ctx, Selection{Date: "2025-01-15"}))

	require.NoError(t, b.SetStatus(ctx, 42, api.StatusAbsent))
	require.NoError(t, b.SetStatus(ctx, 42, api.StatusPresent))

	raw, err := src.ListRollcalls(ctx, api.RollcallQuery{Date: "2025-01-15"})
	require.NoError(t, err)
	require.Len(t, raw, 2, "the store keeps both writes")

	working := Dedupe(raw)
	require.Len(t, working, 1)
	assert.True(t, working[42].Present)

	row := rowFor(t, b.Snapshot(), 42)
	assert.Equal(t, api.StatusPresent, row.Status)
}

func TestFailedUpsertKeepsOverlayAndRetries(t *testing.T) {
	src := newFakeSource(api.Student{ID: intPtr(42)})
	src.records = []api.RollcallRecord{{ID: 9, StudentID: 42, Date: "2025-01-15", Present: true}}
	ctx := context.Background()
	b := NewBoard(src)
	require.NoError(t, b.Select(ctx, Selection{Date: "2025-01-15"}))

	src.mu.Lock()
	src.upsertErr = errors.New("502 bad gateway")
	src.mu.Unlock()

	err := b.SetNote(ctx, 42, "went home")
	require.Error(t, err)

	row := rowFor(t, b.Snapshot(), 42)
	assert.Equal(t, RowError, row.State)
	assert.EqualError(t, row.Err, "502 bad gateway")
	assert.Equal(t, "went home", row.Note, "optimistic value is not rolled back")
	assert.True(t, row.Edited)

	src.mu.Lock()
	src.upsertErr = nil
	src.mu.Unlock()

	require.NoError(t, b.Retry(ctx, 42))
	upserts := src.Upserts()
	require.Len(t, upserts, 2)
	assert.Equal(t, upserts[0], upserts[1], "retry re-issues the same upsert")

	row = rowFor(t, b.Snapshot(), 42)
	assert.Equal(t, RowIdle, row.State)
	assert.Nil(t, row.Err)
	assert.Equal(t, "went home", row.Note)

	assert.ErrorIs(t, b.Retry(ctx, 42), ErrNothingToRetry)
}

func TestRefetchKeepsOverlayOfFailedRows(t *testing.T) {
	src := newFakeSource(api.Student{ID: intPtr(1)}, api.Student{ID: intPtr(2)})
	ctx := context.Background()
	b := NewBoard(src)
	require.NoError(t, b.Select(ctx, Selection{Date: "2025-01-15"}))

	src.mu.Lock()
	src.upsertErr = errors.New("timeout")
	src.mu.Unlock()
	require.Error(t, b.SetStatus(ctx, 1, api.StatusLeave))

	src.mu.Lock()
	src.upsertErr = nil
	src.mu.Unlock()
	require.NoError(t, b.SetStatus(ctx, 2, api.StatusPresent))

	snap := b.Snapshot()
	failed := rowFor(t, snap, 1)
	assert.Equal(t, api.StatusLeave, failed.Status)
	assert.Equal(t, RowError, failed.State)
	assert.Equal(t, api.StatusPresent, rowFor(t, snap, 2).Status)
}

func TestFetchFailureReplacesTable(t *testing.T) {
	src := newFakeSource(api.Student{ID: intPtr(1)})
	src.listErr = errors.New("connection refused")

	b := NewBoard(src)
	err := b.Select(context.Background(), Selection{Date: "2025-01-15"})
	require.Error(t, err)

	snap := b.Snapshot()
	assert.EqualError(t, snap.Err, "connection refused")
	assert.Empty(t, snap.Rows)
	assert.False(t, snap.Loading)
}

func TestEditValidation(t *testing.T) {
	src := newFakeSource(api.Student{ID: intPtr(1)}, api.Student{StudentNo: "guest", Name: "Guest"})
	ctx := context.Background()
	b := NewBoard(src)

	assert.ErrorIs(t, b.SetNote(ctx, 1, "x"), ErrNoSelection)
	require.NoError(t, b.Select(ctx, Selection{Date: "2025-01-15"}))
	assert.ErrorIs(t, b.SetNote(ctx, 99, "x"), ErrUnknownStudent)
	assert.ErrorIs(t, b.SetNote(ctx, -1, "x"), ErrUnkeyedStudent)
	assert.Error(t, b.SetStatus(ctx, 1, "LATE"))
	assert.Error(t, b.SetCleaning(ctx, 1, "DIRTY"))
	assert.Empty(t, src.Upserts())
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	src := newFakeSource(api.Student{ID: intPtr(42)})
	src.records = []api.RollcallRecord{
		{ID: 1, StudentID: 42, Date: "2025-01-14", Present: false},
		{ID: 2, StudentID: 42, Date: "2025-01-15", Present: true},
	}
	releaseA := make(chan struct{})
	src.gates["2025-01-14"] = releaseA
	src.started = make(chan string, 4)

	ctx := context.Background()
	b := NewBoard(src)

	doneA := make(chan error, 1)
	go func() { doneA <- b.Select(ctx, Selection{Date: "2025-01-14"}) }()
	require.Equal(t, "2025-01-14", <-src.started)

	require.NoError(t, b.Select(ctx, Selection{Date: "2025-01-15"}))
	<-src.started

	close(releaseA)
	select {
	case err := <-doneA:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("fetch for the first selection never returned")
	}

	snap := b.Snapshot()
	assert.Equal(t, "2025-01-15", snap.Selection.Date)
	row := rowFor(t, snap, 42)
	require.NotNil(t, row.Record)
	assert.Equal(t, 2, row.Record.ID)
	assert.Equal(t, api.StatusPresent, row.Status)
}

func TestOnChangeReceivesSnapshots(t *testing.T) {
	src := newFakeSource(api.Student{ID: intPtr(1)})
	var mu sync.Mutex
	var loading []bool
	b := NewBoard(src, WithOnChange(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		loading = append(loading, s.Loading)
	}))

	require.NoError(t, b.Select(context.Background(), Selection{Date: "2025-01-15"}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, loading)
}

func TestRowStateString(t *testing.T) {
	assert.Equal(t, "idle", RowIdle.String())
	assert.Equal(t, "saving", RowSaving.String())
	assert.Equal(t, "error", RowError.String())
}
