package rollcall

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zfogg/dormdesk/pkg/api"
	"github.com/zfogg/dormdesk/pkg/logger"
)

var (
	// ErrUnknownStudent is returned for edits to a key not on the roster
	ErrUnknownStudent = errors.New("student is not on this roster")
	// ErrNothingToRetry is returned by Retry for a row without a failed save
	ErrNothingToRetry = errors.New("row has no failed save to retry")
	// ErrNoSelection is returned for edits before any Select
	ErrNoSelection = errors.New("no date selected")
	// ErrUnkeyedStudent is returned for edits to a student without a usable id.
	// All such students share key -1, so a save would land on the wrong record.
	ErrUnkeyedStudent = errors.New("student has no usable id")
)

// Source is where the board reads rosters and records and writes upserts
type Source interface {
	ListStudents(ctx context.Context, roomID *int) ([]api.Student, error)
	ListRollcalls(ctx context.Context, query api.RollcallQuery) ([]api.RollcallRecord, error)
	UpsertRollcall(ctx context.Context, in api.RollcallUpsert) (*api.RollcallRecord, error)
}

// Selection is the date and optional room the board shows
type Selection struct {
	Date   string
	RoomID *int
}

// RowState is the save state of a single row
type RowState int

const (
	RowIdle RowState = iota
	RowSaving
	RowError
)

func (s RowState) String() string {
	switch s {
	case RowSaving:
		return "saving"
	case RowError:
		return "error"
	default:
		return "idle"
	}
}

// Row is one student's reconciled view. Status is empty for a student with
// no record and no edit yet.
type Row struct {
	Key      int
	Student  api.Student
	Record   *api.RollcallRecord
	Status   api.AttendanceStatus
	Cleaning api.CleaningStatus
	Note     string
	Edited   bool
	State    RowState
	Err      error
}

// Snapshot is a consistent copy of the board for rendering
type Snapshot struct {
	Selection Selection
	Loading   bool
	Err       error
	Rows      []Row
}

type edit struct {
	status   api.AttendanceStatus
	cleaning api.CleaningStatus
	note     string
}

type rowMeta struct {
	state   RowState
	err     error
	pending api.RollcallUpsert
}

// Board holds the roster, the deduplicated working set and the per-student
// edit overlay for one selection
type Board struct {
	src      Source
	onChange func(Snapshot)

	mu         sync.Mutex
	sel        Selection
	selected   bool
	gen        uint64
	seq        uint64
	appliedSeq uint64
	loading    bool
	err        error
	roster     []api.Student
	records    map[int]api.RollcallRecord
	overlay    map[int]edit
	meta       map[int]*rowMeta
}

// BoardOption configures a Board
type BoardOption func(*Board)

// WithOnChange registers a callback run with a fresh snapshot after every
// change. It runs without the board lock held.
func WithOnChange(fn func(Snapshot)) BoardOption {
	return func(b *Board) { b.onChange = fn }
}

// NewBoard creates an empty board
func NewBoard(src Source, opts ...BoardOption) *Board {
	b := &Board{
		src:     src,
		records: map[int]api.RollcallRecord{},
		overlay: map[int]edit{},
		meta:    map[int]*rowMeta{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Select switches the board to sel and loads its roster and records.
// Results of fetches started for an earlier selection are discarded.
func (b *Board) Select(ctx context.Context, sel Selection) error {
	b.mu.Lock()
	b.gen++
	b.seq++
	gen, seq := b.gen, b.seq
	b.sel = sel
	b.selected = true
	b.loading = true
	b.err = nil
	b.roster = nil
	b.records = map[int]api.RollcallRecord{}
	b.overlay = map[int]edit{}
	b.meta = map[int]*rowMeta{}
	b.mu.Unlock()
	b.changed()

	roster, err := b.src.ListStudents(ctx, sel.RoomID)
	var records []api.RollcallRecord
	if err == nil {
		records, err = b.src.ListRollcalls(ctx, api.RollcallQuery{Date: sel.Date, RoomID: sel.RoomID})
	}

	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		logger.Debug("Discarding stale rollcall fetch", "date", sel.Date, "generation", gen)
		return nil
	}
	b.loading = false
	if err != nil {
		b.err = err
		b.mu.Unlock()
		b.changed()
		return err
	}
	b.roster = roster
	// a refetch issued meanwhile may already hold newer records
	if seq > b.appliedSeq {
		b.appliedSeq = seq
		b.applyRecords(records)
	}
	b.mu.Unlock()
	b.changed()
	return nil
}

// Refresh refetches the records for the current selection and re-dedupes
// them. Overlay values of idle rows are replaced by the server's.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	if !b.selected {
		b.mu.Unlock()
		return ErrNoSelection
	}
	b.seq++
	gen, seq, sel := b.gen, b.seq, b.sel
	b.mu.Unlock()

	records, err := b.src.ListRollcalls(ctx, api.RollcallQuery{Date: sel.Date, RoomID: sel.RoomID})

	b.mu.Lock()
	if gen != b.gen || seq < b.appliedSeq {
		b.mu.Unlock()
		logger.Debug("Discarding stale rollcall refetch", "date", sel.Date, "generation", gen)
		return nil
	}
	b.appliedSeq = seq
	if err != nil {
		b.err = err
		b.mu.Unlock()
		b.changed()
		return err
	}
	b.err = nil
	b.applyRecords(records)
	b.mu.Unlock()
	b.changed()
	return nil
}

// applyRecords must be called with mu held
func (b *Board) applyRecords(records []api.RollcallRecord) {
	b.records = Dedupe(records)
	for key := range b.overlay {
		if m, ok := b.meta[key]; ok && m.state != RowIdle {
			continue
		}
		delete(b.overlay, key)
	}
}

// SetStatus records an attendance status for a student
func (b *Board) SetStatus(ctx context.Context, key int, status api.AttendanceStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown attendance status %q", status)
	}
	return b.apply(ctx, key, func(e *edit) { e.status = status })
}

// SetCleaning records a cleaning inspection result for a student
func (b *Board) SetCleaning(ctx context.Context, key int, cleaning api.CleaningStatus) error {
	if !cleaning.Valid() {
		return fmt.Errorf("unknown cleaning status %q", cleaning)
	}
	return b.apply(ctx, key, func(e *edit) { e.cleaning = cleaning })
}

// SetNote records a note for a student
func (b *Board) SetNote(ctx context.Context, key int, note string) error {
	return b.apply(ctx, key, func(e *edit) { e.note = note })
}

// Retry re-issues the failed upsert of a row
func (b *Board) Retry(ctx context.Context, key int) error {
	b.mu.Lock()
	m, ok := b.meta[key]
	if !ok || m.state != RowError {
		b.mu.Unlock()
		return ErrNothingToRetry
	}
	m.state = RowSaving
	m.err = nil
	in, gen := m.pending, b.gen
	b.mu.Unlock()
	b.changed()

	return b.save(ctx, key, gen, in)
}

func (b *Board) apply(ctx context.Context, key int, change func(*edit)) error {
	b.mu.Lock()
	if !b.selected {
		b.mu.Unlock()
		return ErrNoSelection
	}
	if key < 0 {
		b.mu.Unlock()
		return ErrUnkeyedStudent
	}
	student, ok := b.student(key)
	if !ok {
		b.mu.Unlock()
		return ErrUnknownStudent
	}

	e := b.current(key)
	change(&e)
	b.overlay[key] = e

	in := api.RollcallUpsert{
		StudentID:      key,
		Date:           b.sel.Date,
		Present:        PresentFlag(e.status),
		Status:         e.status,
		CleaningStatus: e.cleaning,
		Note:           e.note,
		RoomID:         student.RoomID,
	}
	if in.RoomID == nil {
		in.RoomID = b.sel.RoomID
	}
	b.meta[key] = &rowMeta{state: RowSaving, pending: in}
	gen := b.gen
	b.mu.Unlock()
	b.changed()

	return b.save(ctx, key, gen, in)
}

func (b *Board) save(ctx context.Context, key int, gen uint64, in api.RollcallUpsert) error {
	_, err := b.src.UpsertRollcall(ctx, in)

	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return err
	}
	m := b.meta[key]
	if m == nil {
		m = &rowMeta{pending: in}
		b.meta[key] = m
	}
	if err != nil {
		m.state = RowError
		m.err = err
		b.mu.Unlock()
		logger.Warn("Rollcall save failed", "student", key, "date", in.Date, "error", err)
		b.changed()
		return err
	}
	m.state = RowIdle
	m.err = nil
	b.mu.Unlock()

	if err := b.Refresh(ctx); err != nil {
		logger.Warn("Rollcall refetch failed", "date", in.Date, "error", err)
	}
	return nil
}

// student must be called with mu held
func (b *Board) student(key int) (api.Student, bool) {
	for _, s := range b.roster {
		if StudentKey(s) == key {
			return s, true
		}
	}
	return api.Student{}, false
}

// current returns the row's editable values, overlay first. Called with
// mu held.
func (b *Board) current(key int) edit {
	if e, ok := b.overlay[key]; ok {
		return e
	}
	r, ok := b.records[key]
	if !ok {
		return edit{cleaning: api.CleaningNone}
	}
	e := edit{status: DeriveStatus(r), cleaning: r.CleaningStatus, note: r.Note}
	if !e.cleaning.Valid() {
		e.cleaning = api.CleaningNone
	}
	return e
}

// Snapshot returns a copy of the board in roster order
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

func (b *Board) snapshot() Snapshot {
	snap := Snapshot{Selection: b.sel, Loading: b.loading, Err: b.err}
	if b.err != nil {
		return snap
	}
	snap.Rows = make([]Row, 0, len(b.roster))
	for _, s := range b.roster {
		key := StudentKey(s)
		e := b.current(key)
		row := Row{
			Key:      key,
			Student:  s,
			Status:   e.status,
			Cleaning: e.cleaning,
			Note:     e.note,
		}
		if r, ok := b.records[key]; ok {
			rec := r
			row.Record = &rec
		}
		_, row.Edited = b.overlay[key]
		if m, ok := b.meta[key]; ok {
			row.State = m.state
			row.Err = m.err
		}
		snap.Rows = append(snap.Rows, row)
	}
	return snap
}

func (b *Board) changed() {
	if b.onChange == nil {
		return
	}
	b.onChange(b.Snapshot())
}
