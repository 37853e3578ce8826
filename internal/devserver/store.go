package devserver

import (
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/zfogg/dormdesk/pkg/api"
)

var (
	errNotFound = errors.New("not found")
	errConflict = errors.New("conflict")
)

// Store is the in-memory dormitory. Roll-call upserts append rather than
// overwrite, so listings can carry several records per student like the
// real backend does.
type Store struct {
	mu        sync.Mutex
	now       func() time.Time
	nextID    int
	rooms     []api.Room
	students  []api.Student
	rollcalls []api.RollcallRecord
	notices   []api.Notice
	parcels   []api.Parcel
	inquiries []api.Inquiry
	stays     []api.OvernightStay
	bills     []api.Bill
	objects   map[string]storedObject
}

type storedObject struct {
	contentType string
	data        []byte
}

func ptr[T any](v T) *T { return &v }

// NewStore creates a store seeded with a small dormitory
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	s := &Store{now: now, nextID: 1000, objects: map[string]storedObject{}}
	s.seed()
	return s
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

func (s *Store) seed() {
	now := s.now()
	today := now.Format("2006-01-02")
	earlier := now.Add(-2 * time.Hour)

	s.rooms = []api.Room{
		{ID: 101, Name: "A-101", Floor: 1, Capacity: 2},
		{ID: 102, Name: "A-102", Floor: 1, Capacity: 2},
		{ID: 201, Name: "B-201", Floor: 2, Capacity: 3},
	}
	s.students = []api.Student{
		{ID: ptr(1), StudentNo: "2023001", Name: "Kim Minji", RoomID: ptr(101), Phone: "010-1111-2222"},
		{ID: ptr(2), StudentNo: "2023002", Name: "Lee Jaehyun", RoomID: ptr(101)},
		{ID: ptr(3), StudentNo: "2024010", Name: "Park Seoyeon", RoomID: ptr(102)},
		{StudentNo: "2024011", Name: "Choi Dohyun", RoomID: ptr(201)},
		{ID: ptr(5), Name: "Jung Hana", RoomID: ptr(201)},
	}
	s.rollcalls = []api.RollcallRecord{
		// legacy record without a status
		{ID: 10, StudentID: 1, Date: today, Present: true, CleaningStatus: api.CleaningPass, RoomID: ptr(101), CheckedAt: &earlier},
		// two records for the same student, the later one wins
		{ID: 11, StudentID: 3, Date: today, Present: false, Status: ptr(api.StatusAbsent), RoomID: ptr(102), UpdatedAt: &earlier},
		{ID: 12, StudentID: 3, Date: today, Present: false, Status: ptr(api.StatusLeave), Note: "family visit", RoomID: ptr(102), UpdatedAt: &now},
	}
	s.notices = []api.Notice{
		{ID: 1, Title: "Quiet hours during exams", Body: "Quiet hours start at 22:00 until the end of the exam period.", Author: "office", Pinned: true, CreatedAt: earlier},
		{ID: 2, Title: "Laundry room maintenance", Body: "Laundry room B is closed on Saturday morning.", Author: "office", CreatedAt: now},
	}
	s.parcels = []api.Parcel{
		{ID: 1, StudentID: 2, Carrier: "CJ Logistics", TrackingNo: "5532-1180-2291", ArrivedAt: earlier},
		{ID: 2, StudentID: 3, Carrier: "Korea Post", ArrivedAt: earlier, PickedUpAt: &now},
	}
	s.inquiries = []api.Inquiry{
		{ID: 1, StudentID: 1, Subject: "Broken desk lamp", Body: "The desk lamp in A-101 flickers.", Status: "OPEN", CreatedAt: earlier},
	}
	s.stays = []api.OvernightStay{
		{ID: 1, StudentID: 2, From: today, To: now.AddDate(0, 0, 2).Format("2006-01-02"), Reason: "home for the weekend", Status: "PENDING"},
	}
}

// AddFakeStudents fills the rooms with n generated students. The same seed
// gives the same roster.
func (s *Store) AddFakeStudents(n int, seed uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	faker := gofakeit.New(seed)
	for i := 0; i < n; i++ {
		room := s.rooms[i%len(s.rooms)].ID
		st := api.Student{
			StudentNo: faker.Numerify("2025####"),
			Name:      faker.Name(),
			RoomID:    ptr(room),
			Phone:     faker.Numerify("010-####-####"),
		}
		// some students only carry a student number
		if faker.Bool() {
			st.ID = ptr(s.id())
		}
		s.students = append(s.students, st)
	}
}

// Rooms returns a page of rooms
func (s *Store) Rooms(page, limit int) []api.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return paginate(s.rooms, page, limit)
}

// Students returns the roster, optionally of one room
func (s *Store) Students(roomID *int) []api.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.Student{}
	for _, st := range s.students {
		if roomID == nil || (st.RoomID != nil && *st.RoomID == *roomID) {
			out = append(out, st)
		}
	}
	return out
}

// Rollcalls returns every record for a date, duplicates included
func (s *Store) Rollcalls(date string, roomID *int) []api.RollcallRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.RollcallRecord{}
	for _, r := range s.rollcalls {
		if r.Date != date {
			continue
		}
		if roomID != nil && (r.RoomID == nil || *r.RoomID != *roomID) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// UpsertRollcall stores in as a new record
func (s *Store) UpsertRollcall(in api.RollcallUpsert) api.RollcallRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	rec := api.RollcallRecord{
		ID:             s.id(),
		StudentID:      in.StudentID,
		Date:           in.Date,
		Present:        in.Present,
		CleaningStatus: in.CleaningStatus,
		Note:           in.Note,
		RoomID:         in.RoomID,
		CheckedAt:      &now,
		UpdatedAt:      &now,
	}
	if in.Status != "" {
		rec.Status = ptr(in.Status)
	}
	s.rollcalls = append(s.rollcalls, rec)
	return rec
}

// Notices returns a page of notices, pinned first then newest
func (s *Store) Notices(page, limit int) []api.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	sorted := append([]api.Notice(nil), s.notices...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Pinned != sorted[j].Pinned {
			return sorted[i].Pinned
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return paginate(sorted, page, limit)
}

// AddNotice posts a notice
func (s *Store) AddNotice(in api.NoticeInput, author string) api.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := api.Notice{ID: s.id(), Title: in.Title, Body: in.Body, Pinned: in.Pinned, Author: author, CreatedAt: s.now()}
	s.notices = append(s.notices, n)
	return n
}

// Parcels lists parcels, only uncollected ones when pending is set
func (s *Store) Parcels(pending bool) []api.Parcel {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.Parcel{}
	for _, p := range s.parcels {
		if pending && p.PickedUpAt != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

// PickUpParcel marks a parcel collected
func (s *Store) PickUpParcel(id int) (api.Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.parcels {
		if s.parcels[i].ID != id {
			continue
		}
		if s.parcels[i].PickedUpAt != nil {
			return api.Parcel{}, errConflict
		}
		s.parcels[i].PickedUpAt = ptr(s.now())
		return s.parcels[i], nil
	}
	return api.Parcel{}, errNotFound
}

// Inquiries lists inquiries with the given status, or all
func (s *Store) Inquiries(status string) []api.Inquiry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.Inquiry{}
	for _, q := range s.inquiries {
		if status == "" || q.Status == status {
			out = append(out, q)
		}
	}
	return out
}

// AnswerInquiry answers an inquiry; answering again replaces the answer
func (s *Store) AnswerInquiry(id int, answer string) (api.Inquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.inquiries {
		if s.inquiries[i].ID == id {
			s.inquiries[i].Answer = answer
			s.inquiries[i].Status = "ANSWERED"
			s.inquiries[i].AnsweredAt = ptr(s.now())
			return s.inquiries[i], nil
		}
	}
	return api.Inquiry{}, errNotFound
}

// OvernightStays lists requests with the given status, or all
func (s *Store) OvernightStays(status string) []api.OvernightStay {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.OvernightStay{}
	for _, st := range s.stays {
		if status == "" || st.Status == status {
			out = append(out, st)
		}
	}
	return out
}

// DecideOvernightStay approves or rejects a pending request
func (s *Store) DecideOvernightStay(id int, approve bool, reason string) (api.OvernightStay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.stays {
		st := &s.stays[i]
		if st.ID != id {
			continue
		}
		if st.Status != "PENDING" {
			return api.OvernightStay{}, errConflict
		}
		st.Status = "REJECTED"
		if approve {
			st.Status = "APPROVED"
		}
		if reason != "" {
			st.Reason = st.Reason + " / " + reason
		}
		st.DecidedAt = ptr(s.now())
		return *st, nil
	}
	return api.OvernightStay{}, errNotFound
}

// RoomExists reports whether id names a room
func (s *Store) RoomExists(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.ID == id {
			return true
		}
	}
	return false
}

// PutObject stores an uploaded object
func (s *Store) PutObject(key, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = storedObject{contentType: contentType, data: data}
}

// Object returns an uploaded object
func (s *Store) Object(key string) (data []byte, contentType string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	return obj.data, obj.contentType, ok
}

// AddBill registers an uploaded bill photo
func (s *Store) AddBill(in api.BillInput) (api.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[in.ObjectKey]; !ok {
		return api.Bill{}, errNotFound
	}
	b := api.Bill{ID: s.id(), RoomID: in.RoomID, Month: in.Month, ObjectKey: in.ObjectKey, CreatedAt: s.now()}
	s.bills = append(s.bills, b)
	return b, nil
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return append([]T(nil), items[start:end]...)
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
