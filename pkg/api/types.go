package api

import "time"

// AttendanceStatus is the tri-state roll-call result
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "PRESENT"
	StatusLeave   AttendanceStatus = "LEAVE"
	StatusAbsent  AttendanceStatus = "ABSENT"
)

// Valid reports whether s is one of the known statuses
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusLeave, StatusAbsent:
		return true
	}
	return false
}

// CleaningStatus is the room inspection result
type CleaningStatus string

const (
	CleaningPass CleaningStatus = "PASS"
	CleaningFail CleaningStatus = "FAIL"
	CleaningNone CleaningStatus = "NONE"
)

// Valid reports whether c is one of the known cleaning results
func (c CleaningStatus) Valid() bool {
	switch c {
	case CleaningPass, CleaningFail, CleaningNone:
		return true
	}
	return false
}

// Room Types
type Room struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Floor    int    `json:"floor,omitempty"`
	Capacity int    `json:"capacity,omitempty"`
}

// Student carries either a numeric id or a textual student number, or both
type Student struct {
	ID        *int   `json:"id,omitempty"`
	StudentNo string `json:"studentNo,omitempty"`
	Name      string `json:"name"`
	RoomID    *int   `json:"roomId,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Roll-call Types
type RollcallRecord struct {
	ID             int               `json:"id"`
	StudentID      int               `json:"studentId"`
	Date           string            `json:"date"`
	Present        bool              `json:"present"`
	Status         *AttendanceStatus `json:"status,omitempty"`
	CleaningStatus CleaningStatus    `json:"cleaningStatus,omitempty"`
	Note           string            `json:"note,omitempty"`
	RoomID         *int              `json:"roomId,omitempty"`
	CheckedAt      *time.Time        `json:"checkedAt,omitempty"`
	UpdatedAt      *time.Time        `json:"updatedAt,omitempty"`
}

// RollcallQuery selects the records of one date, optionally one room
type RollcallQuery struct {
	Date   string
	RoomID *int
}

// RollcallUpsert is the full row the server needs to create or overwrite a
// student's record for a date
type RollcallUpsert struct {
	StudentID      int              `json:"studentId" validate:"gte=0"`
	Date           string           `json:"date" validate:"required,datetime=2006-01-02"`
	Present        bool             `json:"present"`
	Status         AttendanceStatus `json:"status,omitempty" validate:"omitempty,oneof=PRESENT LEAVE ABSENT"`
	CleaningStatus CleaningStatus   `json:"cleaningStatus,omitempty" validate:"omitempty,oneof=PASS FAIL NONE"`
	Note           string           `json:"note" validate:"max=500"`
	RoomID         *int             `json:"roomId,omitempty"`
}

// Notice Types
type Notice struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Author    string    `json:"author,omitempty"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"createdAt"`
}

type NoticeInput struct {
	Title  string `json:"title" validate:"required,max=200"`
	Body   string `json:"body" validate:"required"`
	Pinned bool   `json:"pinned"`
}

// Parcel Types
type Parcel struct {
	ID         int        `json:"id"`
	StudentID  int        `json:"studentId"`
	Carrier    string     `json:"carrier"`
	TrackingNo string     `json:"trackingNo,omitempty"`
	ArrivedAt  time.Time  `json:"arrivedAt"`
	PickedUpAt *time.Time `json:"pickedUpAt,omitempty"`
}

// Inquiry Types
type Inquiry struct {
	ID         int        `json:"id"`
	StudentID  int        `json:"studentId"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	Answer     string     `json:"answer,omitempty"`
	Status     string     `json:"status"` // OPEN, ANSWERED
	CreatedAt  time.Time  `json:"createdAt"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty"`
}

type InquiryAnswer struct {
	Answer string `json:"answer" validate:"required,max=2000"`
}

// Overnight stay Types
type OvernightStay struct {
	ID        int        `json:"id"`
	StudentID int        `json:"studentId"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	Reason    string     `json:"reason"`
	Status    string     `json:"status"` // PENDING, APPROVED, REJECTED
	DecidedAt *time.Time `json:"decidedAt,omitempty"`
}

type OvernightDecision struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// Bill Types
type BillUpload struct {
	UploadURL   string    `json:"uploadUrl"`
	ObjectKey   string    `json:"objectKey"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type BillPresignRequest struct {
	RoomID      int    `json:"roomId" validate:"gt=0"`
	Month       string `json:"month" validate:"required,datetime=2006-01"`
	ContentType string `json:"contentType" validate:"required,oneof=image/jpeg image/png"`
}

type BillInput struct {
	RoomID    int    `json:"roomId" validate:"gt=0"`
	Month     string `json:"month" validate:"required,datetime=2006-01"`
	ObjectKey string `json:"objectKey" validate:"required"`
}

type Bill struct {
	ID        int       `json:"id"`
	RoomID    int       `json:"roomId"`
	Month     string    `json:"month"`
	ObjectKey string    `json:"objectKey"`
	CreatedAt time.Time `json:"createdAt"`
}

// Page selects a slice of a listing endpoint
type Page struct {
	Page  int
	Limit int
}
