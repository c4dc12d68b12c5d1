package model

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type Department string

const (
	DepartmentComputing   Department = "Computing and Technology"
	DepartmentVisualArt   Department = "Visual Art and Design"
	DepartmentEngineering Department = "Engineering"
)

var Departments = []Department{DepartmentComputing, DepartmentVisualArt, DepartmentEngineering}

func (d Department) Valid() bool {
	for _, known := range Departments {
		if d == known {
			return true
		}
	}
	return false
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Account struct {
	ID        string
	Email     string
	FullName  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Coordinates only exist as a pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type EventRecord struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Department       Department   `json:"department"`
	Date             time.Time    `json:"date"`
	Venue            string       `json:"venue"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
	RegistrationLink string       `json:"registration_link,omitempty"`
	Status           Status       `json:"status"`
	CreatedBy        string       `json:"created_by"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// CacheSnapshot is the last successful fetch of approved events, in fetch order.
type CacheSnapshot struct {
	Items        []EventRecord `json:"items"`
	LastSyncedAt *time.Time    `json:"last_synced_at,omitempty"`
}

// ReminderLeadTime is how long before an event starts its reminder fires.
const ReminderLeadTime = time.Hour

type ScheduledReminder struct {
	EventID    string    `json:"event_id"`
	EventTitle string    `json:"event_title"`
	Venue      string    `json:"venue"`
	EventDate  time.Time `json:"event_date"`
	FiresAt    time.Time `json:"fires_at"`
}

func NewReminder(ev EventRecord) ScheduledReminder {
	return ScheduledReminder{
		EventID:    ev.ID,
		EventTitle: ev.Title,
		Venue:      ev.Venue,
		EventDate:  ev.Date,
		FiresAt:    ev.Date.Add(-ReminderLeadTime),
	}
}
