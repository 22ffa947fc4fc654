package model

import "time"

// Visitor is someone who attended without being a member.
type Visitor struct {
	ID        uint64    `json:"id"`
	ChurchID  uint64    `json:"church_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	VisitedAt time.Time `json:"visited_at"`
	Notes     string    `json:"notes,omitempty"`
}

// Ministry groups members around a shared service, optionally led by a
// member.
type Ministry struct {
	ID          uint64  `json:"id"`
	ChurchID    uint64  `json:"church_id"`
	Name        string  `json:"name"`
	LeaderID    *uint64 `json:"leader_id,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Activity is a scheduled event, optionally owned by a ministry.
type Activity struct {
	ID         uint64    `json:"id"`
	ChurchID   uint64    `json:"church_id"`
	MinistryID *uint64   `json:"ministry_id,omitempty"`
	Title      string    `json:"title"`
	StartsAt   time.Time `json:"starts_at"`
	Location   string    `json:"location,omitempty"`
}

// Prayer request statuses.
const (
	PrayerPending  = "PENDING"
	PrayerPraying  = "PRAYING"
	PrayerAnswered = "ANSWERED"
)

// PrayerRequest is a request submitted to the church's prayer team.
type PrayerRequest struct {
	ID        uint64    `json:"id"`
	ChurchID  uint64    `json:"church_id"`
	MemberID  *uint64   `json:"member_id,omitempty"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// MainDashboard aggregates counts across every resource of a church.
type MainDashboard struct {
	Members        int `json:"members"`
	Visitors       int `json:"visitors"`
	Ministries     int `json:"ministries"`
	Activities     int `json:"activities"`
	PendingPrayers int `json:"pending_prayers"`
	Branches       int `json:"branches"`
}

// Profile describes the authenticated user and the church they act within.
type Profile struct {
	UserID       uint64        `json:"user_id"`
	Email        string        `json:"email"`
	ActiveChurch *ActiveChurch `json:"active_church,omitempty"`
}
