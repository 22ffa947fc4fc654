package model

import "time"

// Member statuses.
const (
	MemberActive   = "ACTIVE"
	MemberInactive = "INACTIVE"
)

// Member represents a person registered in a church. Corresponds to a row
// in the `members` table.
type Member struct {
	ID            uint64     `json:"id"`
	ChurchID      uint64     `json:"church_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Gender        string     `json:"gender,omitempty"`         // M | F
	MaritalStatus string     `json:"marital_status,omitempty"` // SINGLE | MARRIED | WIDOWED | DIVORCED
	SpouseID      *uint64    `json:"spouse_id,omitempty"`
	Status        string     `json:"status"`
	IsLeader      bool       `json:"is_leader"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// MemberInput is the writable part of a member.
type MemberInput struct {
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Gender        string     `json:"gender"`
	MaritalStatus string     `json:"marital_status"`
	SpouseID      *uint64    `json:"spouse_id,omitempty"`
	Status        string     `json:"status"`
	IsLeader      bool       `json:"is_leader"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
}

// MembersPage is one page of a member listing.
type MembersPage struct {
	Items    []Member `json:"items"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

// MembersDashboard aggregates member statistics for one church.
type MembersDashboard struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Inactive     int `json:"inactive"`
	Leaders      int `json:"leaders"`
	Male         int `json:"male"`
	Female       int `json:"female"`
	Married      int `json:"married"`
	NewThisMonth int `json:"new_this_month"`
}

// PersonOption is a lightweight id/name pair used by pickers such as the
// available leaders and available spouses lists.
type PersonOption struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}
