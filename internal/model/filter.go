package model

import (
	"net/url"
	"strconv"
	"time"
)

// Listing defaults shared by the API and its clients.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 100000
)

// MemberFilter narrows a member listing. Two filters that Normalize to the
// same value select the same rows and produce the same Parts.
type MemberFilter struct {
	Query       string
	Status      string
	LeadersOnly bool
	Page        int
	PageSize    int
}

// Normalize fills paging defaults and clamps the page size.
func (f MemberFilter) Normalize() MemberFilter {
	f.Page, f.PageSize = normalizePage(f.Page, f.PageSize)
	return f
}

// Offset is the number of rows skipped before the page.
func (f MemberFilter) Offset() int {
	f = f.Normalize()
	return (f.Page - 1) * f.PageSize
}

// Parts renders the filter as cache key components in a fixed order.
func (f MemberFilter) Parts() []string {
	f = f.Normalize()
	return []string{
		"q=" + f.Query,
		"status=" + f.Status,
		"leaders=" + strconv.FormatBool(f.LeadersOnly),
		"page=" + strconv.Itoa(f.Page),
		"size=" + strconv.Itoa(f.PageSize),
	}
}

// Values renders the filter as URL query parameters.
func (f MemberFilter) Values() url.Values {
	f = f.Normalize()
	v := url.Values{}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.LeadersOnly {
		v.Set("leaders", "true")
	}
	v.Set("page", strconv.Itoa(f.Page))
	v.Set("page_size", strconv.Itoa(f.PageSize))
	return v
}

// PageFilter pages through a listing with no other criteria.
type PageFilter struct {
	Page     int
	PageSize int
}

func (f PageFilter) Normalize() PageFilter {
	f.Page, f.PageSize = normalizePage(f.Page, f.PageSize)
	return f
}

func (f PageFilter) Offset() int {
	f = f.Normalize()
	return (f.Page - 1) * f.PageSize
}

func (f PageFilter) Parts() []string {
	f = f.Normalize()
	return []string{"page=" + strconv.Itoa(f.Page), "size=" + strconv.Itoa(f.PageSize)}
}

func (f PageFilter) Values() url.Values {
	f = f.Normalize()
	return url.Values{"page": {strconv.Itoa(f.Page)}, "page_size": {strconv.Itoa(f.PageSize)}}
}

// ActivityFilter restricts activities to a time window. Zero bounds are
// open.
type ActivityFilter struct {
	From time.Time
	To   time.Time
}

func (f ActivityFilter) Parts() []string {
	return []string{"from=" + formatBound(f.From), "to=" + formatBound(f.To)}
}

func (f ActivityFilter) Values() url.Values {
	v := url.Values{}
	if !f.From.IsZero() {
		v.Set("from", formatBound(f.From))
	}
	if !f.To.IsZero() {
		v.Set("to", formatBound(f.To))
	}
	return v
}

// PrayerFilter selects prayer requests by status; empty means all.
type PrayerFilter struct {
	Status string
}

func (f PrayerFilter) Parts() []string { return []string{"status=" + f.Status} }

func (f PrayerFilter) Values() url.Values {
	v := url.Values{}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	return v
}

// GenderFilter selects candidates of one gender; empty means any.
type GenderFilter struct {
	Gender string
}

func (f GenderFilter) Parts() []string { return []string{"gender=" + f.Gender} }

func (f GenderFilter) Values() url.Values {
	v := url.Values{}
	if f.Gender != "" {
		v.Set("gender", f.Gender)
	}
	return v
}

func normalizePage(page, size int) (int, int) {
	page = min(max(page, 1), MaxPage)
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
