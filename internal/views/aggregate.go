// Package views derives dashboards from report snapshots. Every dashboard is
// recomputed from the whole snapshot; nothing is updated incrementally.
package views

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/google/uuid"
)

type OfficerStats struct {
	Total      int `json:"total"`
	Pending    int `json:"menunggu"`
	InProgress int `json:"diproses"`
	Resolved   int `json:"selesai"`
	Rejected   int `json:"ditolak"`
}

// CountOfficer counts every report by status. Unset or unknown statuses
// count as Menunggu.
func CountOfficer(rs []models.Report) OfficerStats {
	var s OfficerStats
	for i := range rs {
		s.Total++
		switch models.NormalizeStatus(rs[i].Status) {
		case models.StatusPending:
			s.Pending++
		case models.StatusInProgress:
			s.InProgress++
		case models.StatusResolved:
			s.Resolved++
		case models.StatusRejected:
			s.Rejected++
		}
	}
	return s
}

type CitizenStats struct {
	Total      int `json:"total"`
	Pending    int `json:"menunggu"`
	InProgress int `json:"diproses"`
	Resolved   int `json:"selesai"`
}

// CountCitizen counts a citizen's own reports. Diproses is an exact status
// match, so rejected reports appear only in Total.
func CountCitizen(rs []models.Report) CitizenStats {
	var s CitizenStats
	for i := range rs {
		s.Total++
		switch models.NormalizeStatus(rs[i].Status) {
		case models.StatusPending:
			s.Pending++
		case models.StatusInProgress:
			s.InProgress++
		case models.StatusResolved:
			s.Resolved++
		}
	}
	return s
}

// Filter narrows the officer report table. Zero fields do not constrain.
// Year, Month and Date apply to the creation time, not the incident date.
type Filter struct {
	Search string        `json:"search"`
	Status models.Status `json:"status"`
	Year   int           `json:"year"`
	Month  int           `json:"month"`
	Date   string        `json:"date"`
}

var (
	errBadStatus = errors.New("status is not a known status")
	errBadYear   = errors.New("year must be a number")
	errBadMonth  = errors.New("month must be between 1 and 12")
	errBadDate   = errors.New("date must be formatted YYYY-MM-DD")
)

// ParseFilter builds a Filter from raw form values. "Semua" and "all" mean
// any status.
func ParseFilter(search, status, year, month, date string) (Filter, error) {
	f := Filter{Search: strings.TrimSpace(search)}

	status = strings.TrimSpace(status)
	if status != "" && !strings.EqualFold(status, "semua") && !strings.EqualFold(status, "all") {
		st, ok := models.ParseStatus(status)
		if !ok {
			return Filter{}, errBadStatus
		}
		f.Status = st
	}

	if year = strings.TrimSpace(year); year != "" {
		y, err := strconv.Atoi(year)
		if err != nil {
			return Filter{}, errBadYear
		}
		f.Year = y
	}

	if month = strings.TrimSpace(month); month != "" {
		m, err := strconv.Atoi(month)
		if err != nil || m < 1 || m > 12 {
			return Filter{}, errBadMonth
		}
		f.Month = m
	}

	if date = strings.TrimSpace(date); date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return Filter{}, errBadDate
		}
		f.Date = date
	}
	return f, nil
}

// Match reports whether r passes every set constraint. Creation times are
// read in loc, or UTC when loc is nil.
func (f Filter) Match(r *models.Report, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Title), q) &&
			!strings.Contains(strings.ToLower(r.SubmitterName), q) &&
			!strings.Contains(strings.ToLower(r.Location), q) {
			return false
		}
	}
	if f.Status != "" && models.NormalizeStatus(r.Status) != f.Status {
		return false
	}

	created := r.CreatedAt.In(loc)
	if f.Year != 0 && created.Year() != f.Year {
		return false
	}
	if f.Month != 0 && int(created.Month()) != f.Month {
		return false
	}
	if f.Date != "" && created.Format("2006-01-02") != f.Date {
		return false
	}
	return true
}

// Apply keeps the reports matching f, preserving order.
func Apply(rs []models.Report, f Filter, loc *time.Location) []models.Report {
	out := make([]models.Report, 0, len(rs))
	for i := range rs {
		if f.Match(&rs[i], loc) {
			out = append(out, rs[i])
		}
	}
	return out
}

// OfficerDashboard pairs the collection-wide counts with the filtered table.
// Both come from the same snapshot.
type OfficerDashboard struct {
	Stats   OfficerStats    `json:"stats"`
	Filter  Filter          `json:"filter"`
	Reports []models.Report `json:"reports"`
}

func BuildOfficer(rs []models.Report, f Filter, loc *time.Location) OfficerDashboard {
	return OfficerDashboard{Stats: CountOfficer(rs), Filter: f, Reports: Apply(rs, f, loc)}
}

type CitizenDashboard struct {
	Stats   CitizenStats    `json:"stats"`
	Reports []models.Report `json:"reports"`
}

// BuildCitizen derives a citizen's dashboard. The snapshot is expected to be
// scoped to owner already; anything else in it is dropped.
func BuildCitizen(owner uuid.UUID, rs []models.Report) CitizenDashboard {
	own := make([]models.Report, 0, len(rs))
	for i := range rs {
		if rs[i].SubmitterID == owner {
			own = append(own, rs[i])
		}
	}
	return CitizenDashboard{Stats: CountCitizen(own), Reports: own}
}
