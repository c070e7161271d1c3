package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "Menunggu"
	StatusInProgress Status = "Diproses"
	StatusResolved   Status = "Selesai"
	StatusRejected   Status = "Ditolak"
)

var Statuses = []Status{StatusPending, StatusInProgress, StatusResolved, StatusRejected}

// ParseStatus matches s case-insensitively against the known statuses.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// NormalizeStatus is the display/counting form of a stored status: unset or
// unrecognized values read as Pending.
func NormalizeStatus(s Status) Status {
	if st, ok := ParseStatus(string(s)); ok {
		return st
	}
	return StatusPending
}

type Category string

const (
	CategoryPhysical      Category = "Kekerasan Fisik"
	CategorySexual        Category = "Kekerasan Seksual"
	CategoryPsychological Category = "Kekerasan Psikologis"
	CategoryNeglect       Category = "Penelantaran"
	CategoryOther         Category = "Lainnya"
)

var Categories = []Category{CategoryPhysical, CategorySexual, CategoryPsychological, CategoryNeglect, CategoryOther}

// ParseCategory accepts the category label in any casing. "Kekerasan Psikis"
// is the label an earlier form used for psychological violence.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "Kekerasan Psikis") {
		return CategoryPsychological, true
	}
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// IncidentDateLayout is the wire and storage form of Report.IncidentDate.
const IncidentDateLayout = "2006-01-02"

// Report is a citizen complaint. Its ID doubles as the tracking token.
type Report struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string     `gorm:"not null;size:255" json:"title"`
	Category       Category   `gorm:"not null;size:50" json:"category"`
	Location       string     `gorm:"size:500" json:"location"`
	Chronology     string     `gorm:"type:text" json:"chronology"`
	IncidentDate   string     `gorm:"not null;size:10" json:"incident_date"`
	SubmitterID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"submitter_id"`
	SubmitterName  string     `gorm:"size:255" json:"submitter_name"`
	SubmitterEmail string     `gorm:"size:255" json:"submitter_email"`
	Status         Status     `gorm:"size:20;index" json:"status"`
	Response       *string    `gorm:"type:text" json:"response,omitempty"`
	RespondedAt    *time.Time `json:"responded_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;index;autoCreateTime:false" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IncidentDateDisplay renders the incident date as DD/MM/YYYY.
func (r *Report) IncidentDateDisplay() string {
	t, err := time.Parse(IncidentDateLayout, r.IncidentDate)
	if err != nil {
		return r.IncidentDate
	}
	return t.Format("02/01/2006")
}

func (r *Report) HasResponse() bool {
	return r.Response != nil && strings.TrimSpace(*r.Response) != ""
}
