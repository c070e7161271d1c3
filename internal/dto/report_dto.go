package dto

import (
	"time"

	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/dpppa-bjm/pengaduan/internal/views"
	"github.com/google/uuid"
)

type SubmitReportRequest struct {
	Title        string `json:"judul"`
	Category     string `json:"kategori"`
	Location     string `json:"lokasi"`
	Chronology   string `json:"kronologi"`
	IncidentDate string `json:"tanggal"`
}

type SubmitReportResponse struct {
	Token   string         `json:"token"`
	Message string         `json:"message"`
	Report  ReportResponse `json:"report"`
}

type TransitionRequest struct {
	Status  string `json:"status"`
	Confirm bool   `json:"confirm"`
}

type RespondRequest struct {
	Text string `json:"text"`
}

type ReportResponse struct {
	ID                  uuid.UUID       `json:"id"`
	Title               string          `json:"title"`
	Category            models.Category `json:"category"`
	Location            string          `json:"location"`
	Chronology          string          `json:"chronology"`
	IncidentDate        string          `json:"incident_date"`
	IncidentDateDisplay string          `json:"incident_date_display"`
	SubmitterID         uuid.UUID       `json:"submitter_id"`
	SubmitterName       string          `json:"submitter_name"`
	SubmitterEmail      string          `json:"submitter_email"`
	Status              models.Status   `json:"status"`
	Response            *string         `json:"response,omitempty"`
	RespondedAt         *time.Time      `json:"responded_at,omitempty"`
	HasResponse         bool            `json:"has_response"`
	CreatedAt           time.Time       `json:"created_at"`
}

func NewReportResponse(r *models.Report) ReportResponse {
	return ReportResponse{
		ID:                  r.ID,
		Title:               r.Title,
		Category:            r.Category,
		Location:            r.Location,
		Chronology:          r.Chronology,
		IncidentDate:        r.IncidentDate,
		IncidentDateDisplay: r.IncidentDateDisplay(),
		SubmitterID:         r.SubmitterID,
		SubmitterName:       r.SubmitterName,
		SubmitterEmail:      r.SubmitterEmail,
		Status:              models.NormalizeStatus(r.Status),
		Response:            r.Response,
		RespondedAt:         r.RespondedAt,
		HasResponse:         r.HasResponse(),
		CreatedAt:           r.CreatedAt,
	}
}

func NewReportList(rs []models.Report) []ReportResponse {
	out := make([]ReportResponse, len(rs))
	for i := range rs {
		out[i] = NewReportResponse(&rs[i])
	}
	return out
}

type MetaResponse struct {
	Categories []models.Category `json:"categories"`
	Statuses   []models.Status   `json:"statuses"`
}

type OfficerDashboardResponse struct {
	Stats   views.OfficerStats `json:"stats"`
	Filter  views.Filter       `json:"filter"`
	Reports []ReportResponse   `json:"reports"`
}

func NewOfficerDashboard(d views.OfficerDashboard) OfficerDashboardResponse {
	return OfficerDashboardResponse{Stats: d.Stats, Filter: d.Filter, Reports: NewReportList(d.Reports)}
}

type CitizenDashboardResponse struct {
	Stats   views.CitizenStats `json:"stats"`
	Reports []ReportResponse   `json:"reports"`
}

func NewCitizenDashboard(d views.CitizenDashboard) CitizenDashboardResponse {
	return CitizenDashboardResponse{Stats: d.Stats, Reports: NewReportList(d.Reports)}
}

// SessionMessage is what the server pushes over the session socket.
type SessionMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	Message string      `json:"message,omitempty"`
}

// SessionCommand is what the client sends over the session socket.
type SessionCommand struct {
	Type   string             `json:"type"`
	Token  string             `json:"token,omitempty"`
	Filter *OfficerFilterForm `json:"filter,omitempty"`
}

// OfficerFilterForm carries the officer table filters as entered.
type OfficerFilterForm struct {
	Search string `json:"search" query:"search"`
	Status string `json:"status" query:"status"`
	Year   string `json:"year" query:"year"`
	Month  string `json:"month" query:"month"`
	Date   string `json:"date" query:"date"`
}
