package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dpppa-bjm/pengaduan/internal/identity"
	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/dpppa-bjm/pengaduan/internal/store"
	"github.com/google/uuid"
)

// TransitionPolicy decides whether a report may move between statuses. Every
// status change an officer requests goes through it.
type TransitionPolicy interface {
	Allow(from, to models.Status) error
}

// PermissiveTransitions allows any status to move to any other.
type PermissiveTransitions struct{}

func (PermissiveTransitions) Allow(_, _ models.Status) error { return nil }

// TerminalTransitions treats Selesai and Ditolak as final.
type TerminalTransitions struct{}

func (TerminalTransitions) Allow(from, to models.Status) error {
	from = models.NormalizeStatus(from)
	if from == to {
		return nil
	}
	if from == models.StatusResolved || from == models.StatusRejected {
		return ErrTransitionNotAllowed
	}
	return nil
}

// Draft is what a citizen fills in on the report form.
type Draft struct {
	Title        string `validate:"required"`
	Category     string
	Location     string
	Chronology   string
	IncidentDate string
}

type ReportService struct {
	reports store.ReportStore
	policy  TransitionPolicy
	now     func() time.Time
}

func NewReportService(reports store.ReportStore, policy TransitionPolicy) *ReportService {
	if policy == nil {
		policy = PermissiveTransitions{}
	}
	return &ReportService{reports: reports, policy: policy, now: time.Now}
}

// Submit files a new report owned by the caller. The returned report's ID is
// the tracking token.
func (s *ReportService) Submit(ctx context.Context, owner identity.User, d Draft) (*models.Report, error) {
	if strings.TrimSpace(d.IncidentDate) == "" {
		return nil, invalid("incident_date", "is required")
	}
	if _, err := time.Parse(models.IncidentDateLayout, strings.TrimSpace(d.IncidentDate)); err != nil {
		return nil, invalid("incident_date", "must be formatted YYYY-MM-DD")
	}
	if err := validateStruct(d); err != nil {
		return nil, err
	}

	category := models.CategoryPhysical
	if strings.TrimSpace(d.Category) != "" {
		c, ok := models.ParseCategory(d.Category)
		if !ok {
			return nil, invalid("category", "is not a known category")
		}
		category = c
	}

	name := owner.Name
	if name == "" {
		name = owner.Email
	}

	r := &models.Report{
		Title:          strings.TrimSpace(d.Title),
		Category:       category,
		Location:       d.Location,
		Chronology:     d.Chronology,
		IncidentDate:   strings.TrimSpace(d.IncidentDate),
		SubmitterID:    owner.ID,
		SubmitterName:  name,
		SubmitterEmail: owner.Email,
		Status:         models.StatusPending,
	}
	if err := s.reports.Create(ctx, r); err != nil {
		slog.Error("report submit failed", "user_id", owner.ID.String(), "action", "submit", "error", err)
		return nil, storeErr("submit", err)
	}
	slog.Info("report submitted", "report_id", r.ID.String(), "user_id", owner.ID.String())
	return r, nil
}

// Transition overwrites the report's status. The last writer wins.
func (s *ReportService) Transition(ctx context.Context, actor identity.User, id uuid.UUID, to models.Status, confirmed bool) error {
	if !actor.IsOfficer() {
		return ErrOfficerOnly
	}
	target, ok := models.ParseStatus(string(to))
	if !ok {
		return invalid("status", "is not a known status")
	}
	if !confirmed {
		return ErrConfirmationRequired
	}

	current, err := s.reports.Get(ctx, id)
	if err != nil {
		return s.mapErr("transition", id, err)
	}
	if err := s.policy.Allow(current.Status, target); err != nil {
		return err
	}
	if err := s.reports.Update(ctx, id, store.Patch{Status: &target}); err != nil {
		return s.mapErr("transition", id, err)
	}
	slog.Info("report status changed", "report_id", id.String(), "user_id", actor.ID.String(), "status", string(target))
	return nil
}

// Respond attaches an officer response. Responding always puts the report
// back to Diproses, whatever its status was.
func (s *ReportService) Respond(ctx context.Context, actor identity.User, id uuid.UUID, text string) error {
	if !actor.IsOfficer() {
		return ErrOfficerOnly
	}
	if strings.TrimSpace(text) == "" {
		return invalid("text", "response must not be empty")
	}

	status := models.StatusInProgress
	at := s.now().UTC()
	if err := s.reports.Update(ctx, id, store.Patch{Status: &status, Response: &text, RespondedAt: &at}); err != nil {
		return s.mapErr("respond", id, err)
	}
	slog.Info("report response sent", "report_id", id.String(), "user_id", actor.ID.String())
	return nil
}

// Delete removes the report permanently.
func (s *ReportService) Delete(ctx context.Context, actor identity.User, id uuid.UUID, confirmed bool) error {
	if !actor.IsOfficer() {
		return ErrOfficerOnly
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		return s.mapErr("delete", id, err)
	}
	slog.Info("report deleted", "report_id", id.String(), "user_id", actor.ID.String())
	return nil
}

// Owned lists the owner's reports, newest first.
func (s *ReportService) Owned(ctx context.Context, owner identity.User) ([]models.Report, error) {
	rs, err := s.reports.List(ctx, store.ByOwner(owner.ID))
	if err != nil {
		slog.Error("report list failed", "user_id", owner.ID.String(), "action", "list_owned", "error", err)
		return nil, storeErr("list", err)
	}
	return rs, nil
}

// All lists every report, newest first.
func (s *ReportService) All(ctx context.Context, actor identity.User) ([]models.Report, error) {
	if !actor.IsOfficer() {
		return nil, ErrOfficerOnly
	}
	rs, err := s.reports.List(ctx, store.Query{})
	if err != nil {
		slog.Error("report list failed", "user_id", actor.ID.String(), "action", "list_all", "error", err)
		return nil, storeErr("list", err)
	}
	return rs, nil
}

func (s *ReportService) mapErr(op string, id uuid.UUID, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrReportNotFound
	}
	slog.Error("report store operation failed", "report_id", id.String(), "action", op, "error", err)
	return storeErr(op, err)
}
