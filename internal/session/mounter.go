package session

import (
	"context"
	"time"

	"github.com/dpppa-bjm/pengaduan/internal/identity"
	"github.com/dpppa-bjm/pengaduan/internal/store"
	"github.com/dpppa-bjm/pengaduan/internal/views"
)

// LiveMounter mounts the live dashboards over a report store. Each mount
// opens exactly one subscription.
type LiveMounter struct {
	Reports  store.ReportStore
	Location *time.Location
	Officer  func(views.OfficerDashboard)
	Citizen  func(views.CitizenDashboard)
}

func (m *LiveMounter) MountOfficer(ctx context.Context, _ identity.User) (View, error) {
	v, err := views.MountOfficer(ctx, m.Reports, views.Filter{}, m.Location, m.Officer)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (m *LiveMounter) MountCitizen(ctx context.Context, u identity.User) (View, error) {
	v, err := views.MountCitizen(ctx, m.Reports, u.ID, m.Citizen)
	if err != nil {
		return nil, err
	}
	return v, nil
}
