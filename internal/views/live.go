package views

import (
	"context"
	"sync"
	"time"

	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/dpppa-bjm/pengaduan/internal/store"
	"github.com/google/uuid"
)

// LiveView owns one store subscription for the lifetime of a screen and
// re-renders on every snapshot. Close releases the subscription; after it
// returns nothing is rendered again.
type LiveView struct {
	mu         sync.Mutex
	snapshot   []models.Report
	render     func([]models.Report)
	sub        store.Subscription
	closed     bool
	recomputes int
}

func mount(ctx context.Context, st store.ReportStore, q store.Query, v *LiveView) error {
	sub, err := st.Subscribe(ctx, q, v.onSnapshot)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.sub = sub
	v.mu.Unlock()
	return nil
}

func (v *LiveView) onSnapshot(rs []models.Report) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.snapshot = rs
	v.recomputes++
	v.render(rs)
}

// rerender applies change and renders the last snapshot again.
func (v *LiveView) rerender(change func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	change()
	if v.closed || v.snapshot == nil {
		return
	}
	v.recomputes++
	v.render(v.snapshot)
}

// Recomputes counts renders so far.
func (v *LiveView) Recomputes() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.recomputes
}

func (v *LiveView) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	sub := v.sub
	v.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

// OfficerView is the officer dashboard over the whole collection.
type OfficerView struct {
	*LiveView
	filter Filter
}

func MountOfficer(ctx context.Context, st store.ReportStore, f Filter, loc *time.Location, sink func(OfficerDashboard)) (*OfficerView, error) {
	v := &OfficerView{LiveView: &LiveView{}, filter: f}
	v.render = func(rs []models.Report) { sink(BuildOfficer(rs, v.filter, loc)) }
	if err := mount(ctx, st, store.Query{}, v.LiveView); err != nil {
		return nil, err
	}
	return v, nil
}

// SetFilter re-renders the table from the last snapshot. The subscription
// is not touched.
func (v *OfficerView) SetFilter(f Filter) {
	v.rerender(func() { v.filter = f })
}

// CitizenView is one citizen's own reports.
type CitizenView struct {
	*LiveView
}

func MountCitizen(ctx context.Context, st store.ReportStore, owner uuid.UUID, sink func(CitizenDashboard)) (*CitizenView, error) {
	v := &CitizenView{LiveView: &LiveView{}}
	v.render = func(rs []models.Report) { sink(BuildCitizen(owner, rs)) }
	if err := mount(ctx, st, store.ByOwner(owner), v.LiveView); err != nil {
		return nil, err
	}
	return v, nil
}
