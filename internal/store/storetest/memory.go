// Package storetest provides an in-memory report and profile store for tests.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/dpppa-bjm/pengaduan/internal/store"
	"github.com/google/uuid"
)

// Memory implements store.ReportStore and store.ProfileStore. Setting Err
// makes every operation fail with it.
type Memory struct {
	Broker *store.Broker

	mu       sync.Mutex
	Err      error
	reports  map[uuid.UUID]models.Report
	profiles map[uuid.UUID]models.Profile
	clock    time.Time
	lists    int
}

func NewMemory() *Memory {
	return &Memory{
		Broker:   store.NewBroker(),
		reports:  make(map[uuid.UUID]models.Report),
		profiles: make(map[uuid.UUID]models.Profile),
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// Put stores r as is, bypassing ID and timestamp assignment.
func (m *Memory) Put(r models.Report) {
	m.mu.Lock()
	m.reports[r.ID] = r
	m.mu.Unlock()
	m.Broker.NotifyLocal()
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}

// Lists counts List calls, including subscription reloads.
func (m *Memory) Lists() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists
}

func (m *Memory) Get(_ context.Context, id uuid.UUID) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.reports[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (m *Memory) Create(ctx context.Context, r *models.Report) error {
	m.mu.Lock()
	if m.Err != nil {
		m.mu.Unlock()
		return m.Err
	}
	m.clock = m.clock.Add(time.Minute)
	r.ID = uuid.New()
	r.CreatedAt = m.clock
	m.reports[r.ID] = *r
	m.mu.Unlock()
	m.Broker.Notify(ctx)
	return nil
}

func (m *Memory) Update(ctx context.Context, id uuid.UUID, p store.Patch) error {
	m.mu.Lock()
	if m.Err != nil {
		m.mu.Unlock()
		return m.Err
	}
	r, ok := m.reports[id]
	if !ok {
		m.mu.Unlock()
		return store.ErrNotFound
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Response != nil {
		text := *p.Response
		r.Response = &text
	}
	if p.RespondedAt != nil {
		at := *p.RespondedAt
		r.RespondedAt = &at
	}
	m.reports[id] = r
	m.mu.Unlock()
	m.Broker.Notify(ctx)
	return nil
}

func (m *Memory) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	if m.Err != nil {
		m.mu.Unlock()
		return m.Err
	}
	if _, ok := m.reports[id]; !ok {
		m.mu.Unlock()
		return store.ErrNotFound
	}
	delete(m.reports, id)
	m.mu.Unlock()
	m.Broker.Notify(ctx)
	return nil
}

func (m *Memory) List(_ context.Context, q store.Query) ([]models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.Report, 0, len(m.reports))
	for _, r := range m.reports {
		if q.Matches(&r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) Subscribe(ctx context.Context, q store.Query, fn func([]models.Report)) (store.Subscription, error) {
	return m.Broker.Watch(ctx, func(ctx context.Context) ([]models.Report, error) {
		return m.List(ctx, q)
	}, fn)
}

func (m *Memory) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) CreateProfile(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.profiles[p.ID] = *p
	return nil
}
