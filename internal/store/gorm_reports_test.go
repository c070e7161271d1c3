package store

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Report{}, &models.Profile{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newReport(owner uuid.UUID, title string) *models.Report {
	return &models.Report{
		Title:        title,
		Category:     models.CategoryOther,
		IncidentDate: "2025-02-10",
		SubmitterID:  owner,
		Status:       models.StatusPending,
	}
}

func TestCreateAssignsIDAndMonotonicTimestamp(t *testing.T) {
	s := NewGormReportStore(openTestDB(t), NewBroker())
	fixed := time.Date(2025, 2, 10, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	ctx := context.Background()
	owner := uuid.New()
	a, b := newReport(owner, "a"), newReport(owner, "b")
	if err := s.Create(ctx, a); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := s.Create(ctx, b); err != nil {
		t.Fatalf("create b: %v", err)
	}

	if a.ID == uuid.Nil || a.ID == b.ID {
		t.Fatalf("ids not assigned uniquely: %s %s", a.ID, b.ID)
	}
	if !b.CreatedAt.After(a.CreatedAt) {
		t.Errorf("created_at not monotonic: %v then %v", a.CreatedAt, b.CreatedAt)
	}
}

func TestListOrderAndOwnerScope(t *testing.T) {
	s := NewGormReportStore(openTestDB(t), NewBroker())
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	for _, r := range []*models.Report{newReport(alice, "first"), newReport(bob, "second"), newReport(alice, "third")} {
		if err := s.Create(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := s.List(ctx, Query{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].Title != "third" || all[2].Title != "first" {
		t.Errorf("unexpected order: %+v", titles(all))
	}

	mine, err := s.List(ctx, ByOwner(alice))
	if err != nil {
		t.Fatalf("list owner: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 reports for owner, got %d", len(mine))
	}
	for _, r := range mine {
		if r.SubmitterID != alice {
			t.Errorf("report %q leaked into owner query", r.Title)
		}
	}
}

func TestUpdateMergesFields(t *testing.T) {
	s := NewGormReportStore(openTestDB(t), NewBroker())
	ctx := context.Background()
	r := newReport(uuid.New(), "kasus")
	if err := s.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	status := models.StatusResolved
	if err := s.Update(ctx, r.ID, Patch{Status: &status}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.StatusResolved || got.Title != "kasus" || got.Response != nil {
		t.Errorf("patch did not merge: %+v", got)
	}
	if !got.CreatedAt.Equal(r.CreatedAt) || got.SubmitterID != r.SubmitterID {
		t.Errorf("immutable fields changed")
	}
}

func TestMissingRecordsAreNotFound(t *testing.T) {
	s := NewGormReportStore(openTestDB(t), NewBroker())
	ctx := context.Background()
	id := uuid.New()
	status := models.StatusRejected

	if _, err := s.Get(ctx, id); err != ErrNotFound {
		t.Errorf("Get: got %v, want ErrNotFound", err)
	}
	if err := s.Update(ctx, id, Patch{Status: &status}); err != ErrNotFound {
		t.Errorf("Update: got %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, id); err != ErrNotFound {
		t.Errorf("Delete: got %v, want ErrNotFound", err)
	}
}

func TestSubscribeDeliversSnapshotsUntilClosed(t *testing.T) {
	broker := NewBroker()
	s := NewGormReportStore(openTestDB(t), broker)
	ctx := context.Background()
	owner := uuid.New()

	var mu sync.Mutex
	var snapshots [][]models.Report
	got := make(chan struct{}, 10)
	sub, err := s.Subscribe(ctx, ByOwner(owner), func(rs []models.Report) {
		mu.Lock()
		snapshots = append(snapshots, rs)
		mu.Unlock()
		got <- struct{}{}
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	<-got
	if broker.Subscribers() != 1 {
		t.Fatalf("subscribers = %d, want 1", broker.Subscribers())
	}

	if err := s.Create(ctx, newReport(owner, "baru")); err != nil {
		t.Fatalf("create: %v", err)
	}
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after create")
	}

	sub.Close()
	sub.Close()
	if broker.Subscribers() != 0 {
		t.Fatalf("subscribers after close = %d", broker.Subscribers())
	}

	mu.Lock()
	n := len(snapshots)
	last := snapshots[n-1]
	mu.Unlock()
	if len(last) != 1 || last[0].Title != "baru" {
		t.Errorf("last snapshot = %v", titles(last))
	}

	if err := s.Create(ctx, newReport(owner, "setelah")); err != nil {
		t.Fatalf("create: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(snapshots) != n {
		t.Errorf("callback ran after Close: %d snapshots, want %d", len(snapshots), n)
	}
}

func TestProfileStore(t *testing.T) {
	s := NewGormProfileStore(openTestDB(t))
	ctx := context.Background()
	id := uuid.New()

	if _, err := s.GetProfile(ctx, id); err != ErrNotFound {
		t.Fatalf("missing profile: got %v", err)
	}
	p := &models.Profile{ID: id, Email: "warga@x.org", Name: "Warga", Role: models.RoleCitizen}
	if err := s.CreateProfile(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.GetProfile(ctx, id)
	if err != nil || got.Name != "Warga" {
		t.Fatalf("get: %+v, %v", got, err)
	}
}

func TestRedisRelay(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping relay test: REDIS_URL not set.")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := NewRedis(ctx, url)
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	defer client.Close()

	local := NewBroker()
	remote := NewRedisRelay(client, NewBroker())
	relay := NewRedisRelay(client, local)
	go relay.Run(ctx)
	time.Sleep(100 * time.Millisecond)

	woke := make(chan struct{}, 4)
	sub, err := local.Watch(ctx, func(context.Context) ([]models.Report, error) { return nil, nil }, func([]models.Report) {
		woke <- struct{}{}
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer sub.Close()
	<-woke

	if err := remote.Publish(ctx); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case <-woke:
	case <-time.After(2 * time.Second):
		t.Fatal("notice from another instance was not relayed")
	}
}

func titles(rs []models.Report) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Title
	}
	return out
}
