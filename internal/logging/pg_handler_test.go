package logging

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.AutoMigrate(&models.SystemLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestPGHandlerStoresErrorRecords(t *testing.T) {
	db := openTestDB(t)
	h := newPGHandler(db, time.Hour)
	log := slog.New(h).With("user_id", "u-1")

	log.Info("ignored")
	log.Error("status update failed", "report_id", "r-1", "action", "transition", "error", errors.New("boom"), "extra_key", 7)
	h.Stop()
	h.Stop()

	var rows []models.SystemLog
	if err := db.Find(&rows).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	got := rows[0]
	if got.Message != "status update failed" || got.Level != "ERROR" {
		t.Errorf("row = %+v", got)
	}
	if got.UserID == nil || *got.UserID != "u-1" {
		t.Errorf("user_id from WithAttrs not stored: %v", got.UserID)
	}
	if got.ReportID == nil || *got.ReportID != "r-1" {
		t.Errorf("report_id = %v", got.ReportID)
	}
	if got.Action != "transition" || got.Error != "boom" {
		t.Errorf("action/error = %q/%q", got.Action, got.Error)
	}
	if string(got.Extra) != `{"extra_key":7}` {
		t.Errorf("extra = %s", got.Extra)
	}
}

func TestPurgeDeletesOldLogs(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()
	old := models.SystemLog{ID: uuid.New(), Timestamp: now.Add(-48 * time.Hour), Level: "ERROR", Extra: datatypes.JSON("{}")}
	fresh := models.SystemLog{ID: uuid.New(), Timestamp: now, Level: "ERROR", Extra: datatypes.JSON("{}")}
	if err := db.Create(&[]models.SystemLog{old, fresh}).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	if n := purge(db, now.Add(-24*time.Hour)); n != 1 {
		t.Errorf("purged %d, want 1", n)
	}
	var count int64
	db.Model(&models.SystemLog{}).Count(&count)
	if count != 1 {
		t.Errorf("remaining = %d, want 1", count)
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("down") }

type countingHandler struct {
	slog.Handler
	n *int
}

func (c countingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (c countingHandler) Handle(context.Context, slog.Record) error {
	*c.n++
	return nil
}

func TestMultiHandlerContinuesPastFailure(t *testing.T) {
	var n int
	m := NewMultiHandler(failingHandler{}, countingHandler{n: &n})
	err := m.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelError, "x", 0))
	if err == nil {
		t.Error("expected joined error")
	}
	if n != 1 {
		t.Errorf("second handler ran %d times, want 1", n)
	}
}
