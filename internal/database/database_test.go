package database

import (
	"path/filepath"
	"testing"

	"github.com/dpppa-bjm/pengaduan/internal/config"
	"github.com/dpppa-bjm/pengaduan/internal/models"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "sub", "test.db")}
	if err := Connect(cfg); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := DB.DB(); err == nil {
			sqlDB.Close()
		}
		DB = nil
	})

	if err := MigrateShared(); err != nil {
		t.Fatalf("MigrateShared: %v", err)
	}
	if err := Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	for _, m := range []interface{}{&models.User{}, &models.Profile{}, &models.Report{}, &models.RefreshToken{}, &models.SystemLog{}} {
		if !DB.Migrator().HasTable(m) {
			t.Errorf("table for %T missing", m)
		}
	}
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	if err := Connect(&config.Config{DBDriver: "mysql"}); err == nil {
		t.Fatal("expected error")
	}
}
