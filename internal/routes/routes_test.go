package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dpppa-bjm/pengaduan/internal/config"
	"github.com/dpppa-bjm/pengaduan/internal/database"
	"github.com/dpppa-bjm/pengaduan/internal/dto"
	"github.com/dpppa-bjm/pengaduan/internal/handlers"
	"github.com/dpppa-bjm/pengaduan/internal/identity"
	"github.com/dpppa-bjm/pengaduan/internal/services"
	"github.com/dpppa-bjm/pengaduan/internal/store/storetest"
	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) (*fiber.App, *storetest.Memory) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mem := storetest.NewMemory()
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
		TrackRateLimit:   20,
	}
	resolver := identity.NewResolver(mem, identity.Heuristic{})
	authService := services.NewAuthService(db, cfg, mem, resolver)
	reportService := services.NewReportService(mem, nil)

	app := fiber.New()
	Setup(app, cfg, resolver,
		handlers.NewAuthHandler(authService),
		handlers.NewReportHandler(reportService, time.UTC),
		handlers.NewTrackingHandler(services.NewTrackingService(mem)),
		handlers.NewHealthHandler(func() error { return nil }, mem.Broker),
		handlers.NewSessionHandler(authService, resolver, mem, time.UTC),
	)
	return app, mem
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func register(t *testing.T, app *fiber.App, email, name string) dto.AuthResponse {
	t.Helper()
	code, body := call(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "nama": name, "nik": "6371010101010001", "no_hp": "08123456789",
		"password": "rahasia1", "confirm": "rahasia1",
	})
	if code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", email, code, body)
	}
	var resp dto.AuthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func decode(t *testing.T, body []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
}

func TestReportLifecycleOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)
	citizen := register(t, app, "warga@x.org", "Warga")
	officer := register(t, app, "petugas.budi@x.org", "Budi")
	if officer.User.Role != "admin" || citizen.User.Role != "masyarakat" {
		t.Fatalf("roles = %q / %q", officer.User.Role, citizen.User.Role)
	}

	code, body := call(t, app, http.MethodGet, "/api/me", officer.AccessToken, nil)
	var me dto.MeResponse
	decode(t, body, &me)
	if code != http.StatusOK || me.Interface != "officer" {
		t.Fatalf("me = %d %s", code, body)
	}

	code, body = call(t, app, http.MethodPost, "/api/reports", citizen.AccessToken, map[string]string{
		"judul": "Kasus A", "kategori": "Penelantaran", "lokasi": "Banjarmasin", "tanggal": "2025-02-10",
	})
	if code != http.StatusCreated {
		t.Fatalf("submit: %d %s", code, body)
	}
	var submitted dto.SubmitReportResponse
	decode(t, body, &submitted)
	if !strings.Contains(submitted.Message, submitted.Token) {
		t.Errorf("message %q does not carry the token", submitted.Message)
	}
	if submitted.Report.IncidentDateDisplay != "10/02/2025" || submitted.Report.Status != "Menunggu" {
		t.Errorf("submitted report = %+v", submitted.Report)
	}

	if code, _ := call(t, app, http.MethodPost, "/api/reports", officer.AccessToken, map[string]string{"judul": "x", "tanggal": "2025-01-01"}); code != http.StatusForbidden {
		t.Errorf("officer submit = %d, want 403", code)
	}
	if code, _ := call(t, app, http.MethodGet, "/api/officer/reports", citizen.AccessToken, nil); code != http.StatusForbidden {
		t.Errorf("citizen officer list = %d, want 403", code)
	}

	statusPath := "/api/officer/reports/" + submitted.Token + "/status"
	if code, _ := call(t, app, http.MethodPut, statusPath, officer.AccessToken, map[string]interface{}{"status": "Diproses"}); code != http.StatusPreconditionRequired {
		t.Errorf("unconfirmed transition = %d, want 428", code)
	}
	if code, body := call(t, app, http.MethodPut, statusPath, officer.AccessToken, map[string]interface{}{"status": "Diproses", "confirm": true}); code != http.StatusOK {
		t.Fatalf("transition: %d %s", code, body)
	}

	respondPath := "/api/officer/reports/" + submitted.Token + "/response"
	if code, _ := call(t, app, http.MethodPost, respondPath, officer.AccessToken, map[string]string{"text": "  "}); code != http.StatusBadRequest {
		t.Errorf("blank response = %d, want 400", code)
	}
	if code, body := call(t, app, http.MethodPost, respondPath, officer.AccessToken, map[string]string{"text": "Sedang ditangani"}); code != http.StatusOK {
		t.Fatalf("respond: %d %s", code, body)
	}

	code, body = call(t, app, http.MethodGet, "/api/track/"+submitted.Token, "", nil)
	if code != http.StatusOK {
		t.Fatalf("track: %d %s", code, body)
	}
	var tracked dto.ReportResponse
	decode(t, body, &tracked)
	if tracked.Status != "Diproses" || tracked.Response == nil || *tracked.Response != "Sedang ditangani" || !tracked.HasResponse {
		t.Errorf("tracked = %+v", tracked)
	}

	code, body = call(t, app, http.MethodGet, "/api/reports/mine", citizen.AccessToken, nil)
	var mine dto.CitizenDashboardResponse
	decode(t, body, &mine)
	if code != http.StatusOK || mine.Stats.Total != 1 || mine.Stats.InProgress != 1 {
		t.Errorf("mine = %d %s", code, body)
	}

	code, body = call(t, app, http.MethodGet, "/api/officer/reports?status=Selesai", officer.AccessToken, nil)
	var dash dto.OfficerDashboardResponse
	decode(t, body, &dash)
	if code != http.StatusOK || dash.Stats.Total != 1 || len(dash.Reports) != 0 {
		t.Errorf("filtered officer list = %d %s", code, body)
	}
	if code, _ := call(t, app, http.MethodGet, "/api/officer/reports?month=13", officer.AccessToken, nil); code != http.StatusBadRequest {
		t.Errorf("bad month = %d, want 400", code)
	}

	deletePath := "/api/officer/reports/" + submitted.Token
	if code, _ := call(t, app, http.MethodDelete, deletePath, officer.AccessToken, nil); code != http.StatusPreconditionRequired {
		t.Errorf("unconfirmed delete = %d, want 428", code)
	}
	if code, body := call(t, app, http.MethodDelete, deletePath+"?confirm=true", officer.AccessToken, nil); code != http.StatusOK {
		t.Fatalf("delete: %d %s", code, body)
	}
	if code, _ := call(t, app, http.MethodGet, "/api/track/"+submitted.Token, "", nil); code != http.StatusNotFound {
		t.Errorf("track after delete = %d, want 404", code)
	}
}

func TestPublicAndUnauthorizedRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	if code, _ := call(t, app, http.MethodGet, "/api/me", "", nil); code != http.StatusUnauthorized {
		t.Errorf("me without token = %d, want 401", code)
	}
	if code, _ := call(t, app, http.MethodGet, "/api/track/not-a-token", "", nil); code != http.StatusNotFound {
		t.Errorf("malformed token = %d, want 404", code)
	}

	code, body := call(t, app, http.MethodGet, "/api/meta", "", nil)
	var meta dto.MetaResponse
	decode(t, body, &meta)
	if code != http.StatusOK || len(meta.Categories) != 5 || len(meta.Statuses) != 4 {
		t.Errorf("meta = %d %s", code, body)
	}

	code, body = call(t, app, http.MethodGet, "/api/health", "", nil)
	var health dto.HealthResponse
	decode(t, body, &health)
	if code != http.StatusOK || health.DB != "ok" || health.Subscribers != 0 {
		t.Errorf("health = %d %s", code, body)
	}

	if code, _ := call(t, app, http.MethodGet, "/ws/session", "", nil); code != http.StatusUpgradeRequired {
		t.Errorf("plain GET on socket = %d, want 426", code)
	}
}

func TestRegisterErrors(t *testing.T) {
	app, _ := newTestApp(t)
	register(t, app, "warga@x.org", "Warga")

	cases := []struct {
		name string
		body map[string]string
		want int
	}{
		{"duplicate", map[string]string{"email": "WARGA@x.org", "nama": "W", "nik": "1", "no_hp": "1", "password": "rahasia1", "confirm": "rahasia1"}, http.StatusConflict},
		{"mismatch", map[string]string{"email": "b@x.org", "nama": "B", "nik": "1", "no_hp": "1", "password": "rahasia1", "confirm": "rahasia2"}, http.StatusBadRequest},
		{"weak", map[string]string{"email": "c@x.org", "nama": "C", "nik": "1", "no_hp": "1", "password": "123", "confirm": "123"}, http.StatusBadRequest},
		{"nik", map[string]string{"email": "d@x.org", "nama": "D", "nik": "12a", "no_hp": "1", "password": "rahasia1", "confirm": "rahasia1"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code, body := call(t, app, http.MethodPost, "/api/auth/register", "", tc.body); code != tc.want {
				t.Errorf("code = %d, want %d (%s)", code, tc.want, body)
			}
		})
	}

	if code, _ := call(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "warga@x.org", "password": "salah"}); code != http.StatusUnauthorized {
		t.Errorf("bad login = %d, want 401", code)
	}
}

func TestStoreFailureSurfacesMessage(t *testing.T) {
	app, mem := newTestApp(t)
	citizen := register(t, app, "warga@x.org", "Warga")

	mem.Fail(errors.New("quota exceeded"))
	code, body := call(t, app, http.MethodPost, "/api/reports", citizen.AccessToken, map[string]string{
		"judul": "Kasus", "tanggal": "2025-02-10",
	})
	var resp dto.ErrorResponse
	decode(t, body, &resp)
	if code != http.StatusBadGateway || resp.Message != "quota exceeded" {
		t.Errorf("submit during outage = %d %s", code, body)
	}
}
