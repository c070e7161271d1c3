package handlers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dpppa-bjm/pengaduan/internal/dto"
	"github.com/dpppa-bjm/pengaduan/internal/identity"
	"github.com/dpppa-bjm/pengaduan/internal/services"
	"github.com/dpppa-bjm/pengaduan/internal/session"
	"github.com/dpppa-bjm/pengaduan/internal/store"
	"github.com/dpppa-bjm/pengaduan/internal/views"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

var errUnknownCommand = errors.New("unknown command")

// SessionHandler runs one session router per WebSocket connection and pushes
// its state and live dashboards to the client.
type SessionHandler struct {
	auth     *services.AuthService
	resolver *identity.Resolver
	reports  store.ReportStore
	location *time.Location
}

func NewSessionHandler(auth *services.AuthService, resolver *identity.Resolver, reports store.ReportStore, location *time.Location) *SessionHandler {
	return &SessionHandler{auth: auth, resolver: resolver, reports: reports, location: location}
}

// Upgrade rejects plain HTTP requests and hands the optional ?token= to the
// socket.
func (h *SessionHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals("token", c.Query("token"))
	return c.Next()
}

func (h *SessionHandler) Serve() fiber.Handler {
	return websocket.New(h.serve)
}

// socketWriter serializes writes from the read loop and from subscription
// callbacks.
type socketWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *socketWriter) send(msg dto.SessionMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteJSON(msg); err != nil {
		slog.Debug("session write failed", "type", msg.Type, "error", err)
	}
}

// fail reports err to the client. Errors with no HTTP mapping are session
// errors and are shown as they are.
func (w *socketWriter) fail(err error) {
	code, message := statusFor(err)
	if code == fiber.StatusInternalServerError {
		message = err.Error()
	}
	w.send(dto.SessionMessage{Type: "error", Message: message})
}

func (h *SessionHandler) serve(conn *websocket.Conn) {
	out := &socketWriter{conn: conn}
	router := h.newRouter(out)
	defer router.Close()

	ctx := context.Background()
	var initial *identity.Principal
	if token, _ := conn.Locals("token").(string); token != "" {
		p, err := h.auth.VerifyAccessToken(token)
		if err != nil {
			out.fail(err)
		} else {
			initial = &p
		}
	}
	if err := router.OnSessionChange(ctx, initial); err != nil {
		out.fail(err)
	}

	for {
		var cmd dto.SessionCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		if err := h.dispatch(ctx, router, cmd); err != nil {
			out.fail(err)
		}
	}
}

func (h *SessionHandler) newRouter(out *socketWriter) *session.Router {
	mounter := &session.LiveMounter{
		Reports:  h.reports,
		Location: h.location,
		Officer: func(d views.OfficerDashboard) {
			out.send(dto.SessionMessage{Type: "officer_dashboard", Payload: dto.NewOfficerDashboard(d)})
		},
		Citizen: func(d views.CitizenDashboard) {
			out.send(dto.SessionMessage{Type: "citizen_dashboard", Payload: dto.NewCitizenDashboard(d)})
		},
	}
	return session.NewRouter(h.resolver, mounter, func(s session.Snapshot) {
		out.send(dto.SessionMessage{Type: "session", Payload: s})
	})
}

func (h *SessionHandler) dispatch(ctx context.Context, router *session.Router, cmd dto.SessionCommand) error {
	switch cmd.Type {
	case "sign_in":
		p, err := h.auth.VerifyAccessToken(cmd.Token)
		if err != nil {
			return err
		}
		return router.OnSessionChange(ctx, &p)
	case "sign_out":
		return router.OnSessionChange(ctx, nil)
	case "show_register":
		return router.ShowRegister()
	case "show_login":
		return router.ShowLogin()
	case "filter":
		var form dto.OfficerFilterForm
		if cmd.Filter != nil {
			form = *cmd.Filter
		}
		f, err := views.ParseFilter(form.Search, form.Status, form.Year, form.Month, form.Date)
		if err != nil {
			return &services.ValidationError{Field: "filter", Message: err.Error()}
		}
		return router.SetFilter(f)
	default:
		return errUnknownCommand
	}
}
