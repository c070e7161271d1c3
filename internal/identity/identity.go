// Package identity turns an authenticated principal into an application user
// with a role.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/dpppa-bjm/pengaduan/internal/store"
	"github.com/google/uuid"
)

// Principal is what the identity provider knows about a signed-in caller.
type Principal struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
}

// User is a resolved application user.
type User struct {
	ID    uuid.UUID   `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  models.Role `json:"role"`
}

func (u User) IsOfficer() bool { return u.Role == models.RoleOfficer }

const (
	officerPlaceholder = "Petugas"
	citizenPlaceholder = "User Baru"
)

// DefaultKeywords mark an email address as belonging to an officer.
var DefaultKeywords = []string{"admin", "petugas"}

// Heuristic assigns a role from an email address alone. It is the single
// place that rule lives; registration and session resolution both use it.
type Heuristic struct {
	Keywords []string
	// Emails are always officers, regardless of keywords.
	Emails []string
}

func (h Heuristic) Role(email string) models.Role {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return models.RoleCitizen
	}
	for _, e := range h.Emails {
		if strings.EqualFold(e, email) {
			return models.RoleOfficer
		}
	}
	keywords := h.Keywords
	if keywords == nil {
		keywords = DefaultKeywords
	}
	for _, k := range keywords {
		if k != "" && strings.Contains(email, strings.ToLower(k)) {
			return models.RoleOfficer
		}
	}
	return models.RoleCitizen
}

// Resolver looks up the stored profile for a principal and falls back to the
// heuristic when there is none.
type Resolver struct {
	profiles  store.ProfileStore
	heuristic Heuristic
}

func NewResolver(profiles store.ProfileStore, heuristic Heuristic) *Resolver {
	return &Resolver{profiles: profiles, heuristic: heuristic}
}

func (r *Resolver) Heuristic() Heuristic { return r.heuristic }

// Resolve never fails. A profile found in the store wins verbatim; a missing
// profile (including one lost to a half-finished registration) gets the
// heuristic role; a lookup error degrades to a citizen session.
func (r *Resolver) Resolve(ctx context.Context, p Principal) User {
	profile, err := r.profiles.GetProfile(ctx, p.ID)
	switch {
	case err == nil:
		return User{ID: p.ID, Email: p.Email, Name: profile.Name, Role: models.ParseRole(string(profile.Role))}
	case errors.Is(err, store.ErrNotFound):
		role := r.heuristic.Role(p.Email)
		name := p.DisplayName
		if role == models.RoleOfficer {
			name = officerPlaceholder
		} else if name == "" {
			name = citizenPlaceholder
		}
		return User{ID: p.ID, Email: p.Email, Name: name, Role: role}
	default:
		slog.Warn("profile lookup failed, resolving as citizen", "user_id", p.ID.String(), "error", err)
		return User{ID: p.ID, Email: p.Email, Role: models.RoleCitizen}
	}
}
