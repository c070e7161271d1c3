// Package store is the persistence boundary for reports and profiles. Report
// collections can be read once (List) or watched (Subscribe); a watch delivers
// the full ordered snapshot again after every change.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("record not found")

// Query selects reports. A zero Query is the whole collection. Results are
// always ordered by creation time, newest first.
type Query struct {
	OwnerID uuid.UUID
}

func ByOwner(id uuid.UUID) Query { return Query{OwnerID: id} }

func (q Query) Matches(r *models.Report) bool {
	return q.OwnerID == uuid.Nil || r.SubmitterID == q.OwnerID
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Status      *models.Status
	Response    *string
	RespondedAt *time.Time
}

// ReportReader is keyed read access with no notion of ownership. It is the
// only capability the public tracking lookup gets.
type ReportReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Report, error)
}

type ReportStore interface {
	ReportReader
	// Create assigns ID and CreatedAt.
	Create(ctx context.Context, r *models.Report) error
	Update(ctx context.Context, id uuid.UUID, p Patch) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q Query) ([]models.Report, error)
	// Subscribe delivers the current snapshot before returning and a fresh
	// snapshot after every subsequent change until the subscription is closed.
	Subscribe(ctx context.Context, q Query, fn func([]models.Report)) (Subscription, error)
}

// Subscription is a standing query. Close is idempotent; once it returns no
// further callbacks run. Close must not be called from inside the callback.
type Subscription interface {
	Close()
}

type ProfileStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	CreateProfile(ctx context.Context, p *models.Profile) error
}
