package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormReportStore struct {
	db     *gorm.DB
	broker *Broker
	now    func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewGormReportStore(db *gorm.DB, broker *Broker) *GormReportStore {
	return &GormReportStore{db: db, broker: broker, now: time.Now}
}

// stamp returns a creation time strictly after every previous one handed out
// by this store, so created_at ordering has no ties.
func (s *GormReportStore) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now().UTC().Truncate(time.Microsecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *GormReportStore) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var r models.Report
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *GormReportStore) Create(ctx context.Context, r *models.Report) error {
	r.ID = uuid.New()
	r.CreatedAt = s.stamp()
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	s.broker.Notify(ctx)
	return nil
}

func (s *GormReportStore) Update(ctx context.Context, id uuid.UUID, p Patch) error {
	fields := map[string]interface{}{}
	if p.Status != nil {
		fields["status"] = *p.Status
	}
	if p.Response != nil {
		fields["response"] = *p.Response
	}
	if p.RespondedAt != nil {
		fields["responded_at"] = *p.RespondedAt
	}
	if len(fields) == 0 {
		return nil
	}

	result := s.db.WithContext(ctx).Model(&models.Report{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	s.broker.Notify(ctx)
	return nil
}

func (s *GormReportStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Report{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	s.broker.Notify(ctx)
	return nil
}

func (s *GormReportStore) List(ctx context.Context, q Query) ([]models.Report, error) {
	tx := s.db.WithContext(ctx).Model(&models.Report{})
	if q.OwnerID != uuid.Nil {
		tx = tx.Where("submitter_id = ?", q.OwnerID)
	}
	var reports []models.Report
	if err := tx.Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *GormReportStore) Subscribe(ctx context.Context, q Query, fn func([]models.Report)) (Subscription, error) {
	return s.broker.Watch(ctx, func(ctx context.Context) ([]models.Report, error) {
		return s.List(ctx, q)
	}, fn)
}
