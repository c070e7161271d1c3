package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/dpppa-bjm/pengaduan/internal/store"
	"github.com/google/uuid"
)

// TrackingService resolves a tracking token to its report. Holding a valid
// token is the only authorization: there is no caller identity here, and the
// service can only read.
type TrackingService struct {
	reports store.ReportReader
}

func NewTrackingService(reports store.ReportReader) *TrackingService {
	return &TrackingService{reports: reports}
}

func (s *TrackingService) Lookup(ctx context.Context, token string) (*models.Report, error) {
	id, err := uuid.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, ErrTokenNotFound
	}
	r, err := s.reports.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, storeErr("lookup", err)
	}
	return r, nil
}
