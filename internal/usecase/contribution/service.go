// Package contribution accepts visitor-submitted resources for review.
package contribution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reformhub/internal/domain"
	"github.com/kailas-cloud/reformhub/internal/domain/resource"
	"github.com/kailas-cloud/reformhub/internal/logger"
)

// Service creates pending-review resources.
type Service struct {
	repo        Repository
	now         func() time.Time
	submissions *prometheus.CounterVec
	logger      *zap.Logger
}

// New creates a contribution service.
// submissions is a counter vec with label "status" ("accepted"/"rejected"/"duplicate"/"error"), may be nil.
func New(repo Repository, now func() time.Time, submissions *prometheus.CounterVec, logger *zap.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, now: now, submissions: submissions, logger: logger}
}

// Submit validates in and stores it with status pending_review.
func (s *Service) Submit(ctx context.Context, in Input) (resource.Resource, error) {
	in = in.sanitize()
	if err := in.validate(); err != nil {
		s.inc("rejected")
		return resource.Resource{}, err
	}

	date, ok := parseDate(in.PublicationDate)
	if !ok {
		now := s.now().UTC()
		date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	typ := in.Type
	if typ == "" {
		typ = resource.DefaultType
	}

	r := resource.Resource{
		ID:                   ID(in.Link, in.Title),
		Title:                in.Title,
		Summary:              in.Summary,
		Type:                 typ,
		Theme:                in.Theme,
		Tags:                 resource.SplitKeywords(in.Keywords),
		Source:               in.Source,
		Author:               in.Author,
		Location:             in.Location,
		PublicationDate:      date,
		LinkToOriginalSource: in.Link,
		ImageURL:             in.ImageURL,
		Status:               resource.StatusPendingReview,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		s.inc(classify(err))
		return resource.Resource{}, fmt.Errorf("submit contribution: %w", err)
	}
	s.inc("accepted")
	logger.FromContextOr(ctx, s.logger).Info("Contribution received",
		zap.String("resource_id", r.ID),
		zap.String("title", r.Title))
	return r, nil
}

func (s *Service) inc(status string) {
	if s.submissions != nil {
		s.submissions.WithLabelValues(status).Inc()
	}
}

func classify(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		return "duplicate"
	case errors.Is(err, domain.ErrInvalidInput):
		return "rejected"
	default:
		return "error"
	}
}
