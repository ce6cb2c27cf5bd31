// Package imageupload copies a remote image into object storage and points a resource at it.
package imageupload

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reformhub/internal/domain"
	"github.com/kailas-cloud/reformhub/internal/logger"
	"github.com/kailas-cloud/reformhub/internal/transport/pagefetch"
)

// Result describes a stored image.
type Result struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	// Reused is set when the key already existed and the upload was skipped.
	Reused bool `json:"reused"`
}

// Service uploads images.
type Service struct {
	resources Resources
	fetcher   pagefetch.Fetcher
	store     ObjectStore
	uploads   *prometheus.CounterVec
	logger    *zap.Logger
}

// New creates an upload service. store may be nil when object storage is not configured.
// uploads is a counter vec with label "status" ("stored"/"reused"/"error"), may be nil.
func New(resources Resources, fetcher pagefetch.Fetcher, store ObjectStore, uploads *prometheus.CounterVec, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{resources: resources, fetcher: fetcher, store: store, uploads: uploads, logger: logger}
}

// Upload downloads srcURL, stores it under a deterministic key and patches
// resource id's image URL.
func (s *Service) Upload(ctx context.Context, id, srcURL string) (Result, error) {
	if s.store == nil {
		return Result{}, fmt.Errorf("image storage: %w", domain.ErrNotConfigured)
	}
	if strings.TrimSpace(id) == "" {
		return Result{}, domain.NewFieldError("id", "is required")
	}
	src, err := pagefetch.ParseURL(strings.TrimSpace(srcURL))
	if err != nil {
		return Result{}, err
	}

	if _, err := s.resources.Get(ctx, id); err != nil {
		return Result{}, err
	}

	res, err := s.upload(ctx, id, src.String())
	if err != nil {
		s.inc("error")
		return Result{}, err
	}
	if err := s.resources.PatchImage(ctx, id, res.URL); err != nil {
		s.inc("error")
		return Result{}, fmt.Errorf("patch image: %w", err)
	}

	if res.Reused {
		s.inc("reused")
	} else {
		s.inc("stored")
	}
	logger.FromContextOr(ctx, s.logger).Info("Resource image stored",
		zap.String("resource_id", id),
		zap.String("key", res.Key),
		zap.Bool("reused", res.Reused))
	return res, nil
}

func (s *Service) upload(ctx context.Context, id, src string) (Result, error) {
	page, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: download image: %w", domain.ErrUpstreamUnavailable, err)
	}
	if len(page.Body) == 0 {
		return Result{}, fmt.Errorf("%w: empty image body", domain.ErrUnsupportedMedia)
	}

	ct, err := ContentType(page.ContentType, page.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s", err, page.ContentType)
	}
	key := Key(id, src, ct)
	res := Result{Key: key, URL: s.store.PublicURL(key), ContentType: ct}

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return Result{}, err
	}
	if exists {
		res.Reused = true
		return res, nil
	}
	if err := s.store.Put(ctx, key, page.Body, ct); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (s *Service) inc(status string) {
	if s.uploads != nil {
		s.uploads.WithLabelValues(status).Inc()
	}
}
