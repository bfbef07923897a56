package services

import (
	"context"
	"fmt"
	"log/slog"

	"medexpense/internal/cache"
	"medexpense/internal/images"
	"medexpense/internal/metrics"
	"medexpense/internal/storage"
)

// SizeSmall is the only size hint with a defined meaning; anything else
// returns the stored original.
const SizeSmall = "small"

// ImageService serves stored bill and avatar blobs. Avatars requested small
// are derived into fixed-size thumbnails; the stored originals are never
// touched. Only derived thumbnails are cached. The transform is pure, so a
// cache entry cannot diverge from its input.
type ImageService struct {
	store   storage.Store
	thumbs  cache.Cache[[]byte] // nil disables caching
	metrics *metrics.Collector
}

func NewImageService(store storage.Store, thumbs cache.Cache[[]byte], collector *metrics.Collector) *ImageService {
	return &ImageService{
		store:   store,
		thumbs:  thumbs,
		metrics: collector,
	}
}

// BillImage returns the receipt bytes of the expense matching both ids.
// A mismatch on either id yields core.ErrNotFound.
func (s *ImageService) BillImage(ctx context.Context, expenseID, employeeID int64) ([]byte, error) {
	return s.store.GetBillImage(ctx, expenseID, employeeID)
}

// Avatar returns the employee's avatar bytes. sizeHint "small" derives a
// deterministic 500x500 thumbnail; any other hint returns the original
// unmodified. A missing employee or empty avatar is core.ErrNotFound.
func (s *ImageService) Avatar(ctx context.Context, employeeID int64, sizeHint string) ([]byte, error) {
	original, err := s.store.GetAvatar(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	if sizeHint != SizeSmall {
		return original, nil
	}

	key := fmt.Sprintf("avatar:%d:small", employeeID)
	if s.thumbs != nil {
		if thumb, ok := s.thumbs.Get(key); ok {
			return thumb, nil
		}
	}

	thumb, err := images.Thumbnail(original, images.ThumbnailSize, images.ThumbnailSize)
	if err != nil {
		return nil, fmt.Errorf("avatar thumbnail for employee %d: %w", employeeID, err)
	}

	s.metrics.RecordThumbnailGenerated()
	slog.DebugContext(ctx, "Derived avatar thumbnail", "employee_id", employeeID)

	if s.thumbs != nil {
		s.thumbs.Set(key, thumb)
	}
	return thumb, nil
}
