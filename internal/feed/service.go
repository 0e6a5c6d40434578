package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"snapfeed/internal/storage"
	"snapfeed/internal/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Upload is the caller-supplied media file for a new post. ContentType is the
// declared type from the multipart header; it is only trusted for the
// image/video split, never for serving.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Item is the feed projection of a post, annotated with ownership relative
// to the requesting user.
type Item struct {
	ID         uuid.UUID         `json:"id"`
	Caption    string            `json:"caption"`
	MediaURL   string            `json:"media_url"`
	MediaType  storage.MediaType `json:"media_type"`
	StoredName string            `json:"stored_name"`
	CreatedAt  time.Time         `json:"created_at"`
	IsOwner    bool              `json:"is_owner"`
}

// Service orchestrates post creation, feed assembly and ownership-checked
// deletion. It holds no state of its own; every operation goes straight to
// the injected store and blob store.
type Service struct {
	store   storage.Store
	blobs   storage.BlobStore
	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer
}

func NewService(store storage.Store, blobs storage.BlobStore, logger *slog.Logger, metrics *telemetry.Metrics) *Service {
	return &Service{
		store:   store,
		blobs:   blobs,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("snapfeed/feed"),
	}
}

// CreatePost stages the upload, pushes it to the blob store and persists the
// post record. The post only becomes visible once both steps succeeded; a
// blob orphaned by a failed insert is accepted and logged.
func (s *Service) CreatePost(ctx context.Context, ownerID int64, up Upload, caption string) (*storage.Post, error) {
	ctx, span := s.tracer.Start(ctx, "feed.CreatePost", trace.WithAttributes(attribute.Int64("user.id", ownerID)))
	defer span.End()

	if up.Body == nil || strings.TrimSpace(up.Filename) == "" {
		return nil, fmt.Errorf("%w: a named, non-empty file is required", ErrInvalidInput)
	}

	owner, err := s.store.GetUserByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user %d", ErrUnauthorized, ownerID)
		}
		return nil, fmt.Errorf("%w: resolving user: %s", ErrPersistence, err)
	}

	// Stage to a temp file so the bytes survive a second read; removed on
	// every exit path.
	tmp, err := os.CreateTemp("", "snapfeed-upload-*")
	if err != nil {
		return nil, fmt.Errorf("could not stage upload: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, up.Body)
	if err != nil {
		return nil, fmt.Errorf("could not stage upload: %w", err)
	}
	if size == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", ErrInvalidInput)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("could not rewind staged upload: %w", err)
	}

	stored, err := s.blobs.Upload(ctx, up.Filename, tmp)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %s", ErrBlobStore, err)
	}

	post := &storage.Post{
		ID:         uuid.Must(uuid.NewV7()),
		OwnerID:    owner.ID,
		Caption:    caption,
		MediaURL:   stored.URL,
		MediaType:  classifyMedia(up.ContentType),
		StoredName: stored.StoredName,
	}

	created, err := s.store.InsertPost(ctx, post)
	if err != nil {
		span.RecordError(err)
		// the uploaded blob is now orphaned; we leave it and say so
		s.logger.Warn("post insert failed after upload, blob orphaned",
			"stored_name", stored.StoredName, "err", err)
		return nil, fmt.Errorf("%w: %s", ErrPersistence, err)
	}

	s.metrics.PostsCreatedTotal.Add(ctx, 1)
	s.metrics.UploadBytesTotal.Add(ctx, size)
	s.logger.Info("post created",
		"post_id", created.ID, "user_id", owner.ID,
		"media_type", created.MediaType, "bytes", size)

	return created, nil
}

// ListFeed returns every post, newest first, with IsOwner set relative to
// the caller. An empty store yields an empty slice, not an error.
func (s *Service) ListFeed(ctx context.Context, callerID int64) ([]Item, error) {
	ctx, span := s.tracer.Start(ctx, "feed.ListFeed", trace.WithAttributes(attribute.Int64("user.id", callerID)))
	defer span.End()

	if _, err := s.store.GetUserByID(ctx, callerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user %d", ErrUnauthorized, callerID)
		}
		return nil, fmt.Errorf("%w: resolving user: %s", ErrPersistence, err)
	}

	posts, err := s.store.ListPostsByCreatedDesc(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %s", ErrPersistence, err)
	}

	items := make([]Item, 0, len(posts))
	for _, post := range posts {
		items = append(items, Item{
			ID:         post.ID,
			Caption:    post.Caption,
			MediaURL:   post.MediaURL,
			MediaType:  post.MediaType,
			StoredName: post.StoredName,
			CreatedAt:  post.CreatedAt,
			IsOwner:    post.OwnerID == callerID,
		})
	}

	s.metrics.FeedRequestsTotal.Add(ctx, 1)

	return items, nil
}

// DeletePost removes a post the caller owns. The media object is deleted
// best-effort afterwards; a failure there is logged, never surfaced.
func (s *Service) DeletePost(ctx context.Context, callerID int64, postID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "feed.DeletePost", trace.WithAttributes(
		attribute.Int64("user.id", callerID),
		attribute.String("post.id", postID.String()),
	))
	defer span.End()

	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, postID)
		}
		return fmt.Errorf("%w: %s", ErrPersistence, err)
	}

	if post.OwnerID != callerID {
		return fmt.Errorf("%w: post %s belongs to another user", ErrForbidden, postID)
	}

	if err := s.store.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// lost a race with a concurrent delete
			return fmt.Errorf("%w: %s", ErrNotFound, postID)
		}
		span.RecordError(err)
		return fmt.Errorf("%w: %s", ErrPersistence, err)
	}

	if err := s.blobs.Delete(ctx, post.StoredName); err != nil {
		s.logger.Warn("could not delete media object",
			"stored_name", post.StoredName, "err", err)
	}

	s.metrics.PostsDeletedTotal.Add(ctx, 1)
	s.logger.Info("post deleted", "post_id", postID, "user_id", callerID)

	return nil
}

// classifyMedia splits on the declared content type: anything under video/
// is a video, everything else is treated as an image.
func classifyMedia(contentType string) storage.MediaType {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "video/") {
		return storage.MediaTypeVideo
	}
	return storage.MediaTypeImage
}
