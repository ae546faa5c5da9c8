package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/backend/internal/apierror"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/storage"
	"github.com/vidtube/backend/internal/validation"
)

const (
	messageInvalidBody   = "Invalid request body"
	messageUploadFailed  = "Failed to upload media"
	messageUserNotFound  = "User not found"
	messageVideoNotFound = "Video not found"
)

// HandlerFunc is an HTTP handler that reports failures by returning them. The
// error becomes the response envelope in ServeHTTP.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

func (f HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := f(w, r); err != nil {
		response.Error(r.Context(), w, err)
	}
}

// handle adapts an error-returning handler for chi's method helpers.
func handle(f HandlerFunc) http.HandlerFunc {
	return f.ServeHTTP
}

// parseBody reads the request body into a payload and validates it.
func parseBody(r *http.Request, schema validation.Schema) (validation.Payload, error) {
	payload, err := validation.FromRequest(r)
	if err != nil {
		return nil, apierror.Wrap(http.StatusBadRequest, messageInvalidBody, err)
	}
	if err := schema.Validate(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// parseQuery validates the query string.
func parseQuery(r *http.Request, schema validation.Schema) (validation.Payload, error) {
	payload := validation.FromValues(r.URL.Query())
	if err := schema.Validate(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// pathID reads a UUID path parameter. message overrides the default 422 message.
func pathID(r *http.Request, name, message string) (string, error) {
	id := chi.URLParam(r, name)
	if err := validation.ID(name, id, message); err != nil {
		return "", err
	}
	return id, nil
}

func callerID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// found separates a missing record from a real lookup failure.
func found(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repositories.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// notFound maps ErrNotFound to a 404 with message and passes other errors through.
func notFound(err error, message string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apierror.NotFound(message)
	}
	return err
}

// visibleVideo loads a video the caller may see. Unpublished videos read as
// missing for everyone but their owner.
func visibleVideo(ctx context.Context, videos VideoStore, id, caller string) (models.Video, error) {
	video, err := videos.FindByID(ctx, id)
	if err != nil {
		return models.Video{}, notFound(err, messageVideoNotFound)
	}
	if !video.IsPublished && video.OwnerID != caller {
		return models.Video{}, apierror.NotFound(messageVideoNotFound)
	}
	return video, nil
}

// upload stores fh under prefix and returns its URL. Storage failures surface as
// 400 "Failed to upload media".
func upload(ctx context.Context, store MediaStorage, prefix string, fh *multipart.FileHeader) (string, error) {
	return uploadAs(ctx, store, storage.Key(prefix, fh.Filename), fh)
}

func uploadAs(ctx context.Context, store MediaStorage, key string, fh *multipart.FileHeader) (string, error) {
	if store == nil {
		return "", apierror.Wrap(http.StatusBadRequest, messageUploadFailed, storage.ErrUnavailable)
	}

	ctx, span := logging.StartSpan(ctx, "upload "+key)
	defer span.End()

	f, err := fh.Open()
	if err != nil {
		span.Fail(err)
		return "", apierror.Wrap(http.StatusBadRequest, messageUploadFailed, fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()

	url, err := store.Save(ctx, key, f, validation.FileContentType(fh))
	if err != nil {
		span.Fail(err)
		return "", apierror.Wrap(http.StatusBadRequest, messageUploadFailed, err)
	}
	return url, nil
}

// uploadBatch tracks the objects stored while handling one request. Unless
// keep is called, discard removes them again.
type uploadBatch struct {
	store MediaStorage
	keys  []string
	kept  bool
}

func newUploadBatch(store MediaStorage) *uploadBatch {
	return &uploadBatch{store: store}
}

func (b *uploadBatch) upload(ctx context.Context, prefix string, fh *multipart.FileHeader) (string, error) {
	key := storage.Key(prefix, fh.Filename)
	url, err := uploadAs(ctx, b.store, key, fh)
	if err != nil {
		return "", err
	}
	b.keys = append(b.keys, key)
	return url, nil
}

func (b *uploadBatch) keep() { b.kept = true }

// discard deletes every stored object. The request context may already be
// cancelled, so deletion runs detached from it.
func (b *uploadBatch) discard(ctx context.Context) {
	if b.kept || b.store == nil {
		return
	}
	logger := logging.FromContext(ctx)
	ctx = context.WithoutCancel(ctx)
	for _, key := range b.keys {
		if err := b.store.Delete(ctx, key); err != nil {
			logger.Warn("orphaned upload not removed", "key", key, "error", err)
		}
	}
	b.keys = nil
}

func nowOr(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}
