package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

// MediaItem stores one photo or video entry. Every object becomes a record;
// the creation time falls back to now.
func (t *Transformer) MediaItem(ctx context.Context, scope Scope, raw any) (*entities.Media, error) {
	obj, ok := asObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: media item is %T", ErrUnexpectedShape, raw)
	}

	m := t.mediaRecord(scope, obj, t.now().UTC())
	if err := t.store.InsertMedia(ctx, scope.UserID, m); err != nil {
		return nil, fmt.Errorf("insert media: %w", err)
	}
	return m, nil
}

func (t *Transformer) mediaRecord(scope Scope, obj map[string]any, fallback time.Time) *entities.Media {
	created, ok := unixField(obj, "creation_timestamp", "timestamp")
	if !ok {
		created = fallback
	}

	uri := stringField(obj, "uri")
	contentType, size := t.contentType(uri)

	return &entities.Media{
		Status:  StatusCompleted,
		Type:    mediaType(contentType),
		Subject: scope.Patient,
		Created: created,
		Content: entities.Attachment{
			ContentType: contentType,
			URL:         uri,
			Title:       stringField(obj, "title", "description"),
			Size:        size,
		},
		Meta: t.meta(scope),
	}
}
