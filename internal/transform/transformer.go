// Package transform maps extracted archive records onto the stored resource
// shapes: profile, message, health note, media, contact and support network.
//
// Every method writes through a Store and returns the stored record. Records
// that carry nothing worth keeping return ErrSkipped; records that are not
// JSON objects return ErrUnexpectedShape.
package transform

import (
	"context"
	"errors"
	"time"

	"github.com/awatson1978/personal-health-record-sub000/internal/classifier"
	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

var (
	ErrSkipped         = errors.New("record skipped")
	ErrUnexpectedShape = errors.New("unexpected record shape")
)

const (
	StatusCompleted = "completed"
	StatusActive    = "active"

	CategorySocialMessage = "social-message"
	AssuranceLevel        = "level2"
	ParticipantRole       = "friend"
	SupportNetworkName    = "Social Support Network"
	PlaceholderPostText   = "Shared media without text"
)

// Store is the resource storage surface. Inserts stamp the owning user, a
// logical id and timestamps; updates are scoped to the user and a selector.
type Store interface {
	InsertProfile(ctx context.Context, userID uint, p *entities.Profile) error
	UpdateProfile(ctx context.Context, userID uint, p *entities.Profile, fields ...string) (bool, error)
	InsertCommunication(ctx context.Context, userID uint, c *entities.Communication) error
	InsertClinicalImpression(ctx context.Context, userID uint, c *entities.ClinicalImpression) error
	// InsertClinicalImpressionWithMedia stores the media and the note that
	// links them atomically.
	InsertClinicalImpressionWithMedia(ctx context.Context, userID uint, c *entities.ClinicalImpression, media []*entities.Media) error
	InsertMedia(ctx context.Context, userID uint, m *entities.Media) error
	InsertPerson(ctx context.Context, userID uint, p *entities.Person) error
	InsertCareTeam(ctx context.Context, userID uint, c *entities.CareTeam) error
}

// MediaCatalog resolves archive-relative media paths to their size and
// sniffed content type.
type MediaCatalog interface {
	LookupMedia(uri string) (size int64, contentType string, ok bool)
}

// Scope identifies the user and run a record belongs to.
type Scope struct {
	UserID  uint
	JobID   string
	Patient entities.Reference
}

// Transformer converts raw records into stored resources.
type Transformer struct {
	store      Store
	classifier *classifier.Classifier
	catalog    MediaCatalog
	source     string
	now        func() time.Time
}

// New creates a transformer. source is recorded on every resource's meta block.
func New(store Store, c *classifier.Classifier, source string) *Transformer {
	if c == nil {
		c = classifier.Default()
	}
	return &Transformer{
		store:      store,
		classifier: c,
		source:     source,
		now:        time.Now,
	}
}

// SetMediaCatalog enables size and content type lookup for media uris.
func (t *Transformer) SetMediaCatalog(catalog MediaCatalog) {
	t.catalog = catalog
}

// SetClock overrides the time source used for records without timestamps.
func (t *Transformer) SetClock(now func() time.Time) {
	t.now = now
}

func (t *Transformer) meta(scope Scope) entities.ResourceMeta {
	return entities.ResourceMeta{Source: t.source, ImportJobID: scope.JobID}
}
