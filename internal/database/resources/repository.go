// Package resources provides database operations for the records produced
// by archive imports: profiles, messages, health notes, media, contacts and
// support networks.
//
// # Interface Implementation
//
//	var _ transform.Store = (*Repository)(nil)
//
// Inserts stamp the owning user and a UUID when the record has no id yet.
// Every read and update is scoped to a user.
package resources

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

var ErrUnknownType = errors.New("unknown resource type")

// Repository handles all resource database operations.
type Repository struct {
	db     *gorm.DB
	source string
}

// NewRepository creates a resources repository. source is stamped on
// records that arrive without one.
func NewRepository(db *gorm.DB, source string) *Repository {
	return &Repository{db: db, source: source}
}

func (r *Repository) stamp(id *string, meta *entities.ResourceMeta) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if meta.Source == "" {
		meta.Source = r.source
	}
}

func (r *Repository) InsertProfile(ctx context.Context, userID uint, p *entities.Profile) error {
	r.stamp(&p.ID, &p.Meta)
	p.UserID = userID
	return r.db.WithContext(ctx).Create(p).Error
}

// UpdateProfile overwrites the listed columns of the user's existing profile.
// It reports false when the user has no profile yet.
func (r *Repository) UpdateProfile(ctx context.Context, userID uint, p *entities.Profile, fields ...string) (bool, error) {
	var existing entities.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	p.ID = existing.ID
	p.UserID = userID
	if p.Meta.Source == "" {
		p.Meta.Source = r.source
	}
	p.CreatedAt = existing.CreatedAt

	query := r.db.WithContext(ctx).Model(&existing)
	if len(fields) > 0 {
		query = query.Select(append(fields, "updated_at"))
	}
	if err := query.Updates(p).Error; err != nil {
		return false, fmt.Errorf("update profile %s: %w", existing.ID, err)
	}
	return true, nil
}

func (r *Repository) InsertCommunication(ctx context.Context, userID uint, c *entities.Communication) error {
	r.stamp(&c.ID, &c.Meta)
	c.UserID = userID
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repository) InsertClinicalImpression(ctx context.Context, userID uint, c *entities.ClinicalImpression) error {
	r.stamp(&c.ID, &c.Meta)
	c.UserID = userID
	return r.db.WithContext(ctx).Create(c).Error
}

// InsertClinicalImpressionWithMedia stores a note together with the media it
// links in one transaction. The note's investigations reference the media in
// order. Nothing is written when any insert fails.
func (r *Repository) InsertClinicalImpressionWithMedia(ctx context.Context, userID uint, c *entities.ClinicalImpression, media []*entities.Media) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		refs := make([]entities.Reference, 0, len(media))
		for _, m := range media {
			r.stamp(&m.ID, &m.Meta)
			m.UserID = userID
			if err := tx.Create(m).Error; err != nil {
				return fmt.Errorf("insert media %s: %w", m.ID, err)
			}
			refs = append(refs, m.Ref())
		}
		if len(refs) > 0 {
			c.Investigations = append(c.Investigations, refs...)
		}

		r.stamp(&c.ID, &c.Meta)
		c.UserID = userID
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("insert health note: %w", err)
		}
		return nil
	})
}

func (r *Repository) InsertMedia(ctx context.Context, userID uint, m *entities.Media) error {
	r.stamp(&m.ID, &m.Meta)
	m.UserID = userID
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *Repository) InsertPerson(ctx context.Context, userID uint, p *entities.Person) error {
	r.stamp(&p.ID, &p.Meta)
	p.UserID = userID
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repository) InsertCareTeam(ctx context.Context, userID uint, c *entities.CareTeam) error {
	r.stamp(&c.ID, &c.Meta)
	c.UserID = userID
	return r.db.WithContext(ctx).Create(c).Error
}

// GetProfile returns the user's profile.
func (r *Repository) GetProfile(ctx context.Context, userID uint) (*entities.Profile, error) {
	var p entities.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// models maps resource type names to their gorm models.
var models = map[string]func() any{
	entities.ResourceTypePatient:            func() any { return &[]entities.Profile{} },
	entities.ResourceTypeCommunication:      func() any { return &[]entities.Communication{} },
	entities.ResourceTypeClinicalImpression: func() any { return &[]entities.ClinicalImpression{} },
	entities.ResourceTypeMedia:              func() any { return &[]entities.Media{} },
	entities.ResourceTypePerson:             func() any { return &[]entities.Person{} },
	entities.ResourceTypeCareTeam:           func() any { return &[]entities.CareTeam{} },
}

// ResourceTypes lists the type names accepted by List and Summary.
func ResourceTypes() []string {
	return []string{
		entities.ResourceTypePatient,
		entities.ResourceTypeCommunication,
		entities.ResourceTypeClinicalImpression,
		entities.ResourceTypeMedia,
		entities.ResourceTypePerson,
		entities.ResourceTypeCareTeam,
	}
}

// List returns a page of the user's records of the given type, newest first.
// The result is a pointer to a slice of the matching entity.
func (r *Repository) List(ctx context.Context, userID uint, resourceType string, limit, offset int) (any, error) {
	newSlice, ok := models[resourceType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, resourceType)
	}
	dest := newSlice()
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(dest).Error; err != nil {
		return nil, err
	}
	return dest, nil
}

// Count returns how many records of the given type the user owns.
func (r *Repository) Count(ctx context.Context, userID uint, resourceType string) (int64, error) {
	newSlice, ok := models[resourceType]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownType, resourceType)
	}
	var count int64
	err := r.db.WithContext(ctx).Model(newSlice()).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Summary counts the user's records per type.
func (r *Repository) Summary(ctx context.Context, userID uint) (map[string]int64, error) {
	counts := make(map[string]int64, len(models))
	for _, resourceType := range ResourceTypes() {
		count, err := r.Count(ctx, userID, resourceType)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", resourceType, err)
		}
		counts[resourceType] = count
	}
	return counts, nil
}
