package transform

import (
	"context"
	"fmt"

	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

// FallbackResult holds the sample records created for an archive with no
// recognizable content.
type FallbackResult struct {
	Communication *entities.Communication
	Note          *entities.ClinicalImpression
	Person        *entities.Person
	Media         *entities.Media
}

// Fallback creates one sample record of each record type, tagged as sample data.
func (t *Transformer) Fallback(ctx context.Context, scope Scope) (*FallbackResult, error) {
	now := t.now().UTC()
	meta := t.meta(scope)
	meta.Tag = entities.TagSampleData

	person := &entities.Person{
		Active: true,
		Name:   "Sample Contact",
		Links: entities.JSONList[entities.PersonLink]{
			{Target: scope.Patient, Assurance: AssuranceLevel},
		},
		Meta: meta,
	}
	if err := t.store.InsertPerson(ctx, scope.UserID, person); err != nil {
		return nil, fmt.Errorf("insert sample contact: %w", err)
	}

	msg := &entities.Communication{
		Status:    StatusCompleted,
		Sent:      now,
		Sender:    person.Ref(),
		Recipient: scope.Patient,
		Payload:   "Welcome! This sample message was added because the archive had no recognizable content.",
		Category:  CategorySocialMessage,
		Meta:      meta,
	}
	if err := t.store.InsertCommunication(ctx, scope.UserID, msg); err != nil {
		return nil, fmt.Errorf("insert sample message: %w", err)
	}

	note := &entities.ClinicalImpression{
		Status:      StatusCompleted,
		Subject:     scope.Patient,
		Assessor:    scope.Patient,
		Date:        now,
		Description: "Sample health note created for an archive without recognizable posts.",
		Meta:        meta,
	}
	if err := t.store.InsertClinicalImpression(ctx, scope.UserID, note); err != nil {
		return nil, fmt.Errorf("insert sample health note: %w", err)
	}

	media := &entities.Media{
		Status:  StatusCompleted,
		Type:    "photo",
		Subject: scope.Patient,
		Created: now,
		Content: entities.Attachment{
			ContentType: "image/png",
			URL:         "sample/placeholder.png",
			Title:       "Sample media",
		},
		Meta: meta,
	}
	if err := t.store.InsertMedia(ctx, scope.UserID, media); err != nil {
		return nil, fmt.Errorf("insert sample media: %w", err)
	}

	return &FallbackResult{Communication: msg, Note: note, Person: person, Media: media}, nil
}
