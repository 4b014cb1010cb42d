package transform

import (
	"context"
	"fmt"

	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

// Friend stores a contact for a named friend entry.
func (t *Transformer) Friend(ctx context.Context, scope Scope, raw any) (*entities.Person, error) {
	obj, ok := asObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: friend is %T", ErrUnexpectedShape, raw)
	}

	name := stringField(obj, "name")
	if name == "" {
		return nil, ErrSkipped
	}

	person := &entities.Person{
		Active: true,
		Name:   name,
		Links: entities.JSONList[entities.PersonLink]{
			{Target: scope.Patient, Assurance: AssuranceLevel},
		},
		Meta: t.meta(scope),
	}
	if since, ok := unixField(obj, "timestamp"); ok {
		person.KnownSince = &since
	}

	if err := t.store.InsertPerson(ctx, scope.UserID, person); err != nil {
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	return person, nil
}

// SupportNetwork aggregates the contacts created in one run into a single
// care team. It returns ErrSkipped when there are none.
func (t *Transformer) SupportNetwork(ctx context.Context, scope Scope, contacts []*entities.Person) (*entities.CareTeam, error) {
	if len(contacts) == 0 {
		return nil, ErrSkipped
	}

	team := &entities.CareTeam{
		Status:  StatusActive,
		Name:    SupportNetworkName,
		Subject: scope.Patient,
		Meta:    t.meta(scope),
	}
	for _, c := range contacts {
		start := t.now().UTC()
		if c.KnownSince != nil {
			start = *c.KnownSince
		}
		team.Participants = append(team.Participants, entities.CareTeamParticipant{
			Role:        ParticipantRole,
			Member:      c.Ref(),
			PeriodStart: start,
		})
	}

	if err := t.store.InsertCareTeam(ctx, scope.UserID, team); err != nil {
		return nil, fmt.Errorf("insert support network: %w", err)
	}
	return team, nil
}
