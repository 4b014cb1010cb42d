package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

// Account is what the user/account collaborator knows about the owner.
type Account struct {
	Name  string
	Email string
}

type place struct {
	text  string
	start *time.Time
	end   *time.Time
}

// UpsertProfile creates the user's profile or updates the existing one in
// place. The returned bool is true when a new profile was inserted.
func (t *Transformer) UpsertProfile(ctx context.Context, scope Scope, account Account, experiences map[string]any) (*entities.Profile, bool, error) {
	p := &entities.Profile{
		Active: true,
		Name:   strings.TrimSpace(account.Name),
		Meta:   t.meta(scope),
	}
	if p.Name == "" && experiences != nil {
		p.Name = experienceName(experiences)
	}

	if account.Email != "" {
		p.Telecom = append(p.Telecom, entities.ContactPoint{System: "email", Value: account.Email})
	}

	fields := []string{"active", "meta_source", "meta_import_job_id"}

	if experiences != nil {
		for _, phone := range phoneNumbers(experiences) {
			p.Telecom = append(p.Telecom, entities.ContactPoint{System: "phone", Value: phone})
		}

		work, err := historyBlob(experiences, "work", "work_experiences")
		if err != nil {
			return nil, false, err
		}
		education, err := historyBlob(experiences, "education", "education_experiences")
		if err != nil {
			return nil, false, err
		}
		p.WorkHistory = work
		p.EducationHistory = education
		p.Addresses = addressHistory(experiences)
		p.RelationshipStatus = relationshipStatus(experiences)

		fields = append(fields, "addresses", "work_history", "education_history", "relationship_status")
	}

	// A re-import without these keeps what the stored profile already has
	if p.Name != "" {
		fields = append(fields, "name")
	}
	if len(p.Telecom) > 0 {
		fields = append(fields, "telecom")
	}

	updated, err := t.store.UpdateProfile(ctx, scope.UserID, p, fields...)
	if err != nil {
		return nil, false, fmt.Errorf("update profile: %w", err)
	}
	if updated {
		return p, false, nil
	}

	if err := t.store.InsertProfile(ctx, scope.UserID, p); err != nil {
		return nil, false, fmt.Errorf("insert profile: %w", err)
	}
	return p, true, nil
}

func experienceName(exp map[string]any) string {
	if name, ok := asObject(exp["name"]); ok {
		return stringField(name, "full_name")
	}
	return stringField(exp, "name", "full_name")
}

func phoneNumbers(exp map[string]any) []string {
	var phones []string
	for _, item := range asArray(exp["phone_numbers"]) {
		if obj, ok := asObject(item); ok {
			if n := stringField(obj, "phone_number", "number"); n != "" {
				phones = append(phones, n)
			}
		} else if s, ok := item.(string); ok && s != "" {
			phones = append(phones, s)
		}
	}
	return phones
}

// historyBlob stores the first present history section as JSON text.
func historyBlob(exp map[string]any, keys ...string) (string, error) {
	for _, key := range keys {
		v, ok := exp[key]
		if !ok || v == nil {
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", key, err)
		}
		return string(b), nil
	}
	return "", nil
}

// addressHistory turns places lived into dated addresses. A place without
// an explicit end ends when the next one starts; the latest stays open.
func addressHistory(exp map[string]any) entities.JSONList[entities.Address] {
	var places []place
	for _, item := range asArray(exp["places_lived"]) {
		obj, ok := asObject(item)
		if !ok {
			continue
		}
		text := stringField(obj, "place", "name")
		if text == "" {
			continue
		}
		pl := place{text: text}
		if start, ok := unixField(obj, "start_timestamp", "timestamp"); ok {
			pl.start = &start
		}
		if end, ok := unixField(obj, "end_timestamp"); ok {
			pl.end = &end
		}
		places = append(places, pl)
	}
	if city, ok := asObject(exp["current_city"]); ok {
		if text := stringField(city, "name", "place"); text != "" {
			pl := place{text: text}
			if start, ok := unixField(city, "timestamp", "start_timestamp"); ok {
				pl.start = &start
			}
			places = append(places, pl)
		}
	}

	sort.SliceStable(places, func(i, j int) bool {
		a, b := places[i].start, places[j].start
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return a.Before(*b)
	})

	addresses := make(entities.JSONList[entities.Address], 0, len(places))
	for i, pl := range places {
		end := pl.end
		if end == nil && pl.start != nil && i+1 < len(places) && places[i+1].start != nil {
			next := *places[i+1].start
			end = &next
		}
		addresses = append(addresses, entities.Address{
			Text:   pl.text,
			Period: entities.Period{Start: pl.start, End: end},
		})
	}
	return addresses
}

func relationshipStatus(exp map[string]any) string {
	if s := stringField(exp, "relationship_status"); s != "" {
		return s
	}
	if rel, ok := asObject(exp["relationship"]); ok {
		return stringField(rel, "status")
	}
	return ""
}
