package transform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awatson1978/personal-health-record-sub000/internal/classifier"
	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

// memStore is an in-memory Store.
type memStore struct {
	seq            int
	profiles       map[uint]*entities.Profile
	communications []*entities.Communication
	notes          []*entities.ClinicalImpression
	media          []*entities.Media
	persons        []*entities.Person
	careTeams      []*entities.CareTeam
	failMedia      bool
	profileFields  []string
}

func newMemStore() *memStore {
	return &memStore{profiles: make(map[uint]*entities.Profile)}
}

func (s *memStore) nextID() string {
	s.seq++
	return fmt.Sprintf("id-%d", s.seq)
}

func (s *memStore) InsertProfile(_ context.Context, userID uint, p *entities.Profile) error {
	p.ID = s.nextID()
	p.UserID = userID
	s.profiles[userID] = p
	return nil
}

// UpdateProfile keeps the stored name and telecom unless they are selected,
// like a column-scoped update would.
func (s *memStore) UpdateProfile(_ context.Context, userID uint, p *entities.Profile, fields ...string) (bool, error) {
	existing, ok := s.profiles[userID]
	if !ok {
		return false, nil
	}
	s.profileFields = fields
	p.ID = existing.ID
	p.UserID = userID
	if len(fields) > 0 && !slices.Contains(fields, "name") {
		p.Name = existing.Name
	}
	if len(fields) > 0 && !slices.Contains(fields, "telecom") {
		p.Telecom = existing.Telecom
	}
	s.profiles[userID] = p
	return true, nil
}

func (s *memStore) InsertCommunication(_ context.Context, userID uint, c *entities.Communication) error {
	c.ID, c.UserID = s.nextID(), userID
	s.communications = append(s.communications, c)
	return nil
}

func (s *memStore) InsertClinicalImpression(_ context.Context, userID uint, c *entities.ClinicalImpression) error {
	c.ID, c.UserID = s.nextID(), userID
	s.notes = append(s.notes, c)
	return nil
}

func (s *memStore) InsertClinicalImpressionWithMedia(ctx context.Context, userID uint, c *entities.ClinicalImpression, media []*entities.Media) error {
	if s.failMedia {
		return errors.New("disk full")
	}
	for _, m := range media {
		if err := s.InsertMedia(ctx, userID, m); err != nil {
			return err
		}
		c.Investigations = append(c.Investigations, m.Ref())
	}
	return s.InsertClinicalImpression(ctx, userID, c)
}

func (s *memStore) InsertMedia(_ context.Context, userID uint, m *entities.Media) error {
	if s.failMedia {
		return errors.New("disk full")
	}
	m.ID, m.UserID = s.nextID(), userID
	s.media = append(s.media, m)
	return nil
}

func (s *memStore) InsertPerson(_ context.Context, userID uint, p *entities.Person) error {
	p.ID, p.UserID = s.nextID(), userID
	s.persons = append(s.persons, p)
	return nil
}

func (s *memStore) InsertCareTeam(_ context.Context, userID uint, c *entities.CareTeam) error {
	c.ID, c.UserID = s.nextID(), userID
	s.careTeams = append(s.careTeams, c)
	return nil
}

type fakeCatalog map[string]int64

func (c fakeCatalog) LookupMedia(uri string) (int64, string, bool) {
	size, ok := c[uri]
	return size, "image/heic", ok
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestTransformer(store *memStore) *Transformer {
	tr := New(store, classifier.Default(), "facebook-archive")
	tr.SetClock(func() time.Time { return fixedNow })
	return tr
}

var testScope = Scope{
	UserID:  7,
	JobID:   "job-1",
	Patient: entities.Reference{Reference: "Patient/p-1", Display: "Jamie Doe"},
}

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestPost_HealthRelevant(t *testing.T) {
	store := newMemStore()
	tr := newTestTransformer(store)

	result, err := tr.Post(context.Background(), testScope,
		decode(t, `{"timestamp": 1700000000, "data": [{"post": "I have a severe headache today"}]}`))
	require.NoError(t, err)

	require.Len(t, store.notes, 1)
	note := store.notes[0]
	assert.Same(t, note, result.Note)
	assert.True(t, result.Relevant)
	assert.Equal(t, "I have a severe headache today", note.Description)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), note.Date)
	assert.Equal(t, testScope.Patient, note.Subject)
	assert.Equal(t, uint(7), note.UserID)
	assert.Equal(t, "facebook-archive", note.Meta.Source)
	assert.Equal(t, "job-1", note.Meta.ImportJobID)

	require.Len(t, note.Findings, 1)
	f := note.Findings[0]
	assert.Equal(t, "headache", f.Term)
	assert.Equal(t, "high", f.Severity)
	assert.Greater(t, f.Confidence, 0.5)
	require.NotNil(t, f.Code)
	assert.Equal(t, "25064002", f.Code.Code)
}

func TestPost_NotRelevantHasNoFindings(t *testing.T) {
	store := newMemStore()
	tr := newTestTransformer(store)

	result, err := tr.Post(context.Background(), testScope, decode(t, `{"post": "Lovely sunset at the beach"}`))
	require.NoError(t, err)

	assert.False(t, result.Relevant)
	assert.Empty(t, result.Note.Findings)
	assert.Equal(t, fixedNow, result.Note.Date, "posts without timestamp use the clock")
}

func TestPost_TextLocations(t *testing.T) {
	for _, raw := range []string{
		`{"data": [{"update_timestamp": 1}, {"post": "found"}]}`,
		`{"post": "found"}`,
		`{"message": "found"}`,
		`{"text": "found"}`,
	} {
		store := newMemStore()
		_, err := newTestTransformer(store).Post(context.Background(), testScope, decode(t, raw))
		require.NoError(t, err, raw)
		assert.Equal(t, "found", store.notes[0].Description, raw)
	}
}

func TestPost_AttachmentsBecomeLinkedMedia(t *testing.T) {
	store := newMemStore()
	tr := newTestTransformer(store)
	tr.SetMediaCatalog(fakeCatalog{"posts/media/a.heic": 2048})

	result, err := tr.Post(context.Background(), testScope, decode(t, `{
		"timestamp": 1700000000,
		"attachments": [
			{"data": [{"media": {"uri": "posts/media/a.heic", "title": "Beach", "creation_timestamp": 1690000000}}]},
			{"data": [{"external_context": {"url": "https://example.com"}}]},
			{"media": {"uri": "posts/media/b.mp4"}}
		]
	}`))
	require.NoError(t, err)

	assert.Equal(t, PlaceholderPostText, result.Note.Description)
	require.Len(t, store.media, 2)

	first := store.media[0]
	assert.Equal(t, "image/heic", first.Content.ContentType)
	assert.Equal(t, int64(2048), first.Content.Size)
	assert.Equal(t, "Beach", first.Content.Title)
	assert.Equal(t, "photo", first.Type)
	assert.Equal(t, time.Unix(1690000000, 0).UTC(), first.Created)

	second := store.media[1]
	assert.Equal(t, "video", second.Type)
	assert.Equal(t, "video/mp4", second.Content.ContentType)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), second.Created, "attachment falls back to the post date")

	require.Len(t, store.notes[0].Investigations, 2)
	assert.Equal(t, "Media/"+first.ID, store.notes[0].Investigations[0].Reference)
}

func TestPost_SkipsAndErrors(t *testing.T) {
	tr := newTestTransformer(newMemStore())

	_, err := tr.Post(context.Background(), testScope, decode(t, `{"timestamp": 1700000000}`))
	assert.ErrorIs(t, err, ErrSkipped)

	_, err = tr.Post(context.Background(), testScope, decode(t, `{"data": [{"post": "   "}]}`))
	assert.ErrorIs(t, err, ErrSkipped)

	_, err = tr.Post(context.Background(), testScope, 42.0)
	assert.ErrorIs(t, err, ErrUnexpectedShape)

}

func TestPost_MediaFailureStoresNothing(t *testing.T) {
	failing := newMemStore()
	failing.failMedia = true
	tr := newTestTransformer(failing)

	_, err := tr.Post(context.Background(), testScope,
		decode(t, `{"post": "headache again", "attachments": [{"media": {"uri": "x.jpg"}}, {"media": {"uri": "y.jpg"}}]}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSkipped)
	assert.Empty(t, failing.notes)
	assert.Empty(t, failing.media)

	// Text-only posts do not touch media storage
	res, err := tr.Post(context.Background(), testScope, decode(t, `{"post": "feeling better"}`))
	require.NoError(t, err)
	assert.Empty(t, res.Media)
	assert.Len(t, failing.notes, 1)
}

func TestFriendAndSupportNetwork(t *testing.T) {
	store := newMemStore()
	tr := newTestTransformer(store)
	ctx := context.Background()

	alex, err := tr.Friend(ctx, testScope, decode(t, `{"name": "Alex Rivera", "timestamp": 1600000000}`))
	require.NoError(t, err)
	sam, err := tr.Friend(ctx, testScope, decode(t, `{"name": "Sam"}`))
	require.NoError(t, err)

	_, err = tr.Friend(ctx, testScope, decode(t, `{"name": ""}`))
	assert.ErrorIs(t, err, ErrSkipped)
	_, err = tr.Friend(ctx, testScope, "Alex")
	assert.ErrorIs(t, err, ErrUnexpectedShape)

	assert.Equal(t, "Alex Rivera", alex.Name)
	require.NotNil(t, alex.KnownSince)
	assert.Equal(t, time.Unix(1600000000, 0).UTC(), *alex.KnownSince)
	require.Len(t, alex.Links, 1)
	assert.Equal(t, testScope.Patient, alex.Links[0].Target)
	assert.Equal(t, AssuranceLevel, alex.Links[0].Assurance)

	team, err := tr.SupportNetwork(ctx, testScope, []*entities.Person{alex, sam})
	require.NoError(t, err)
	require.Len(t, team.Participants, 2)
	assert.Equal(t, "Person/"+alex.ID, team.Participants[0].Member.Reference)
	assert.Equal(t, *alex.KnownSince, team.Participants[0].PeriodStart)
	assert.Equal(t, fixedNow, team.Participants[1].PeriodStart)
	assert.Equal(t, SupportNetworkName, team.Name)

	_, err = tr.SupportNetwork(ctx, testScope, nil)
	assert.ErrorIs(t, err, ErrSkipped)
	assert.Len(t, store.careTeams, 1)
}

func TestMediaItem(t *testing.T) {
	store := newMemStore()
	tr := newTestTransformer(store)
	ctx := context.Background()

	m, err := tr.MediaItem(ctx, testScope, decode(t, `{"uri": "photos/1.png", "creation_timestamp": 1650000000}`))
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1650000000, 0).UTC(), m.Created)
	assert.Equal(t, "image/png", m.Content.ContentType)

	m, err = tr.MediaItem(ctx, testScope, decode(t, `{"uri": "photos/2.png", "timestamp": 1650000001}`))
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1650000001, 0).UTC(), m.Created)

	m, err = tr.MediaItem(ctx, testScope, decode(t, `{"title": "no uri, no time"}`))
	require.NoError(t, err)
	assert.Equal(t, fixedNow, m.Created)
	assert.Equal(t, "application/octet-stream", m.Content.ContentType)

	assert.Len(t, store.media, 3)
}

func TestMessage(t *testing.T) {
	store := newMemStore()
	tr := newTestTransformer(store)
	ctx := context.Background()

	msg, err := tr.Message(ctx, testScope, decode(t, `{"sender_name": "Alex", "timestamp_ms": 1700000000123, "content": "see you soon"}`))
	require.NoError(t, err)
	assert.Equal(t, CategorySocialMessage, msg.Category)
	assert.Equal(t, "Alex", msg.Sender.Display)
	assert.Equal(t, testScope.Patient, msg.Recipient)
	assert.Equal(t, time.UnixMilli(1700000000123).UTC(), msg.Sent)

	own, err := tr.Message(ctx, testScope, decode(t, `{"sender_name": "jamie doe", "content": "on my way"}`))
	require.NoError(t, err)
	assert.Equal(t, testScope.Patient, own.Sender)
	assert.Equal(t, fixedNow, own.Sent)

	_, err = tr.Message(ctx, testScope, decode(t, `{"sender_name": "Alex", "content": ""}`))
	assert.ErrorIs(t, err, ErrSkipped)
	_, err = tr.Message(ctx, testScope, decode(t, `{"sender_name": "Alex", "photos": [{"uri": "x.jpg"}]}`))
	assert.ErrorIs(t, err, ErrSkipped)

	assert.Len(t, store.communications, 2)
}

func TestUpsertProfile(t *testing.T) {
	store := newMemStore()
	tr := newTestTransformer(store)
	ctx := context.Background()
	scope := Scope{UserID: 3, JobID: "job-2"}

	experiences := decode(t, `{
		"work_experiences": [{"employer": "Acme", "title": "Engineer"}],
		"education_experiences": [{"name": "State University"}],
		"places_lived": [
			{"place": "Denver, Colorado", "start_timestamp": 1500000000},
			{"place": "Boston, Massachusetts", "start_timestamp": 1400000000}
		],
		"relationship": {"status": "Married"},
		"phone_numbers": [{"phone_number": "+1 555 0100"}]
	}`).(map[string]any)

	profile, created, err := tr.UpsertProfile(ctx, scope, Account{Name: "Jamie Doe", Email: "jamie@example.com"}, experiences)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Jamie Doe", profile.Name)
	assert.Equal(t, "Married", profile.RelationshipStatus)
	assert.JSONEq(t, `[{"employer": "Acme", "title": "Engineer"}]`, profile.WorkHistory)
	assert.JSONEq(t, `[{"name": "State University"}]`, profile.EducationHistory)
	assert.Equal(t, entities.JSONList[entities.ContactPoint]{
		{System: "email", Value: "jamie@example.com"},
		{System: "phone", Value: "+1 555 0100"},
	}, profile.Telecom)

	require.Len(t, profile.Addresses, 2)
	boston, denver := profile.Addresses[0], profile.Addresses[1]
	assert.Equal(t, "Boston, Massachusetts", boston.Text)
	require.NotNil(t, boston.Period.End)
	assert.Equal(t, time.Unix(1500000000, 0).UTC(), *boston.Period.End, "ends when the next place starts")
	assert.Equal(t, "Denver, Colorado", denver.Text)
	assert.Nil(t, denver.Period.End)

	again, created, err := tr.UpsertProfile(ctx, scope, Account{Name: "Jamie D.", Email: "jamie@example.com"}, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, profile.ID, again.ID)
	assert.Len(t, store.profiles, 1)
}

func TestUpsertProfile_BlankAccountKeepsStoredName(t *testing.T) {
	store := newMemStore()
	tr := newTestTransformer(store)
	ctx := context.Background()
	scope := Scope{UserID: 4, JobID: "job-3"}

	_, created, err := tr.UpsertProfile(ctx, scope, Account{Name: "Jamie Doe", Email: "jamie@example.com"}, nil)
	require.NoError(t, err)
	require.True(t, created)

	_, created, err = tr.UpsertProfile(ctx, scope, Account{Name: "  "}, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NotContains(t, store.profileFields, "name")
	assert.NotContains(t, store.profileFields, "telecom")
	assert.Equal(t, "Jamie Doe", store.profiles[4].Name)
	assert.Equal(t, "jamie@example.com", store.profiles[4].Telecom[0].Value)
	assert.Equal(t, "job-3", store.profiles[4].Meta.ImportJobID)

	_, _, err = tr.UpsertProfile(ctx, scope, Account{Name: "Jamie D."}, nil)
	require.NoError(t, err)
	assert.Contains(t, store.profileFields, "name")
	assert.Equal(t, "Jamie D.", store.profiles[4].Name)
}

func TestFallback(t *testing.T) {
	store := newMemStore()
	result, err := newTestTransformer(store).Fallback(context.Background(), testScope)
	require.NoError(t, err)

	assert.Len(t, store.communications, 1)
	assert.Len(t, store.notes, 1)
	assert.Len(t, store.persons, 1)
	assert.Len(t, store.media, 1)
	for _, tag := range []string{result.Communication.Meta.Tag, result.Note.Meta.Tag, result.Person.Meta.Tag, result.Media.Meta.Tag} {
		assert.Equal(t, entities.TagSampleData, tag)
	}
}
