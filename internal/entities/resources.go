package entities

import (
	"time"
)

// Resource type names used in references between records.
const (
	ResourceTypePatient            = "Patient"
	ResourceTypeCommunication      = "Communication"
	ResourceTypeClinicalImpression = "ClinicalImpression"
	ResourceTypeMedia              = "Media"
	ResourceTypePerson             = "Person"
	ResourceTypeCareTeam           = "CareTeam"
)

// Reference points at another record, e.g. "Patient/<id>".
type Reference struct {
	Reference string `gorm:"size:128" json:"reference"`
	Display   string `gorm:"size:256" json:"display,omitempty"`
}

// Coding is a coded concept from an external terminology.
type Coding struct {
	System  string `json:"system"`
	Code    string `json:"code"`
	Display string `json:"display"`
}

// ResourceMeta records where a resource came from.
type ResourceMeta struct {
	Source      string `gorm:"size:64;index" json:"source"`
	ImportJobID string `gorm:"size:36;index" json:"import_job_id,omitempty"`
	Tag         string `gorm:"size:64" json:"tag,omitempty"`
}

// TagSampleData marks records synthesized for archives without recognizable content.
const TagSampleData = "sample-data"

type ContactPoint struct {
	System string `json:"system"`
	Value  string `json:"value"`
}

type Period struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

type Address struct {
	Text   string `json:"text"`
	Period Period `json:"period"`
}

// Profile is the per-user demographic record (Patient analog).
type Profile struct {
	ID                 string                 `gorm:"primaryKey;size:36" json:"id"`
	UserID             uint                   `gorm:"uniqueIndex" json:"user_id"`
	Active             bool                   `json:"active"`
	Name               string                 `gorm:"size:256" json:"name"`
	Telecom            JSONList[ContactPoint] `json:"telecom"`
	Addresses          JSONList[Address]      `json:"addresses"`
	WorkHistory        string                 `gorm:"type:text" json:"work_history,omitempty"`
	EducationHistory   string                 `gorm:"type:text" json:"education_history,omitempty"`
	RelationshipStatus string                 `gorm:"size:128" json:"relationship_status,omitempty"`
	Meta               ResourceMeta           `gorm:"embedded;embeddedPrefix:meta_" json:"meta"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p Profile) Ref() Reference {
	return Reference{Reference: ResourceTypePatient + "/" + p.ID, Display: p.Name}
}

// Communication is a message record.
type Communication struct {
	ID        string       `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint         `gorm:"index" json:"user_id"`
	Status    string       `gorm:"size:32" json:"status"`
	Sent      time.Time    `gorm:"index" json:"sent"`
	Sender    Reference    `gorm:"embedded;embeddedPrefix:sender_" json:"sender"`
	Recipient Reference    `gorm:"embedded;embeddedPrefix:recipient_" json:"recipient"`
	Payload   string       `gorm:"type:text" json:"payload"`
	Category  string       `gorm:"size:64" json:"category"`
	Meta      ResourceMeta `gorm:"embedded;embeddedPrefix:meta_" json:"meta"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Communication) TableName() string {
	return "communications"
}

// ImpressionFinding is a classifier finding as stored on a health note.
type ImpressionFinding struct {
	Term       string  `json:"term"`
	Display    string  `json:"display"`
	Code       *Coding `json:"code,omitempty"`
	Confidence float64 `json:"confidence"`
	Severity   string  `json:"severity"`
	Temporal   string  `json:"temporal"`
	Basis      string  `json:"basis,omitempty"`
}

// ClinicalImpression is the health-note record built from a post.
type ClinicalImpression struct {
	ID             string                      `gorm:"primaryKey;size:36" json:"id"`
	UserID         uint                        `gorm:"index" json:"user_id"`
	Status         string                      `gorm:"size:32" json:"status"`
	Subject        Reference                   `gorm:"embedded;embeddedPrefix:subject_" json:"subject"`
	Assessor       Reference                   `gorm:"embedded;embeddedPrefix:assessor_" json:"assessor"`
	Date           time.Time                   `gorm:"index" json:"date"`
	Description    string                      `gorm:"type:text" json:"description"`
	Findings       JSONList[ImpressionFinding] `json:"findings"`
	Investigations JSONList[Reference]         `json:"investigations"`
	Meta           ResourceMeta                `gorm:"embedded;embeddedPrefix:meta_" json:"meta"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

func (ClinicalImpression) TableName() string {
	return "clinical_impressions"
}

func (c ClinicalImpression) Ref() Reference {
	return Reference{Reference: ResourceTypeClinicalImpression + "/" + c.ID}
}

type Attachment struct {
	ContentType string `gorm:"size:128" json:"content_type"`
	URL         string `gorm:"size:2048" json:"url"`
	Title       string `gorm:"size:512" json:"title,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Media is a photo or video record.
type Media struct {
	ID        string       `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint         `gorm:"index" json:"user_id"`
	Status    string       `gorm:"size:32" json:"status"`
	Type      string       `gorm:"size:16" json:"type"`
	Subject   Reference    `gorm:"embedded;embeddedPrefix:subject_" json:"subject"`
	Created   time.Time    `gorm:"index" json:"created"`
	Content   Attachment   `gorm:"embedded;embeddedPrefix:content_" json:"content"`
	Meta      ResourceMeta `gorm:"embedded;embeddedPrefix:meta_" json:"meta"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Media) TableName() string {
	return "media"
}

func (m Media) Ref() Reference {
	return Reference{Reference: ResourceTypeMedia + "/" + m.ID, Display: m.Content.Title}
}

type PersonLink struct {
	Target    Reference `json:"target"`
	Assurance string    `json:"assurance"`
}

// Person is a contact record built from a friend entry.
type Person struct {
	ID         string               `gorm:"primaryKey;size:36" json:"id"`
	UserID     uint                 `gorm:"index" json:"user_id"`
	Active     bool                 `json:"active"`
	Name       string               `gorm:"size:256;index" json:"name"`
	Links      JSONList[PersonLink] `json:"links"`
	KnownSince *time.Time           `json:"known_since,omitempty"`
	Meta       ResourceMeta         `gorm:"embedded;embeddedPrefix:meta_" json:"meta"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

func (Person) TableName() string {
	return "persons"
}

func (p Person) Ref() Reference {
	return Reference{Reference: ResourceTypePerson + "/" + p.ID, Display: p.Name}
}

type CareTeamParticipant struct {
	Role        string    `json:"role"`
	Member      Reference `json:"member"`
	PeriodStart time.Time `json:"period_start"`
}

// CareTeam aggregates the contacts of one import into a support network.
type CareTeam struct {
	ID           string                        `gorm:"primaryKey;size:36" json:"id"`
	UserID       uint                          `gorm:"index" json:"user_id"`
	Status       string                        `gorm:"size:32" json:"status"`
	Name         string                        `gorm:"size:256" json:"name"`
	Subject      Reference                     `gorm:"embedded;embeddedPrefix:subject_" json:"subject"`
	Participants JSONList[CareTeamParticipant] `json:"participants"`
	Meta         ResourceMeta                  `gorm:"embedded;embeddedPrefix:meta_" json:"meta"`
	CreatedAt    time.Time                     `json:"created_at"`
	UpdatedAt    time.Time                     `json:"updated_at"`
}

func (CareTeam) TableName() string {
	return "care_teams"
}
