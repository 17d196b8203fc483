package models

import (
	"time"
)

// Resource is the persisted row for a resource entry. The type-specific
// payload (water/food/forage/bathroom) lives in a single nullable jsonb
// column selected by resource_type.
type Resource struct {
	ID           string    `gorm:"primaryKey;type:text"`
	Version      int       `gorm:"not null;default:1"`
	DateCreated  time.Time `gorm:"type:timestamp with time zone;not null"`
	Creator      string    `gorm:"type:text;not null"`
	LastModified time.Time `gorm:"type:timestamp with time zone;not null"`
	LastModifier string    `gorm:"type:text;not null"`

	SourceType string  `gorm:"type:text;not null;default:'MANUAL'"`
	SourceURL  *string `gorm:"type:text"`

	Verified   bool      `gorm:"not null;default:false"`
	VerifiedAt time.Time `gorm:"type:timestamp with time zone"`
	Verifier   string    `gorm:"type:text"`

	ResourceType string `gorm:"type:text;not null;index"`

	Name        *string `gorm:"type:text"`
	Description *string `gorm:"type:text"`
	Guidelines  *string `gorm:"type:text"`

	Address *string `gorm:"type:text"`
	City    *string `gorm:"type:text"`
	State   *string `gorm:"type:text"`
	ZipCode *string `gorm:"type:text"`

	Latitude  float64 `gorm:"not null"`
	Longitude float64 `gorm:"not null"`

	GpID *string `gorm:"type:text"`

	Images string `gorm:"type:jsonb;not null;default:'[]'"`

	EntryType *string `gorm:"type:text"`
	Status    string  `gorm:"type:text;not null;index"`

	Payload *string `gorm:"type:jsonb"`
}

// ChangeRecord rows are append-only and deliberately carry no foreign key to
// Resource: the audit trail must survive a hard delete of its target.
// (resource_id, seq) is unique; seq is assigned under the resource row lock.
type ChangeRecord struct {
	ID         string    `gorm:"primaryKey;type:text"`
	ResourceID string    `gorm:"type:text;not null;uniqueIndex:uniq_change_resource_seq,priority:1"`
	Seq        int64     `gorm:"not null;uniqueIndex:uniq_change_resource_seq,priority:2"`
	Actor      string    `gorm:"type:text;not null"`
	Field      string    `gorm:"type:text;not null"`
	OldValue   string    `gorm:"type:text"`
	NewValue   string    `gorm:"type:text"`
	Reason     string    `gorm:"type:text"`
	CDate      time.Time `gorm:"<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// Suggestion holds a proposed diff as a jsonb blob until moderation.
// Like ChangeRecord it has no foreign key so it outlives hard deletes.
type Suggestion struct {
	ID         string     `gorm:"primaryKey;type:text"`
	ResourceID string     `gorm:"type:text;not null;index"`
	Reporter   string     `gorm:"type:text;not null"`
	Fields     string     `gorm:"type:jsonb;not null"`
	Status     string     `gorm:"type:text;not null;index"`
	Moderator  string     `gorm:"type:text"`
	Reason     string     `gorm:"type:text"`
	CDate      time.Time  `gorm:"<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	ResolvedAt *time.Time `gorm:"type:timestamp with time zone"`
}
