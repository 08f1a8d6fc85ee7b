package models

import (
	"time"

	"github.com/google/uuid"
)

// AccessTag maps a physical RFID tag to a principal. The unique index on
// PrincipalGUID enforces one tag per principal.
type AccessTag struct {
	// ID is the unique identifier for the tag record.
	ID uint `gorm:"primaryKey"`
	// TagNumber is the ASCII form the reader transmits.
	TagNumber string `gorm:"size:64;uniqueIndex;not null"`
	// PrincipalGUID is the owning principal's stable identifier.
	PrincipalGUID uuid.UUID `gorm:"type:varchar(36);uniqueIndex;not null"`
	// Enabled allows a tag to be turned off without deleting it.
	Enabled bool `gorm:"not null;default:true"`
	// CreatedAt is the timestamp when the tag was registered (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the tag was last updated (managed by GORM).
	UpdatedAt time.Time
}

// Resource is a named physical resource behind an access check, such as
// a door or a machine.
type Resource struct {
	// ID is the unique identifier for the resource.
	ID uint `gorm:"primaryKey"`
	// Name identifies the resource in check and unlock requests.
	Name string `gorm:"size:100;uniqueIndex;not null"`
	// AllowAllTags admits every enabled tag; when false, a ResourceGrant
	// row is required per principal.
	AllowAllTags bool `gorm:"not null;default:false"`
	// UnlockURL is the actuator endpoint that physically unlocks the
	// resource; empty when the resource has no remote actuator.
	UnlockURL string `gorm:"size:255"`
	// CreatedAt is the timestamp when the resource was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the resource was last updated (managed by GORM).
	UpdatedAt time.Time
}

// ResourceGrant allows a principal's tag on a restricted resource.
type ResourceGrant struct {
	// ResourceID is the granted resource.
	ResourceID uint `gorm:"primaryKey;column:resource_id"`
	// PrincipalGUID is the granted principal.
	PrincipalGUID uuid.UUID `gorm:"primaryKey;type:varchar(36);column:principal_guid"`
	// Resource is the associated resource (loaded via foreign key).
	Resource Resource `gorm:"foreignKey:ResourceID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the grant was issued (managed by GORM).
	CreatedAt time.Time
}

// AccessEvent is one append-only record of an access decision or unlock.
// Rows are never updated or deleted.
type AccessEvent struct {
	// ID is the unique identifier for the event.
	ID uint64 `gorm:"primaryKey"`
	// TagNumber is the tag that requested access; empty for web unlocks.
	TagNumber string `gorm:"size:64"`
	// ResourceName is the resource the decision was made for.
	ResourceName string `gorm:"size:100;not null"`
	// Outcome is the decision: allowed, denied, not_found or unlocked.
	Outcome string `gorm:"size:20;not null"`
	// CreatedAt is the timestamp of the decision (managed by GORM).
	CreatedAt time.Time
}

// Access decision outcomes.
const (
	// OutcomeAllowed records a granted access check.
	OutcomeAllowed = "allowed"
	// OutcomeDenied records a rejected access check.
	OutcomeDenied = "denied"
	// OutcomeNotFound records a check for an unknown tag or resource.
	OutcomeNotFound = "not_found"
	// OutcomeUnlocked records an explicit unlock request.
	OutcomeUnlocked = "unlocked"
)
