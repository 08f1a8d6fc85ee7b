package models

import (
	"time"

	"github.com/google/uuid"
)

// Token is a single-use password reset token handed to a principal out
// of band. Tokens are consumed on use and expire by timestamp.
type Token struct {
	// ID is the unique identifier for the token record.
	ID uint `gorm:"primaryKey"`
	// Key is the opaque token value sent to the member.
	Key uuid.UUID `gorm:"type:varchar(36);uniqueIndex;not null"`
	// PrincipalGUID is the principal the token resets the password for.
	PrincipalGUID uuid.UUID `gorm:"type:varchar(36);not null"`
	// CreatedAt is the timestamp when the token was issued (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the Token model.
// This overrides GORM's default pluralized table naming.
func (Token) TableName() string {
	return "tokens"
}
