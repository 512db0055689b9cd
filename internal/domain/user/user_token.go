package user

import (
	"time"

	"github.com/google/uuid"
)

// UserToken is an issued access token. Logging out deletes the row, which
// invalidates the token even before it expires.
type UserToken struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	AccessToken string    `gorm:"not null;uniqueIndex;column:access_token" json:"-"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (UserToken) TableName() string { return "user_token" }
