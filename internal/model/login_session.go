package model

import (
	"time"

	"gorm.io/gorm"
)

// LoginSession binds a later exam attempt to a specific authenticated
// login rather than to raw credentials. Tokens are opaque and persisted
// so they can be invalidated server-side.
type LoginSession struct {
	ID                  uint           `gorm:"primarykey" json:"id"`
	Token               string         `json:"-" gorm:"not null;uniqueIndex"`
	UserID              uint           `json:"user_id" gorm:"not null;index"`
	Phase               int            `json:"phase" gorm:"not null"`
	SessionCredentialID *uint          `json:"session_credential_id,omitempty" gorm:"index"`
	IPAddress           string         `json:"ip_address"`
	UserAgent           string         `json:"user_agent"`
	Active              bool           `json:"active" gorm:"not null;default:true"`
	ExpiresAt           time.Time      `json:"expires_at" gorm:"not null"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}
