package model

import (
	"time"

	"gorm.io/gorm"
)

// SessionCredential is the time-boxed exam-day password for one exam,
// hashed at rest. Many can exist per exam; at most one is logically
// current (active and unexpired).
type SessionCredential struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	ExamID       uint           `json:"exam_id" gorm:"not null;index"`
	PasswordHash string         `json:"-" gorm:"not null"`
	Active       bool           `json:"active" gorm:"not null;default:true"`
	ExpiresAt    time.Time      `json:"expires_at" gorm:"not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
