package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is the identity record behind every login. Phase1Complete is set
// exactly once by the credential service and never cleared.
type User struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	Email              string         `json:"email" gorm:"not null;uniqueIndex"`
	PasswordHash       string         `json:"-" gorm:"not null"`
	Role               string         `json:"role" gorm:"not null;default:'student'"`
	Phase1Complete     bool           `json:"phase1_complete" gorm:"not null;default:false"`
	MustChangePassword bool           `json:"must_change_password" gorm:"not null;default:true"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}
