package model

import (
	"time"

	"gorm.io/gorm"
)

// Student links a User to the institutional ID number used for phase-2
// lookup. One-to-one with User; immutable after import except for
// administrative correction.
type Student struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	UserID    uint           `json:"user_id" gorm:"not null;uniqueIndex"`
	IDNumber  string         `json:"id_number" gorm:"not null;uniqueIndex"`
	BatchYear int            `json:"batch_year" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
