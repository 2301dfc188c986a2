package model

import (
	"time"

	"gorm.io/gorm"
)

// Exam is the definition of one examination cycle. Published is monotone:
// once true it never reverts.
type Exam struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	Title           string         `json:"title" gorm:"not null"`
	Year            int            `json:"year" gorm:"not null;index"`
	DurationMinutes int            `json:"duration_minutes" gorm:"not null"`
	Published       bool           `json:"published" gorm:"not null;default:false"`
	Questions       []Question     `json:"questions,omitempty" gorm:"foreignKey:ExamID"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
