package model

import (
	"time"

	"gorm.io/gorm"
)

// Question belongs to one Exam, ordered by Sequence. Exactly one of its
// choices is marked correct, enforced at authoring time.
type Question struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	ExamID    uint           `json:"exam_id" gorm:"not null;index;uniqueIndex:uq_exam_sequence"`
	Text      string         `json:"text" gorm:"type:text;not null"`
	Sequence  int            `json:"sequence" gorm:"not null;uniqueIndex:uq_exam_sequence"`
	Choices   []Choice       `json:"choices,omitempty" gorm:"foreignKey:QuestionID"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
