package model

import (
	"time"

	"gorm.io/gorm"
)

// AnswerRecord holds one student's answer slot for one question. One row
// per (attempt, question) is pre-created when the attempt starts, so
// "unanswered" is a null ChoiceID rather than a missing row.
type AnswerRecord struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	AttemptID    uint           `json:"attempt_id" gorm:"not null;index;uniqueIndex:uq_attempt_question"`
	QuestionID   uint           `json:"question_id" gorm:"not null;uniqueIndex:uq_attempt_question"`
	Question     Question       `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	ChoiceID     *uint          `json:"choice_id,omitempty"`
	Flagged      bool           `json:"flagged" gorm:"not null;default:false"`
	LastModified time.Time      `json:"last_modified"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
