package model

import (
	"time"

	"gorm.io/gorm"
)

// ExamAttempt is the single, non-repeatable record of one student taking
// one exam. The (StudentID, ExamID) pair is unique for all time, which is
// what forbids re-attempts. Once Submitted flips true the row is
// immutable apart from the grading fields written by the grading service.
type ExamAttempt struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	StudentID   uint           `json:"student_id" gorm:"not null;index;uniqueIndex:uq_student_exam"`
	ExamID      uint           `json:"exam_id" gorm:"not null;index;uniqueIndex:uq_student_exam"`
	Exam        Exam           `json:"exam,omitempty" gorm:"foreignKey:ExamID"`
	StartedAt   time.Time      `json:"started_at" gorm:"not null"`
	SubmittedAt *time.Time     `json:"submitted_at,omitempty"`
	Submitted   bool           `json:"submitted" gorm:"not null;default:false"`
	Score       *int           `json:"score,omitempty"`
	Percentage  *float64       `json:"percentage,omitempty"`
	Answers     []AnswerRecord `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
