package dto

import "time"

type ChoiceCreateDTO struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionCreateDTO struct {
	Text     string            `json:"text" binding:"required"`
	Sequence int               `json:"sequence" binding:"required,min=1"`
	Choices  []ChoiceCreateDTO `json:"choices" binding:"required,min=2,dive"`
}

// ExamCreateDTO is the admin payload for authoring an exam with all its
// questions in one call.
type ExamCreateDTO struct {
	Title           string              `json:"title" binding:"required"`
	Year            int                 `json:"year" binding:"required"`
	DurationMinutes int                 `json:"duration_minutes" binding:"required,gt=0"`
	Questions       []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
}

type ExamDTO struct {
	ID              uint          `json:"id"`
	Title           string        `json:"title"`
	Year            int           `json:"year"`
	DurationMinutes int           `json:"duration_minutes"`
	Published       bool          `json:"published"`
	Questions       []QuestionDTO `json:"questions,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

type SessionCredentialCreateDTO struct {
	Password  string    `json:"password" binding:"required,min=6"`
	ExpiresAt time.Time `json:"expires_at" binding:"required"`
}

type SessionCredentialDTO struct {
	ID        uint      `json:"id"`
	ExamID    uint      `json:"exam_id"`
	Active    bool      `json:"active"`
	ExpiresAt time.Time `json:"expires_at"`
}

type StudentProvisionDTO struct {
	Email     string `json:"email" binding:"required,email"`
	IDNumber  string `json:"id_number" binding:"required"`
	BatchYear int    `json:"batch_year" binding:"required"`
}

type StudentDTO struct {
	ID        uint   `json:"id"`
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	IDNumber  string `json:"id_number"`
	BatchYear int    `json:"batch_year"`
}
