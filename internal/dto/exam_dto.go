package dto

import "time"

// ChoiceDTO deliberately omits the correctness flag; the answer key
// never leaves the server.
type ChoiceDTO struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type QuestionDTO struct {
	ID       uint        `json:"id"`
	ExamID   uint        `json:"exam_id"`
	Text     string      `json:"text"`
	Sequence int         `json:"sequence"`
	Choices  []ChoiceDTO `json:"choices,omitempty"`
}

type ExamSummaryDTO struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	Year            int    `json:"year"`
	DurationMinutes int    `json:"duration_minutes"`
	Attempted       bool   `json:"attempted"`
}

type AnswerRecordDTO struct {
	QuestionID   uint      `json:"question_id"`
	ChoiceID     *uint     `json:"choice_id,omitempty"`
	Flagged      bool      `json:"flagged"`
	LastModified time.Time `json:"last_modified"`
}

type AttemptDTO struct {
	ID          uint              `json:"id"`
	ExamID      uint              `json:"exam_id"`
	ExamTitle   string            `json:"exam_title,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	Submitted   bool              `json:"submitted"`
	Score       *int              `json:"score,omitempty"`
	Percentage  *float64          `json:"percentage,omitempty"`
	Answers     []AnswerRecordDTO `json:"answers,omitempty"`
}

// AttemptProgressDTO is the lightweight polling payload for the exam UI.
type AttemptProgressDTO struct {
	AttemptID uint   `json:"attempt_id"`
	Total     int    `json:"total"`
	Answered  int    `json:"answered"`
	Flagged   int    `json:"flagged"`
	Remaining string `json:"remaining"`
	Expired   bool   `json:"expired"`
}
