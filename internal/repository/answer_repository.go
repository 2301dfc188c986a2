package repository

import (
	"time"

	"github.com/hems-edu/examgate/internal/model"
	"gorm.io/gorm"
)

type AnswerRepository interface {
	FindByAttemptID(attemptID uint) ([]model.AnswerRecord, error)
	FindByAttemptAndQuestion(attemptID, questionID uint) (*model.AnswerRecord, error)
	// UpdateChoice overwrites the selected choice. Last write wins; no
	// history is retained.
	UpdateChoice(id uint, choiceID uint, modified time.Time) error
	UpdateFlag(id uint, flagged bool, modified time.Time) error
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) FindByAttemptID(attemptID uint) ([]model.AnswerRecord, error) {
	var answers []model.AnswerRecord
	err := r.db.
		Where("attempt_id = ?", attemptID).
		Find(&answers).Error
	return answers, err
}

func (r *answerRepository) FindByAttemptAndQuestion(attemptID, questionID uint) (*model.AnswerRecord, error) {
	var answer model.AnswerRecord
	err := r.db.
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&answer).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *answerRepository) UpdateChoice(id uint, choiceID uint, modified time.Time) error {
	return r.db.Model(&model.AnswerRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"choice_id":     choiceID,
			"last_modified": modified,
		}).Error
}

func (r *answerRepository) UpdateFlag(id uint, flagged bool, modified time.Time) error {
	return r.db.Model(&model.AnswerRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"flagged":       flagged,
			"last_modified": modified,
		}).Error
}
