package repository

import (
	"github.com/hems-edu/examgate/internal/model"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	// FindByExamAndSequence returns the question at an exact sequence
	// position, or gorm.ErrRecordNotFound at either boundary.
	FindByExamAndSequence(examID uint, sequence int) (*model.Question, error)
	FindChoice(id uint) (*model.Choice, error)
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) FindByExamAndSequence(examID uint, sequence int) (*model.Question, error) {
	var question model.Question
	err := r.db.
		Preload("Choices").
		Where("exam_id = ? AND sequence = ?", examID, sequence).
		First(&question).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) FindChoice(id uint) (*model.Choice, error) {
	var choice model.Choice
	if err := r.db.First(&choice, id).Error; err != nil {
		return nil, err
	}
	return &choice, nil
}

