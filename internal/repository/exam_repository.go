package repository

import (
	"github.com/hems-edu/examgate/internal/model"
	"gorm.io/gorm"
)

type ExamRepository interface {
	Create(exam *model.Exam) error
	FindByID(id uint) (*model.Exam, error)
	FindByIDWithQuestions(id uint) (*model.Exam, error)
	FindPublishedByYear(year int) ([]model.Exam, error)
	// MarkPublished flips the monotone publish flag. Publishing an
	// already-published exam is a no-op.
	MarkPublished(id uint) error
}

type examRepository struct {
	db *gorm.DB
}

func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) Create(exam *model.Exam) error {
	// GORM creates the associated questions and choices in the same call.
	return r.db.Create(exam).Error
}

func (r *examRepository) FindByID(id uint) (*model.Exam, error) {
	var exam model.Exam
	if err := r.db.First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepository) FindByIDWithQuestions(id uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.sequence ASC")
		}).
		Preload("Questions.Choices").
		First(&exam, id).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepository) FindPublishedByYear(year int) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.db.
		Where("published = ? AND year = ?", true, year).
		Order("created_at DESC").
		Find(&exams).Error
	return exams, err
}

func (r *examRepository) MarkPublished(id uint) error {
	return r.db.Model(&model.Exam{}).
		Where("id = ?", id).
		Update("published", true).Error
}
