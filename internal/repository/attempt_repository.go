package repository

import (
	"time"

	"github.com/hems-edu/examgate/internal/model"
	"gorm.io/gorm"
)

type AttemptRepository interface {
	// Create persists the attempt and its pre-created answer records in
	// one transaction.
	Create(attempt *model.ExamAttempt) error
	FindByID(id uint) (*model.ExamAttempt, error)
	FindByIDWithAnswers(id uint) (*model.ExamAttempt, error)
	FindByStudentAndExam(studentID, examID uint) (*model.ExamAttempt, error)
	// MarkSubmitted is the compare-and-set on the submitted flag. It
	// reports whether this call won the transition; false means another
	// submit (manual or expiry-forced) got there first.
	MarkSubmitted(id uint, submittedAt time.Time) (bool, error)
	UpdateGrade(id uint, score int, percentage float64) error
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(attempt *model.ExamAttempt) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(attempt).Error
	})
}

func (r *attemptRepository) FindByID(id uint) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	if err := r.db.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByIDWithAnswers(id uint) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	err := r.db.
		Preload("Exam").
		Preload("Answers.Question").
		First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByStudentAndExam(studentID, examID uint) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	err := r.db.
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) MarkSubmitted(id uint, submittedAt time.Time) (bool, error) {
	res := r.db.Model(&model.ExamAttempt{}).
		Where("id = ? AND submitted = ?", id, false).
		Updates(map[string]any{
			"submitted":    true,
			"submitted_at": submittedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *attemptRepository) UpdateGrade(id uint, score int, percentage float64) error {
	return r.db.Model(&model.ExamAttempt{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"score":      score,
			"percentage": percentage,
		}).Error
}
