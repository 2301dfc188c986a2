package repository

import (
	"time"

	"github.com/hems-edu/examgate/internal/model"
	"gorm.io/gorm"
)

type SessionCredentialRepository interface {
	Create(cred *model.SessionCredential) error
	FindByID(id uint) (*model.SessionCredential, error)
	// FindCurrent returns the active, unexpired credentials for the
	// given exams.
	FindCurrent(examIDs []uint, now time.Time) ([]model.SessionCredential, error)
	Deactivate(id uint) error
	// Rotate deactivates the exam's prior credentials and persists the
	// replacement in one transaction, so the exam never ends up with no
	// current credential partway through.
	Rotate(cred *model.SessionCredential) error
}

type sessionCredentialRepository struct {
	db *gorm.DB
}

func NewSessionCredentialRepository(db *gorm.DB) SessionCredentialRepository {
	return &sessionCredentialRepository{db: db}
}

func (r *sessionCredentialRepository) Create(cred *model.SessionCredential) error {
	return r.db.Create(cred).Error
}

func (r *sessionCredentialRepository) FindByID(id uint) (*model.SessionCredential, error) {
	var cred model.SessionCredential
	if err := r.db.First(&cred, id).Error; err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *sessionCredentialRepository) FindCurrent(examIDs []uint, now time.Time) ([]model.SessionCredential, error) {
	var creds []model.SessionCredential
	if len(examIDs) == 0 {
		return creds, nil
	}
	err := r.db.
		Where("exam_id IN ? AND active = ? AND expires_at > ?", examIDs, true, now).
		Find(&creds).Error
	return creds, err
}

func (r *sessionCredentialRepository) Deactivate(id uint) error {
	return r.db.Model(&model.SessionCredential{}).
		Where("id = ?", id).
		Update("active", false).Error
}

func (r *sessionCredentialRepository) Rotate(cred *model.SessionCredential) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.SessionCredential{}).
			Where("exam_id = ? AND active = ?", cred.ExamID, true).
			Update("active", false).Error
		if err != nil {
			return err
		}
		return tx.Create(cred).Error
	})
}
