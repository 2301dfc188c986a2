package repository

import (
	"time"

	"github.com/hems-edu/examgate/internal/model"
	"gorm.io/gorm"
)

type LoginSessionRepository interface {
	Create(session *model.LoginSession) error
	FindByToken(token string) (*model.LoginSession, error)
	Deactivate(token string) error
	DeactivateAllForUser(userID uint) error
	// HasActivePhase2 reports whether the user already holds a live
	// phase-2 session bound to the given session credential.
	HasActivePhase2(userID uint, sessionCredentialID uint, now time.Time) (bool, error)
}

type loginSessionRepository struct {
	db *gorm.DB
}

func NewLoginSessionRepository(db *gorm.DB) LoginSessionRepository {
	return &loginSessionRepository{db: db}
}

func (r *loginSessionRepository) Create(session *model.LoginSession) error {
	return r.db.Create(session).Error
}

func (r *loginSessionRepository) FindByToken(token string) (*model.LoginSession, error) {
	var session model.LoginSession
	if err := r.db.Where("token = ?", token).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *loginSessionRepository) Deactivate(token string) error {
	return r.db.Model(&model.LoginSession{}).
		Where("token = ?", token).
		Update("active", false).Error
}

func (r *loginSessionRepository) DeactivateAllForUser(userID uint) error {
	return r.db.Model(&model.LoginSession{}).
		Where("user_id = ? AND active = ?", userID, true).
		Update("active", false).Error
}

func (r *loginSessionRepository) HasActivePhase2(userID uint, sessionCredentialID uint, now time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&model.LoginSession{}).
		Where("user_id = ? AND session_credential_id = ? AND phase = ? AND active = ? AND expires_at > ?",
			userID, sessionCredentialID, 2, true, now).
		Count(&count).Error
	return count > 0, err
}
