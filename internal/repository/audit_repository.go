package repository

import (
	"github.com/hems-edu/examgate/internal/model"
	"gorm.io/gorm"
)

type AuditRepository interface {
	Create(event *model.AuditEvent) error
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(event *model.AuditEvent) error {
	return r.db.Create(event).Error
}
