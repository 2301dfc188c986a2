package service

import (
	"github.com/hems-edu/examgate/internal/model"
	"github.com/hems-edu/examgate/internal/repository"
	"github.com/rs/zerolog/log"
)

// AuditService records advisory events. Recording is fire-and-forget:
// failures are logged and never propagated to the exam flow.
type AuditService interface {
	Record(kind string, attemptID, userID *uint, detail string)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) Record(kind string, attemptID, userID *uint, detail string) {
	event := model.AuditEvent{
		Kind:      kind,
		AttemptID: attemptID,
		UserID:    userID,
		Detail:    detail,
	}
	if err := s.auditRepo.Create(&event); err != nil {
		log.Error().Err(err).Str("kind", kind).Str("detail", detail).Msg("Audit record failed, event dropped")
	}
}
