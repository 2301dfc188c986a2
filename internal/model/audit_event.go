package model

import "time"

const (
	AuditSuspiciousTiming = "suspicious_timing"
	AuditSubmitConflict   = "submit_conflict"
	AuditForcedSubmit     = "forced_submit"
	AuditTimestampTamper  = "timestamp_tamper"
)

// AuditEvent is an append-only advisory record; nothing in the exam flow
// ever reads it back.
type AuditEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Kind      string    `json:"kind" gorm:"not null;index"`
	AttemptID *uint     `json:"attempt_id,omitempty" gorm:"index"`
	UserID    *uint     `json:"user_id,omitempty" gorm:"index"`
	Detail    string    `json:"detail" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}
