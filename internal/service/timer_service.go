package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/hems-edu/examgate/config"
	"github.com/hems-edu/examgate/internal/apperr"
	"github.com/hems-edu/examgate/internal/model"
	"github.com/hems-edu/examgate/internal/repository"
	"gorm.io/gorm"
)

// SecureTimestamp is the anti-tamper primitive the client countdown is
// built on: the server time plus an HMAC binding it to one attempt. The
// client may echo (ServerTime, Hash) back later; any mismatch on
// re-computation means the echoed value was altered.
type SecureTimestamp struct {
	ServerTime     time.Time     `json:"server_time"`
	Remaining      time.Duration `json:"-"`
	RemainingClock string        `json:"remaining"`
	Expired        bool          `json:"expired"`
	Hash           string        `json:"hash"`
}

// TimerService computes elapsed and remaining exam time. Remaining time
// is always a function of the persisted start instant and the server
// clock, never of anything the client reports; there is no in-memory
// countdown to lose on a restart.
type TimerService interface {
	RemainingTime(attemptID uint) (time.Duration, error)
	IsExpired(attemptID uint) (bool, error)
	SecureTimestamp(attemptID uint) (*SecureTimestamp, error)
	ValidateTimestampHash(attemptID uint, serverTime time.Time, hash string) bool
	// ValidateExamTimeIntegrity reports whether the client-reported
	// elapsed time is consistent with the server's, within tolerance.
	// False means the client claims less time has passed than the
	// server can prove.
	ValidateExamTimeIntegrity(attemptID uint, clientElapsed time.Duration) (bool, error)
	// DetectSuspiciousTimingActivity is the advisory wrapper: it records
	// an audit event on a mismatch and never blocks the session.
	DetectSuspiciousTimingActivity(attemptID uint, clientElapsed time.Duration) bool
}

type timerService struct {
	attemptRepo repository.AttemptRepository
	examRepo    repository.ExamRepository
	audit       AuditService
	secret      []byte
	tolerance   time.Duration
	now         func() time.Time
}

func NewTimerService(
	attemptRepo repository.AttemptRepository,
	examRepo repository.ExamRepository,
	audit AuditService,
	cfg *config.Config,
) TimerService {
	return &timerService{
		attemptRepo: attemptRepo,
		examRepo:    examRepo,
		audit:       audit,
		secret:      []byte(cfg.Timer.Secret),
		tolerance:   time.Duration(cfg.Timer.ToleranceSeconds) * time.Second,
		now:         time.Now,
	}
}

func (s *timerService) RemainingTime(attemptID uint) (time.Duration, error) {
	attempt, duration, err := s.loadAttemptDuration(attemptID)
	if err != nil {
		return 0, err
	}
	remaining := duration - s.now().Sub(attempt.StartedAt)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *timerService) IsExpired(attemptID uint) (bool, error) {
	remaining, err := s.RemainingTime(attemptID)
	if err != nil {
		return false, err
	}
	return remaining <= 0, nil
}

func (s *timerService) SecureTimestamp(attemptID uint) (*SecureTimestamp, error) {
	remaining, err := s.RemainingTime(attemptID)
	if err != nil {
		return nil, err
	}
	serverTime := s.now()
	return &SecureTimestamp{
		ServerTime:     serverTime,
		Remaining:      remaining,
		RemainingClock: FormatClock(remaining),
		Expired:        remaining <= 0,
		Hash:           s.timestampHash(attemptID, serverTime),
	}, nil
}

func (s *timerService) ValidateTimestampHash(attemptID uint, serverTime time.Time, hash string) bool {
	expected := s.timestampHash(attemptID, serverTime)
	return hmac.Equal([]byte(expected), []byte(hash))
}

func (s *timerService) ValidateExamTimeIntegrity(attemptID uint, clientElapsed time.Duration) (bool, error) {
	attempt, _, err := s.loadAttemptDuration(attemptID)
	if err != nil {
		return false, err
	}
	serverElapsed := s.now().Sub(attempt.StartedAt)
	// Only the direction that would grant extra time is suspicious; a
	// client that claims more elapsed time than the server hurts only
	// itself.
	return clientElapsed >= serverElapsed-s.tolerance, nil
}

func (s *timerService) DetectSuspiciousTimingActivity(attemptID uint, clientElapsed time.Duration) bool {
	ok, err := s.ValidateExamTimeIntegrity(attemptID, clientElapsed)
	if err != nil {
		return false
	}
	if !ok {
		id := attemptID
		s.audit.Record(model.AuditSuspiciousTiming, &id, nil,
			fmt.Sprintf("client reported %s elapsed", clientElapsed))
	}
	return !ok
}

func (s *timerService) timestampHash(attemptID uint, serverTime time.Time) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%d|%d", attemptID, serverTime.Unix())
	return hex.EncodeToString(mac.Sum(nil))
}

// loadAttemptDuration resolves the attempt and its exam duration. A
// missing exam yields a zero duration rather than an error: callers
// treat zero as "immediately expired".
func (s *timerService) loadAttemptDuration(attemptID uint) (*model.ExamAttempt, time.Duration, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, apperr.New(apperr.KindNotFound, "attempt %d not found", attemptID)
		}
		return nil, 0, apperr.Wrap(apperr.KindInfrastructure, err, "looking up attempt %d", attemptID)
	}
	exam, err := s.examRepo.FindByID(attempt.ExamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return attempt, 0, nil
		}
		return nil, 0, apperr.Wrap(apperr.KindInfrastructure, err, "looking up exam %d", attempt.ExamID)
	}
	return attempt, time.Duration(exam.DurationMinutes) * time.Minute, nil
}

// FormatClock renders a duration as HH:MM:SS. Hours may exceed 24; zero
// and negative durations both render as 00:00:00.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
