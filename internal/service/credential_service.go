package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hems-edu/examgate/config"
	"github.com/hems-edu/examgate/internal/apperr"
	"github.com/hems-edu/examgate/internal/model"
	"github.com/hems-edu/examgate/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// institutionalYearOffset maps the Gregorian year onto the institutional
// calendar used for phase-1 passwords.
const institutionalYearOffset = 7

// Domains accepted for phase-1 identity verification. Any *.edu address
// passes; everything else must match the named institutional domains.
var allowedEmailDomains = []string{
	"hems.edu.et",
	"student.hems.edu.et",
}

const eduDomainSuffix = ".edu"

// CredentialService is the two-phase authentication gate. Phase 1 proves
// the student owns a university email via a deterministically calculated
// password; phase 2 proves possession of the time-boxed exam-day
// credential and is unreachable before phase 1.
type CredentialService interface {
	CalculatePhase1Password(idNumber string) string
	IsUniversityEmailValid(email string) bool
	ValidatePhase1Login(email, password string) (*model.User, error)
	CompletePhase1Login(userID uint) error
	ValidatePhase2Login(idNumber, password string) (*model.Student, *model.SessionCredential, error)
	ChangeCredential(userID uint, newPassword string) error
	// MustChangeCredential reports whether the identity still carries
	// its provisioned credential and must replace it before proceeding.
	MustChangeCredential(userID uint) (bool, error)

	CreateLoginSession(userID uint, phase int, sessionCredentialID *uint, ip, userAgent string) (string, error)
	ValidateLoginSession(token string) (*model.LoginSession, error)
	InvalidateLoginSession(token string) error
	InvalidateLoginSessions(userID uint) error
	CanStartPhase2Session(userID uint, sessionCredentialID uint) (bool, error)
}

type credentialService struct {
	userRepo    repository.UserRepository
	studentRepo repository.StudentRepository
	examRepo    repository.ExamRepository
	credRepo    repository.SessionCredentialRepository
	sessionRepo repository.LoginSessionRepository
	sessionTTL  time.Duration
	now         func() time.Time
}

func NewCredentialService(
	userRepo repository.UserRepository,
	studentRepo repository.StudentRepository,
	examRepo repository.ExamRepository,
	credRepo repository.SessionCredentialRepository,
	sessionRepo repository.LoginSessionRepository,
	cfg *config.Config,
) CredentialService {
	return &credentialService{
		userRepo:    userRepo,
		studentRepo: studentRepo,
		examRepo:    examRepo,
		credRepo:    credRepo,
		sessionRepo: sessionRepo,
		sessionTTL:  time.Duration(cfg.Auth.SessionTTLHours) * time.Hour,
		now:         time.Now,
	}
}

// CalculatePhase1Password derives the phase-1 password for an ID number:
// the ID number followed by the two-digit suffix of the institutional
// year. Pure and deterministic; blank input yields "".
func (s *credentialService) CalculatePhase1Password(idNumber string) string {
	if strings.TrimSpace(idNumber) == "" {
		return ""
	}
	suffix := (s.now().Year() - institutionalYearOffset) % 100
	return fmt.Sprintf("%s%02d", idNumber, suffix)
}

func (s *credentialService) IsUniversityEmailValid(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	if strings.Count(email, "@") != 1 {
		return false
	}
	at := strings.Index(email, "@")
	local, domain := email[:at], email[at+1:]
	if !validAddressPart(local) || !validAddressPart(domain) {
		return false
	}
	if strings.HasSuffix(domain, eduDomainSuffix) {
		return true
	}
	for _, allowed := range allowedEmailDomains {
		if domain == allowed {
			return true
		}
	}
	return false
}

// validAddressPart rejects empty parts, dots at the outer edges, and any
// dot-separated label that is empty or starts or ends with a dash. The
// label rule applies to the local part and the domain alike.
func validAddressPart(part string) bool {
	if part == "" {
		return false
	}
	for _, label := range strings.Split(part, ".") {
		if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
	}
	return true
}

// ValidatePhase1Login checks the email/derived-password pair without
// flipping any state. It fails fast on malformed input before touching
// storage.
func (s *credentialService) ValidatePhase1Login(email, password string) (*model.User, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "email and password are required")
	}
	if !s.IsUniversityEmailValid(email) {
		return nil, apperr.New(apperr.KindInvalidInput, "email is not a recognized university address")
	}

	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "no identity for email")
		}
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "looking up identity")
	}
	if user.Phase1Complete {
		return nil, apperr.New(apperr.KindPreconditionFailed, "phase 1 already completed")
	}

	student, err := s.studentRepo.FindByUserID(user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "no student record for identity")
		}
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "looking up student record")
	}

	if password != s.CalculatePhase1Password(student.IDNumber) {
		return nil, apperr.New(apperr.KindPreconditionFailed, "phase 1 password mismatch")
	}
	return user, nil
}

// CompletePhase1Login flips Phase1Complete exactly once. It is the only
// writer of that flag.
func (s *credentialService) CompletePhase1Login(userID uint) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "identity %d not found", userID)
		}
		return apperr.Wrap(apperr.KindInfrastructure, err, "looking up identity %d", userID)
	}
	if user.Phase1Complete {
		return apperr.New(apperr.KindPreconditionFailed, "phase 1 already completed for identity %d", userID)
	}
	user.Phase1Complete = true
	if err := s.userRepo.Update(user); err != nil {
		return apperr.Wrap(apperr.KindInfrastructure, err, "persisting phase 1 completion")
	}
	log.Info().Uint("userID", userID).Msg("Phase 1 verification completed")
	return nil
}

// ValidatePhase2Login checks the exam-day credential. Phase ordering is
// an invariant: a student whose identity has not completed phase 1 can
// never pass phase 2, regardless of password correctness.
func (s *credentialService) ValidatePhase2Login(idNumber, password string) (*model.Student, *model.SessionCredential, error) {
	if strings.TrimSpace(idNumber) == "" || strings.TrimSpace(password) == "" {
		return nil, nil, apperr.New(apperr.KindInvalidInput, "id number and password are required")
	}

	student, err := s.studentRepo.FindByIDNumber(strings.TrimSpace(idNumber))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "no student record for id number")
		}
		return nil, nil, apperr.Wrap(apperr.KindInfrastructure, err, "looking up student record")
	}

	user, err := s.userRepo.FindByID(student.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "no identity for student")
		}
		return nil, nil, apperr.Wrap(apperr.KindInfrastructure, err, "looking up identity")
	}
	if !user.Phase1Complete {
		return nil, nil, apperr.New(apperr.KindPreconditionFailed, "phase 2 requires completed phase 1")
	}

	now := s.now()
	exams, err := s.examRepo.FindPublishedByYear(now.Year())
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInfrastructure, err, "listing published exams")
	}
	examIDs := make([]uint, 0, len(exams))
	for _, exam := range exams {
		examIDs = append(examIDs, exam.ID)
	}

	creds, err := s.credRepo.FindCurrent(examIDs, now)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInfrastructure, err, "listing session credentials")
	}
	for i := range creds {
		if bcrypt.CompareHashAndPassword([]byte(creds[i].PasswordHash), []byte(password)) == nil {
			return student, &creds[i], nil
		}
	}
	return nil, nil, apperr.New(apperr.KindPreconditionFailed, "no active session credential matches")
}

func (s *credentialService) ChangeCredential(userID uint, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperr.New(apperr.KindInvalidInput, "new password is required")
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "identity %d not found", userID)
		}
		return apperr.Wrap(apperr.KindInfrastructure, err, "looking up identity %d", userID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Wrap(apperr.KindInfrastructure, err, "hashing new password")
	}
	user.PasswordHash = string(hash)
	user.MustChangePassword = false
	if err := s.userRepo.Update(user); err != nil {
		return apperr.Wrap(apperr.KindInfrastructure, err, "persisting credential change")
	}
	log.Info().Uint("userID", userID).Msg("Credential changed")
	return nil
}

func (s *credentialService) MustChangeCredential(userID uint) (bool, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperr.New(apperr.KindNotFound, "identity %d not found", userID)
		}
		return false, apperr.Wrap(apperr.KindInfrastructure, err, "looking up identity %d", userID)
	}
	return user.MustChangePassword, nil
}

// CreateLoginSession issues an opaque token for an authenticated login.
// For phase 2 it refuses to start a second live session for the same
// (user, session credential) pair.
func (s *credentialService) CreateLoginSession(userID uint, phase int, sessionCredentialID *uint, ip, userAgent string) (string, error) {
	if phase != 1 && phase != 2 {
		return "", apperr.New(apperr.KindInvalidInput, "phase must be 1 or 2, got %d", phase)
	}
	if phase == 2 {
		if sessionCredentialID == nil {
			return "", apperr.New(apperr.KindInvalidInput, "phase 2 session requires a session credential")
		}
		ok, err := s.CanStartPhase2Session(userID, *sessionCredentialID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", apperr.New(apperr.KindPreconditionFailed, "a phase 2 session is already active for this exam")
		}
	}

	session := model.LoginSession{
		Token:               uuid.NewString(),
		UserID:              userID,
		Phase:               phase,
		SessionCredentialID: sessionCredentialID,
		IPAddress:           ip,
		UserAgent:           userAgent,
		Active:              true,
		ExpiresAt:           s.now().Add(s.sessionTTL),
	}
	if err := s.sessionRepo.Create(&session); err != nil {
		return "", apperr.Wrap(apperr.KindInfrastructure, err, "creating login session")
	}
	return session.Token, nil
}

func (s *credentialService) ValidateLoginSession(token string) (*model.LoginSession, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "session token is required")
	}
	session, err := s.sessionRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "unknown session token")
		}
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "looking up login session")
	}
	if !session.Active {
		return nil, apperr.New(apperr.KindPreconditionFailed, "login session is no longer active")
	}
	if s.now().After(session.ExpiresAt) {
		return nil, apperr.New(apperr.KindPreconditionFailed, "login session has expired")
	}
	return session, nil
}

func (s *credentialService) InvalidateLoginSession(token string) error {
	if err := s.sessionRepo.Deactivate(token); err != nil {
		return apperr.Wrap(apperr.KindInfrastructure, err, "invalidating login session")
	}
	return nil
}

func (s *credentialService) InvalidateLoginSessions(userID uint) error {
	if err := s.sessionRepo.DeactivateAllForUser(userID); err != nil {
		return apperr.Wrap(apperr.KindInfrastructure, err, "invalidating login sessions for user %d", userID)
	}
	return nil
}

func (s *credentialService) CanStartPhase2Session(userID uint, sessionCredentialID uint) (bool, error) {
	active, err := s.sessionRepo.HasActivePhase2(userID, sessionCredentialID, s.now())
	if err != nil {
		return false, apperr.Wrap(apperr.KindInfrastructure, err, "checking for active phase 2 session")
	}
	return !active, nil
}
