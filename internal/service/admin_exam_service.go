package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hems-edu/examgate/config"
	"github.com/hems-edu/examgate/internal/apperr"
	"github.com/hems-edu/examgate/internal/dto"
	"github.com/hems-edu/examgate/internal/model"
	"github.com/hems-edu/examgate/internal/repository"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const adminTokenTTL = 24 * time.Hour

// AdminExamService covers the coordinator workflow: exam authoring, the
// monotone publish flip, exam-day credential rotation, and student
// provisioning.
type AdminExamService interface {
	Login(email, password string) (string, error)
	ValidateToken(token string) (uint, error)

	CreateExam(req dto.ExamCreateDTO) (*dto.ExamDTO, error)
	PublishExam(examID uint) error
	CreateSessionCredential(examID uint, req dto.SessionCredentialCreateDTO) (*dto.SessionCredentialDTO, error)
	DeactivateSessionCredential(id uint) error
	ProvisionStudent(req dto.StudentProvisionDTO) (*dto.StudentDTO, error)
}

type adminExamService struct {
	userRepo    repository.UserRepository
	studentRepo repository.StudentRepository
	examRepo    repository.ExamRepository
	credRepo    repository.SessionCredentialRepository
	credentials CredentialService
	jwtSecret   []byte
	now         func() time.Time
}

func NewAdminExamService(
	userRepo repository.UserRepository,
	studentRepo repository.StudentRepository,
	examRepo repository.ExamRepository,
	credRepo repository.SessionCredentialRepository,
	credentials CredentialService,
	cfg *config.Config,
) AdminExamService {
	return &adminExamService{
		userRepo:    userRepo,
		studentRepo: studentRepo,
		examRepo:    examRepo,
		credRepo:    credRepo,
		credentials: credentials,
		jwtSecret:   []byte(cfg.Auth.AdminJWTSecret),
		now:         time.Now,
	}
}

func (s *adminExamService) Login(email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return "", apperr.New(apperr.KindInvalidInput, "email and password are required")
	}
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.New(apperr.KindPreconditionFailed, "invalid credentials")
		}
		return "", apperr.Wrap(apperr.KindInfrastructure, err, "looking up admin")
	}
	if user.Role != model.RoleAdmin {
		return "", apperr.New(apperr.KindPreconditionFailed, "invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", apperr.New(apperr.KindPreconditionFailed, "invalid credentials")
	}

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    model.RoleAdmin,
		"exp":     s.now().Add(adminTokenTTL).Unix(),
		"iat":     s.now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInfrastructure, err, "signing admin token")
	}
	return signed, nil
}

func (s *adminExamService) ValidateToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, apperr.New(apperr.KindPreconditionFailed, "invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, apperr.New(apperr.KindPreconditionFailed, "invalid token claims")
	}
	if role, _ := claims["role"].(string); role != model.RoleAdmin {
		return 0, apperr.New(apperr.KindPreconditionFailed, "token lacks admin role")
	}
	id, ok := claims["user_id"].(float64)
	if !ok {
		return 0, apperr.New(apperr.KindPreconditionFailed, "invalid token claims")
	}
	return uint(id), nil
}

// CreateExam validates and persists the exam with its questions and
// choices in one call. Exactly one correct choice per question and
// unique sequence numbers are enforced here, at authoring time, so the
// grading service can assume them.
func (s *adminExamService) CreateExam(req dto.ExamCreateDTO) (*dto.ExamDTO, error) {
	seen := make(map[int]bool, len(req.Questions))
	exam := model.Exam{
		Title:           req.Title,
		Year:            req.Year,
		DurationMinutes: req.DurationMinutes,
	}
	for _, qReq := range req.Questions {
		if seen[qReq.Sequence] {
			return nil, apperr.New(apperr.KindInvalidInput, "duplicate sequence %d", qReq.Sequence)
		}
		seen[qReq.Sequence] = true

		correct := 0
		question := model.Question{Text: qReq.Text, Sequence: qReq.Sequence}
		for _, cReq := range qReq.Choices {
			if cReq.IsCorrect {
				correct++
			}
			question.Choices = append(question.Choices, model.Choice{
				Text:      cReq.Text,
				IsCorrect: cReq.IsCorrect,
			})
		}
		if correct != 1 {
			return nil, apperr.New(apperr.KindInvalidInput,
				"question at sequence %d must have exactly one correct choice, got %d", qReq.Sequence, correct)
		}
		exam.Questions = append(exam.Questions, question)
	}

	if err := s.examRepo.Create(&exam); err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "creating exam")
	}
	log.Info().Uint("examID", exam.ID).Int("questions", len(exam.Questions)).Msg("Exam created")

	var resp dto.ExamDTO
	if err := copier.Copy(&resp, &exam); err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "preparing exam response")
	}
	return &resp, nil
}

// PublishExam flips the monotone publish flag. Re-publishing is a no-op
// success; there is no unpublish.
func (s *adminExamService) PublishExam(examID uint) error {
	if _, err := s.examRepo.FindByID(examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "exam %d not found", examID)
		}
		return apperr.Wrap(apperr.KindInfrastructure, err, "looking up exam %d", examID)
	}
	if err := s.examRepo.MarkPublished(examID); err != nil {
		return apperr.Wrap(apperr.KindInfrastructure, err, "publishing exam %d", examID)
	}
	log.Info().Uint("examID", examID).Msg("Exam published")
	return nil
}

// CreateSessionCredential rotates the exam-day password: prior
// credentials are deactivated so at most one is logically current.
func (s *adminExamService) CreateSessionCredential(examID uint, req dto.SessionCredentialCreateDTO) (*dto.SessionCredentialDTO, error) {
	if !req.ExpiresAt.After(s.now()) {
		return nil, apperr.New(apperr.KindInvalidInput, "expiry must be in the future")
	}
	if _, err := s.examRepo.FindByID(examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "exam %d not found", examID)
		}
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "looking up exam %d", examID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "hashing session credential")
	}
	cred := model.SessionCredential{
		ExamID:       examID,
		PasswordHash: string(hash),
		Active:       true,
		ExpiresAt:    req.ExpiresAt,
	}
	if err := s.credRepo.Rotate(&cred); err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "rotating session credential")
	}
	log.Info().Uint("examID", examID).Uint("credentialID", cred.ID).Time("expiresAt", cred.ExpiresAt).Msg("Session credential rotated")

	return &dto.SessionCredentialDTO{
		ID:        cred.ID,
		ExamID:    cred.ExamID,
		Active:    cred.Active,
		ExpiresAt: cred.ExpiresAt,
	}, nil
}

func (s *adminExamService) DeactivateSessionCredential(id uint) error {
	if _, err := s.credRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "session credential %d not found", id)
		}
		return apperr.Wrap(apperr.KindInfrastructure, err, "looking up session credential %d", id)
	}
	if err := s.credRepo.Deactivate(id); err != nil {
		return apperr.Wrap(apperr.KindInfrastructure, err, "deactivating session credential %d", id)
	}
	return nil
}

// ProvisionStudent creates the identity and student record with a
// must-change initial credential derived from the ID number.
func (s *adminExamService) ProvisionStudent(req dto.StudentProvisionDTO) (*dto.StudentDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !s.credentials.IsUniversityEmailValid(email) {
		return nil, apperr.New(apperr.KindInvalidInput, "email is not a recognized university address")
	}

	initial := s.credentials.CalculatePhase1Password(req.IDNumber)
	if initial == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "id number is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(initial), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "hashing initial credential")
	}

	user := model.User{
		Email:              email,
		PasswordHash:       string(hash),
		Role:               model.RoleStudent,
		MustChangePassword: true,
	}
	student := model.Student{
		IDNumber:  strings.TrimSpace(req.IDNumber),
		BatchYear: req.BatchYear,
	}
	if err := s.studentRepo.CreateWithUser(&user, &student); err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "creating student identity")
	}
	log.Info().Uint("userID", user.ID).Str("idNumber", student.IDNumber).Msg("Student provisioned")

	return &dto.StudentDTO{
		ID:        student.ID,
		UserID:    user.ID,
		Email:     user.Email,
		IDNumber:  student.IDNumber,
		BatchYear: student.BatchYear,
	}, nil
}
