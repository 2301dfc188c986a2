package service

import (
	"errors"

	"github.com/hems-edu/examgate/internal/apperr"
	"github.com/hems-edu/examgate/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// GradingService scores a submitted attempt against the answer key.
// Grading recomputes from the immutable answer set every time and never
// reads its own prior output, so regrading an attempt is byte-for-byte
// idempotent.
type GradingService interface {
	CalculateScore(attemptID uint) (int, error)
	CalculatePercentage(score, total int) float64
	GradeExam(attemptID uint) error
}

type gradingService struct {
	attemptRepo repository.AttemptRepository
	examRepo    repository.ExamRepository
	answerRepo  repository.AnswerRepository
}

func NewGradingService(
	attemptRepo repository.AttemptRepository,
	examRepo repository.ExamRepository,
	answerRepo repository.AnswerRepository,
) GradingService {
	return &gradingService{
		attemptRepo: attemptRepo,
		examRepo:    examRepo,
		answerRepo:  answerRepo,
	}
}

// CalculateScore counts answer records whose selected choice is the
// question's correct choice. A null selection never counts.
func (s *gradingService) CalculateScore(attemptID uint) (int, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.New(apperr.KindNotFound, "attempt %d not found", attemptID)
		}
		return 0, apperr.Wrap(apperr.KindInfrastructure, err, "looking up attempt %d", attemptID)
	}

	exam, err := s.examRepo.FindByIDWithQuestions(attempt.ExamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.New(apperr.KindNotFound, "exam %d not found", attempt.ExamID)
		}
		return 0, apperr.Wrap(apperr.KindInfrastructure, err, "looking up exam %d", attempt.ExamID)
	}

	correctByQuestion := make(map[uint]uint, len(exam.Questions))
	for _, question := range exam.Questions {
		for _, choice := range question.Choices {
			if choice.IsCorrect {
				correctByQuestion[question.ID] = choice.ID
			}
		}
	}

	answers, err := s.answerRepo.FindByAttemptID(attemptID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInfrastructure, err, "loading answers for attempt %d", attemptID)
	}

	score := 0
	for _, answer := range answers {
		if answer.ChoiceID == nil {
			continue
		}
		if correct, ok := correctByQuestion[answer.QuestionID]; ok && *answer.ChoiceID == correct {
			score++
		}
	}
	return score, nil
}

// CalculatePercentage treats a zero-question exam as worth 0%, not 100%.
func (s *gradingService) CalculatePercentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(score) / float64(total) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// GradeExam computes and persists score and percentage for a submitted
// attempt.
func (s *gradingService) GradeExam(attemptID uint) error {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "attempt %d not found", attemptID)
		}
		return apperr.Wrap(apperr.KindInfrastructure, err, "looking up attempt %d", attemptID)
	}
	if !attempt.Submitted {
		return apperr.New(apperr.KindPreconditionFailed, "attempt %d is not submitted", attemptID)
	}

	score, err := s.CalculateScore(attemptID)
	if err != nil {
		return err
	}

	questions, err := s.examRepo.FindByIDWithQuestions(attempt.ExamID)
	if err != nil {
		return apperr.Wrap(apperr.KindInfrastructure, err, "looking up exam %d", attempt.ExamID)
	}
	percentage := s.CalculatePercentage(score, len(questions.Questions))

	if err := s.attemptRepo.UpdateGrade(attemptID, score, percentage); err != nil {
		return apperr.Wrap(apperr.KindInfrastructure, err, "persisting grade for attempt %d", attemptID)
	}
	log.Info().Uint("attemptID", attemptID).Int("score", score).Float64("percentage", percentage).Msg("Attempt graded")
	return nil
}
