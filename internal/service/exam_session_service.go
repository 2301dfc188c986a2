package service

import (
	"errors"
	"time"

	"github.com/hems-edu/examgate/internal/apperr"
	"github.com/hems-edu/examgate/internal/dto"
	"github.com/hems-edu/examgate/internal/model"
	"github.com/hems-edu/examgate/internal/repository"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AuthContext is the explicit session value passed into every exam
// operation: the authenticated identity plus the login session it is
// bound to. Nothing in this package reads ambient state.
type AuthContext struct {
	UserID  uint
	Session *model.LoginSession
}

// ExamSessionService owns the state machine for a student's attempt:
// NotStarted -> InProgress -> Submitted, with Submitted terminal. The
// credential gate authorizes StartExam; the timer gates every mutation.
type ExamSessionService interface {
	ListAvailableExams(auth AuthContext) ([]dto.ExamSummaryDTO, error)
	StartExam(auth AuthContext, examID uint) (*dto.AttemptDTO, error)
	SaveAnswer(auth AuthContext, attemptID, questionID, choiceID uint) error
	FlagQuestion(auth AuthContext, attemptID, questionID uint, flagged bool) error
	SubmitExam(auth AuthContext, attemptID uint) (*dto.AttemptDTO, error)
	// ForceSubmitExpired performs the authoritative expiry-triggered
	// submission. Losing the race to a voluntary submit is not an error.
	ForceSubmitExpired(attemptID uint) error
	AttemptProgress(auth AuthContext, attemptID uint) (*dto.AttemptProgressDTO, error)

	// GetNextQuestion and GetPreviousQuestion are pure adjacency lookups
	// by sequence order; nil at either boundary.
	GetNextQuestion(examID uint, sequence int) (*dto.QuestionDTO, error)
	GetPreviousQuestion(examID uint, sequence int) (*dto.QuestionDTO, error)
}

type examSessionService struct {
	userRepo     repository.UserRepository
	studentRepo  repository.StudentRepository
	examRepo     repository.ExamRepository
	questionRepo repository.QuestionRepository
	attemptRepo  repository.AttemptRepository
	answerRepo   repository.AnswerRepository
	timer        TimerService
	grading      GradingService
	audit        AuditService
	now          func() time.Time
}

func NewExamSessionService(
	userRepo repository.UserRepository,
	studentRepo repository.StudentRepository,
	examRepo repository.ExamRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	timer TimerService,
	grading GradingService,
	audit AuditService,
) ExamSessionService {
	return &examSessionService{
		userRepo:     userRepo,
		studentRepo:  studentRepo,
		examRepo:     examRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		answerRepo:   answerRepo,
		timer:        timer,
		grading:      grading,
		audit:        audit,
		now:          time.Now,
	}
}

func (s *examSessionService) ListAvailableExams(auth AuthContext) ([]dto.ExamSummaryDTO, error) {
	student, err := s.studentForUser(auth.UserID)
	if err != nil {
		return nil, err
	}
	exams, err := s.examRepo.FindPublishedByYear(s.now().Year())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "listing published exams")
	}

	summaries := make([]dto.ExamSummaryDTO, 0, len(exams))
	for _, exam := range exams {
		summary := dto.ExamSummaryDTO{
			ID:              exam.ID,
			Title:           exam.Title,
			Year:            exam.Year,
			DurationMinutes: exam.DurationMinutes,
		}
		if _, err := s.attemptRepo.FindByStudentAndExam(student.ID, exam.ID); err == nil {
			summary.Attempted = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.KindInfrastructure, err, "checking attempt for exam %d", exam.ID)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// StartExam creates the attempt and one blank answer record per
// question. Preconditions: exam published, exam year is the current
// cycle, both auth phases complete, and no prior attempt for this
// (student, exam) pair — which is what forbids re-attempts after
// submission. Cohort year is deliberately not checked: any batch may sit
// the current exam.
func (s *examSessionService) StartExam(auth AuthContext, examID uint) (*dto.AttemptDTO, error) {
	if auth.Session == nil || auth.Session.Phase != 2 {
		return nil, apperr.New(apperr.KindPreconditionFailed, "starting an exam requires a phase 2 login session")
	}
	user, err := s.userRepo.FindByID(auth.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "identity %d not found", auth.UserID)
		}
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "looking up identity %d", auth.UserID)
	}
	if !user.Phase1Complete {
		return nil, apperr.New(apperr.KindPreconditionFailed, "identity has not completed phase 1")
	}

	student, err := s.studentForUser(auth.UserID)
	if err != nil {
		return nil, err
	}

	exam, err := s.examRepo.FindByIDWithQuestions(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "exam %d not found", examID)
		}
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "looking up exam %d", examID)
	}
	if !exam.Published {
		return nil, apperr.New(apperr.KindPreconditionFailed, "exam %d is not published", examID)
	}
	if exam.Year != s.now().Year() {
		return nil, apperr.New(apperr.KindPreconditionFailed, "exam %d is not part of the current cycle", examID)
	}

	if _, err := s.attemptRepo.FindByStudentAndExam(student.ID, examID); err == nil {
		return nil, apperr.New(apperr.KindPreconditionFailed, "exam %d already attempted", examID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "checking for prior attempt")
	}

	started := s.now()
	attempt := model.ExamAttempt{
		StudentID: student.ID,
		ExamID:    examID,
		StartedAt: started,
	}
	for _, question := range exam.Questions {
		attempt.Answers = append(attempt.Answers, model.AnswerRecord{
			QuestionID:   question.ID,
			LastModified: started,
		})
	}

	if err := s.attemptRepo.Create(&attempt); err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "creating attempt")
	}
	log.Info().Uint("studentID", student.ID).Uint("examID", examID).Uint("attemptID", attempt.ID).Msg("Exam attempt started")

	resp := s.attemptDTO(&attempt)
	resp.ExamTitle = exam.Title
	return resp, nil
}

// SaveAnswer overwrites the selected choice; last write wins. An expired
// timer forces the authoritative submission before the call fails.
func (s *examSessionService) SaveAnswer(auth AuthContext, attemptID, questionID, choiceID uint) error {
	answer, err := s.mutableAnswer(auth, attemptID, questionID)
	if err != nil {
		return err
	}

	choice, err := s.questionRepo.FindChoice(choiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "choice %d not found", choiceID)
		}
		return apperr.Wrap(apperr.KindInfrastructure, err, "looking up choice %d", choiceID)
	}
	if choice.QuestionID != questionID {
		return apperr.New(apperr.KindPreconditionFailed, "choice %d does not belong to question %d", choiceID, questionID)
	}

	if err := s.answerRepo.UpdateChoice(answer.ID, choiceID, s.now()); err != nil {
		return apperr.Wrap(apperr.KindInfrastructure, err, "saving answer")
	}
	return nil
}

// FlagQuestion toggles the review flag without touching the choice.
func (s *examSessionService) FlagQuestion(auth AuthContext, attemptID, questionID uint, flagged bool) error {
	answer, err := s.mutableAnswer(auth, attemptID, questionID)
	if err != nil {
		return err
	}
	if err := s.answerRepo.UpdateFlag(answer.ID, flagged, s.now()); err != nil {
		return apperr.Wrap(apperr.KindInfrastructure, err, "updating flag")
	}
	return nil
}

// SubmitExam transitions the attempt to its terminal state and grades it
// synchronously. Submission after expiry is allowed — expiry forces
// submission, it does not forbid a voluntary one that races it — but a
// second call always fails.
func (s *examSessionService) SubmitExam(auth AuthContext, attemptID uint) (*dto.AttemptDTO, error) {
	attempt, err := s.ownedAttempt(auth, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Submitted {
		return nil, apperr.New(apperr.KindPreconditionFailed, "attempt %d already submitted", attemptID)
	}

	won, err := s.attemptRepo.MarkSubmitted(attemptID, s.now())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "marking attempt submitted")
	}
	if !won {
		id := attemptID
		s.audit.Record(model.AuditSubmitConflict, &id, &auth.UserID, "manual submit lost the race")
		return nil, apperr.New(apperr.KindTransientConflict, "attempt %d was already submitted concurrently", attemptID)
	}

	if err := s.grading.GradeExam(attemptID); err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("Grading failed after submission")
		return nil, err
	}

	graded, err := s.attemptRepo.FindByIDWithAnswers(attemptID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "reloading attempt %d", attemptID)
	}
	resp := s.attemptDTO(graded)
	resp.ExamTitle = graded.Exam.Title
	log.Info().Uint("attemptID", attemptID).Msg("Exam submitted")
	return resp, nil
}

func (s *examSessionService) ForceSubmitExpired(attemptID uint) error {
	expired, err := s.timer.IsExpired(attemptID)
	if err != nil {
		return err
	}
	if !expired {
		return apperr.New(apperr.KindPreconditionFailed, "attempt %d has time remaining", attemptID)
	}

	won, err := s.attemptRepo.MarkSubmitted(attemptID, s.now())
	if err != nil {
		return apperr.Wrap(apperr.KindInfrastructure, err, "marking attempt submitted")
	}
	if !won {
		// A voluntary submit got there first; the attempt is already
		// terminal, which is all expiry needs to guarantee.
		return nil
	}

	id := attemptID
	s.audit.Record(model.AuditForcedSubmit, &id, nil, "timer expiry forced submission")
	return s.grading.GradeExam(attemptID)
}

func (s *examSessionService) AttemptProgress(auth AuthContext, attemptID uint) (*dto.AttemptProgressDTO, error) {
	if _, err := s.ownedAttempt(auth, attemptID); err != nil {
		return nil, err
	}
	answers, err := s.answerRepo.FindByAttemptID(attemptID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "loading answers for attempt %d", attemptID)
	}
	remaining, err := s.timer.RemainingTime(attemptID)
	if err != nil {
		return nil, err
	}

	progress := dto.AttemptProgressDTO{
		AttemptID: attemptID,
		Total:     len(answers),
		Remaining: FormatClock(remaining),
		Expired:   remaining <= 0,
	}
	for _, answer := range answers {
		if answer.ChoiceID != nil {
			progress.Answered++
		}
		if answer.Flagged {
			progress.Flagged++
		}
	}
	return &progress, nil
}

func (s *examSessionService) GetNextQuestion(examID uint, sequence int) (*dto.QuestionDTO, error) {
	return s.adjacentQuestion(examID, sequence+1)
}

func (s *examSessionService) GetPreviousQuestion(examID uint, sequence int) (*dto.QuestionDTO, error) {
	if sequence <= 1 {
		return nil, nil
	}
	return s.adjacentQuestion(examID, sequence-1)
}

func (s *examSessionService) adjacentQuestion(examID uint, sequence int) (*dto.QuestionDTO, error) {
	question, err := s.questionRepo.FindByExamAndSequence(examID, sequence)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "looking up question at sequence %d", sequence)
	}
	var resp dto.QuestionDTO
	if err := copier.Copy(&resp, question); err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "preparing question response")
	}
	return &resp, nil
}

// mutableAnswer runs the shared mutation preconditions: ownership, not
// submitted, timer not expired, answer record present.
func (s *examSessionService) mutableAnswer(auth AuthContext, attemptID, questionID uint) (*model.AnswerRecord, error) {
	attempt, err := s.ownedAttempt(auth, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Submitted {
		return nil, apperr.New(apperr.KindPreconditionFailed, "attempt %d already submitted", attemptID)
	}

	expired, err := s.timer.IsExpired(attemptID)
	if err != nil {
		return nil, err
	}
	if expired {
		if err := s.ForceSubmitExpired(attemptID); err != nil {
			log.Error().Err(err).Uint("attemptID", attemptID).Msg("Expiry-forced submission failed")
		}
		return nil, apperr.New(apperr.KindPreconditionFailed, "attempt %d has expired", attemptID)
	}

	answer, err := s.answerRepo.FindByAttemptAndQuestion(attemptID, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "no answer record for question %d on attempt %d", questionID, attemptID)
		}
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "looking up answer record")
	}
	return answer, nil
}

func (s *examSessionService) ownedAttempt(auth AuthContext, attemptID uint) (*model.ExamAttempt, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "attempt %d not found", attemptID)
		}
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "looking up attempt %d", attemptID)
	}
	student, err := s.studentForUser(auth.UserID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != student.ID {
		return nil, apperr.New(apperr.KindPreconditionFailed, "attempt %d does not belong to this student", attemptID)
	}
	return attempt, nil
}

func (s *examSessionService) studentForUser(userID uint) (*model.Student, error) {
	student, err := s.studentRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "no student record for identity %d", userID)
		}
		return nil, apperr.Wrap(apperr.KindInfrastructure, err, "looking up student record")
	}
	return student, nil
}

func (s *examSessionService) attemptDTO(attempt *model.ExamAttempt) *dto.AttemptDTO {
	resp := dto.AttemptDTO{}
	if err := copier.Copy(&resp, attempt); err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Copying attempt to DTO")
	}
	resp.Answers = make([]dto.AnswerRecordDTO, 0, len(attempt.Answers))
	for _, answer := range attempt.Answers {
		resp.Answers = append(resp.Answers, dto.AnswerRecordDTO{
			QuestionID:   answer.QuestionID,
			ChoiceID:     answer.ChoiceID,
			Flagged:      answer.Flagged,
			LastModified: answer.LastModified,
		})
	}
	return &resp
}
