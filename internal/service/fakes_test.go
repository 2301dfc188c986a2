package service

// In-memory repository fakes backed by maps. They return
// gorm.ErrRecordNotFound exactly where the gorm implementations would,
// so the services' error translation paths are exercised for real.

import (
	"sort"
	"time"

	"github.com/hems-edu/examgate/internal/model"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	users  map[uint]*model.User
	nextID uint
	// lookups counts FindByID and FindByEmail calls, so tests can assert
	// that fail-fast validation never reaches storage.
	lookups int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*model.User), nextID: 1}
}

func (r *fakeUserRepo) Create(user *model.User) error {
	user.ID = r.nextID
	r.nextID++
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) FindByID(id uint) (*model.User, error) {
	r.lookups++
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	r.lookups++
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(user *model.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

type fakeStudentRepo struct {
	students map[uint]*model.Student
	users    *fakeUserRepo
	nextID   uint
}

func newFakeStudentRepo(users *fakeUserRepo) *fakeStudentRepo {
	return &fakeStudentRepo{students: make(map[uint]*model.Student), users: users, nextID: 1}
}

func (r *fakeStudentRepo) Create(student *model.Student) error {
	student.ID = r.nextID
	r.nextID++
	clone := *student
	r.students[student.ID] = &clone
	return nil
}

func (r *fakeStudentRepo) CreateWithUser(user *model.User, student *model.Student) error {
	if err := r.users.Create(user); err != nil {
		return err
	}
	student.UserID = user.ID
	return r.Create(student)
}

func (r *fakeStudentRepo) FindByUserID(userID uint) (*model.Student, error) {
	for _, student := range r.students {
		if student.UserID == userID {
			clone := *student
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeStudentRepo) FindByIDNumber(idNumber string) (*model.Student, error) {
	for _, student := range r.students {
		if student.IDNumber == idNumber {
			clone := *student
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeExamRepo struct {
	exams  map[uint]*model.Exam
	nextID uint
}

func newFakeExamRepo() *fakeExamRepo {
	return &fakeExamRepo{exams: make(map[uint]*model.Exam), nextID: 1}
}

func (r *fakeExamRepo) Create(exam *model.Exam) error {
	exam.ID = r.nextID
	r.nextID++
	var questionID, choiceID uint = exam.ID * 100, exam.ID * 1000
	for i := range exam.Questions {
		questionID++
		exam.Questions[i].ID = questionID
		exam.Questions[i].ExamID = exam.ID
		for j := range exam.Questions[i].Choices {
			choiceID++
			exam.Questions[i].Choices[j].ID = choiceID
			exam.Questions[i].Choices[j].QuestionID = questionID
		}
	}
	clone := *exam
	r.exams[exam.ID] = &clone
	return nil
}

func (r *fakeExamRepo) FindByID(id uint) (*model.Exam, error) {
	exam, ok := r.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *exam
	clone.Questions = nil
	return &clone, nil
}

func (r *fakeExamRepo) FindByIDWithQuestions(id uint) (*model.Exam, error) {
	exam, ok := r.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *exam
	clone.Questions = append([]model.Question(nil), exam.Questions...)
	sort.Slice(clone.Questions, func(i, j int) bool {
		return clone.Questions[i].Sequence < clone.Questions[j].Sequence
	})
	return &clone, nil
}

func (r *fakeExamRepo) FindPublishedByYear(year int) ([]model.Exam, error) {
	var out []model.Exam
	for _, exam := range r.exams {
		if exam.Published && exam.Year == year {
			clone := *exam
			clone.Questions = nil
			out = append(out, clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeExamRepo) MarkPublished(id uint) error {
	exam, ok := r.exams[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	exam.Published = true
	return nil
}

type fakeQuestionRepo struct {
	exams *fakeExamRepo
}

func newFakeQuestionRepo(exams *fakeExamRepo) *fakeQuestionRepo {
	return &fakeQuestionRepo{exams: exams}
}

func (r *fakeQuestionRepo) each(fn func(*model.Question) bool) {
	for _, exam := range r.exams.exams {
		for i := range exam.Questions {
			if fn(&exam.Questions[i]) {
				return
			}
		}
	}
}

func (r *fakeQuestionRepo) FindByExamAndSequence(examID uint, sequence int) (*model.Question, error) {
	var found *model.Question
	r.each(func(q *model.Question) bool {
		if q.ExamID == examID && q.Sequence == sequence {
			clone := *q
			clone.Choices = append([]model.Choice(nil), q.Choices...)
			found = &clone
			return true
		}
		return false
	})
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return found, nil
}

func (r *fakeQuestionRepo) FindChoice(id uint) (*model.Choice, error) {
	var found *model.Choice
	r.each(func(q *model.Question) bool {
		for i := range q.Choices {
			if q.Choices[i].ID == id {
				clone := q.Choices[i]
				found = &clone
				return true
			}
		}
		return false
	})
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return found, nil
}

type fakeCredRepo struct {
	creds  map[uint]*model.SessionCredential
	nextID uint
}

func newFakeCredRepo() *fakeCredRepo {
	return &fakeCredRepo{creds: make(map[uint]*model.SessionCredential), nextID: 1}
}

func (r *fakeCredRepo) Create(cred *model.SessionCredential) error {
	cred.ID = r.nextID
	r.nextID++
	clone := *cred
	r.creds[cred.ID] = &clone
	return nil
}

func (r *fakeCredRepo) FindByID(id uint) (*model.SessionCredential, error) {
	cred, ok := r.creds[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *cred
	return &clone, nil
}

func (r *fakeCredRepo) FindCurrent(examIDs []uint, now time.Time) ([]model.SessionCredential, error) {
	wanted := make(map[uint]bool, len(examIDs))
	for _, id := range examIDs {
		wanted[id] = true
	}
	var out []model.SessionCredential
	for _, cred := range r.creds {
		if wanted[cred.ExamID] && cred.Active && cred.ExpiresAt.After(now) {
			out = append(out, *cred)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCredRepo) Deactivate(id uint) error {
	cred, ok := r.creds[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cred.Active = false
	return nil
}

func (r *fakeCredRepo) Rotate(cred *model.SessionCredential) error {
	for _, prior := range r.creds {
		if prior.ExamID == cred.ExamID {
			prior.Active = false
		}
	}
	return r.Create(cred)
}

type fakeAttemptRepo struct {
	attempts map[uint]*model.ExamAttempt
	exams    *fakeExamRepo
	answers  *fakeAnswerRepo
	nextID   uint
}

func newFakeAttemptRepo(exams *fakeExamRepo, answers *fakeAnswerRepo) *fakeAttemptRepo {
	return &fakeAttemptRepo{
		attempts: make(map[uint]*model.ExamAttempt),
		exams:    exams,
		answers:  answers,
		nextID:   1,
	}
}

func (r *fakeAttemptRepo) Create(attempt *model.ExamAttempt) error {
	attempt.ID = r.nextID
	r.nextID++
	for i := range attempt.Answers {
		attempt.Answers[i].AttemptID = attempt.ID
	}
	clone := *attempt
	clone.Answers = nil
	r.attempts[attempt.ID] = &clone
	for i := range attempt.Answers {
		if err := r.answers.create(&attempt.Answers[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeAttemptRepo) FindByID(id uint) (*model.ExamAttempt, error) {
	attempt, ok := r.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *attempt
	return &clone, nil
}

func (r *fakeAttemptRepo) FindByIDWithAnswers(id uint) (*model.ExamAttempt, error) {
	attempt, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	if exam, ok := r.exams.exams[attempt.ExamID]; ok {
		attempt.Exam = *exam
		attempt.Exam.Questions = nil
	}
	answers, err := r.answers.FindByAttemptID(id)
	if err != nil {
		return nil, err
	}
	attempt.Answers = answers
	return attempt, nil
}

func (r *fakeAttemptRepo) FindByStudentAndExam(studentID, examID uint) (*model.ExamAttempt, error) {
	for _, attempt := range r.attempts {
		if attempt.StudentID == studentID && attempt.ExamID == examID {
			clone := *attempt
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAttemptRepo) MarkSubmitted(id uint, submittedAt time.Time) (bool, error) {
	attempt, ok := r.attempts[id]
	if !ok {
		return false, nil
	}
	if attempt.Submitted {
		return false, nil
	}
	attempt.Submitted = true
	at := submittedAt
	attempt.SubmittedAt = &at
	return true, nil
}

func (r *fakeAttemptRepo) UpdateGrade(id uint, score int, percentage float64) error {
	attempt, ok := r.attempts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s, p := score, percentage
	attempt.Score = &s
	attempt.Percentage = &p
	return nil
}

type fakeAnswerRepo struct {
	answers map[uint]*model.AnswerRecord
	nextID  uint
}

func newFakeAnswerRepo() *fakeAnswerRepo {
	return &fakeAnswerRepo{answers: make(map[uint]*model.AnswerRecord), nextID: 1}
}

func (r *fakeAnswerRepo) create(answer *model.AnswerRecord) error {
	answer.ID = r.nextID
	r.nextID++
	clone := *answer
	r.answers[answer.ID] = &clone
	return nil
}

func (r *fakeAnswerRepo) FindByAttemptID(attemptID uint) ([]model.AnswerRecord, error) {
	var out []model.AnswerRecord
	for _, answer := range r.answers {
		if answer.AttemptID == attemptID {
			out = append(out, *answer)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAnswerRepo) FindByAttemptAndQuestion(attemptID, questionID uint) (*model.AnswerRecord, error) {
	for _, answer := range r.answers {
		if answer.AttemptID == attemptID && answer.QuestionID == questionID {
			clone := *answer
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAnswerRepo) UpdateChoice(id uint, choiceID uint, modified time.Time) error {
	answer, ok := r.answers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c := choiceID
	answer.ChoiceID = &c
	answer.LastModified = modified
	return nil
}

func (r *fakeAnswerRepo) UpdateFlag(id uint, flagged bool, modified time.Time) error {
	answer, ok := r.answers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	answer.Flagged = flagged
	answer.LastModified = modified
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]*model.LoginSession
	nextID   uint
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.LoginSession), nextID: 1}
}

func (r *fakeSessionRepo) Create(session *model.LoginSession) error {
	session.ID = r.nextID
	r.nextID++
	clone := *session
	r.sessions[session.Token] = &clone
	return nil
}

func (r *fakeSessionRepo) FindByToken(token string) (*model.LoginSession, error) {
	session, ok := r.sessions[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *session
	return &clone, nil
}

func (r *fakeSessionRepo) Deactivate(token string) error {
	if session, ok := r.sessions[token]; ok {
		session.Active = false
	}
	return nil
}

func (r *fakeSessionRepo) DeactivateAllForUser(userID uint) error {
	for _, session := range r.sessions {
		if session.UserID == userID {
			session.Active = false
		}
	}
	return nil
}

func (r *fakeSessionRepo) HasActivePhase2(userID uint, sessionCredentialID uint, now time.Time) (bool, error) {
	for _, session := range r.sessions {
		if session.UserID == userID &&
			session.Phase == 2 &&
			session.Active &&
			session.ExpiresAt.After(now) &&
			session.SessionCredentialID != nil &&
			*session.SessionCredentialID == sessionCredentialID {
			return true, nil
		}
	}
	return false, nil
}

type fakeAuditRepo struct {
	events []model.AuditEvent
}

func (r *fakeAuditRepo) Create(event *model.AuditEvent) error {
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeAuditRepo) kinds() []string {
	out := make([]string, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Kind)
	}
	return out
}
