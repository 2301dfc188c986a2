package student

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hems-edu/examgate/internal/controller"
	"github.com/hems-edu/examgate/internal/dto"
	"github.com/hems-edu/examgate/internal/middleware"
	"github.com/hems-edu/examgate/internal/model"
	"github.com/hems-edu/examgate/internal/service"
)

type ExamController struct {
	sessions service.ExamSessionService
	timer    service.TimerService
	audit    service.AuditService
}

func NewExamController(sessions service.ExamSessionService, timer service.TimerService, audit service.AuditService) *ExamController {
	return &ExamController{sessions: sessions, timer: timer, audit: audit}
}

func sessionFrom(ctx *gin.Context) *model.LoginSession {
	value, ok := ctx.Get(middleware.ContextLoginSession)
	if !ok {
		return nil
	}
	session, _ := value.(*model.LoginSession)
	return session
}

func authFrom(ctx *gin.Context) service.AuthContext {
	return service.AuthContext{
		UserID:  ctx.GetUint(middleware.ContextUserID),
		Session: sessionFrom(ctx),
	}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "invalid " + name})
		return 0, false
	}
	return uint(value), true
}

// ListExams godoc
// @Summary List published exams for the current cycle
// @Tags Exams
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ExamSummaryDTO
// @Failure 401 {object} dto.ErrorResponse
// @Router /exams [get]
func (c *ExamController) ListExams(ctx *gin.Context) {
	exams, err := c.sessions.ListAvailableExams(authFrom(ctx))
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, exams)
}

// StartExam godoc
// @Summary Start an exam attempt
// @Description Creates the single, non-repeatable attempt and its blank answer records.
// @Tags Exams
// @Produce json
// @Security BearerAuth
// @Param exam_id path int true "Exam ID"
// @Success 201 {object} dto.AttemptDTO
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Not published, wrong cycle, or already attempted"
// @Router /exams/{exam_id}/attempts [post]
func (c *ExamController) StartExam(ctx *gin.Context) {
	examID, ok := pathID(ctx, "exam_id")
	if !ok {
		return
	}
	attempt, err := c.sessions.StartExam(authFrom(ctx), examID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, attempt)
}

// SaveAnswer godoc
// @Summary Save an answer on a running attempt
// @Tags Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param body body dto.SaveAnswerRequest true "Question and selected choice"
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Submitted, expired, or choice/question mismatch"
// @Router /attempts/{attempt_id}/answers [put]
func (c *ExamController) SaveAnswer(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.SaveAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, err)
		return
	}
	if err := c.sessions.SaveAnswer(authFrom(ctx), attemptID, req.QuestionID, req.ChoiceID); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// FlagQuestion godoc
// @Summary Flag or unflag a question for review
// @Tags Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param body body dto.FlagQuestionRequest true "Question and flag state"
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id}/flags [put]
func (c *ExamController) FlagQuestion(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.FlagQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, err)
		return
	}
	if err := c.sessions.FlagQuestion(authFrom(ctx), attemptID, req.QuestionID, req.Flagged); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// SubmitExam godoc
// @Summary Submit the attempt and grade it
// @Description Terminal transition; a second call always fails. Allowed after expiry.
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptDTO
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Already submitted or lost a concurrent submit"
// @Router /attempts/{attempt_id}/submit [post]
func (c *ExamController) SubmitExam(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	attempt, err := c.sessions.SubmitExam(authFrom(ctx), attemptID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, attempt)
}

// Timestamp godoc
// @Summary Poll the authoritative countdown
// @Description Returns server time, remaining time, and an HMAC binding them to this attempt. If the attempt has expired this also forces the authoritative submission.
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} service.SecureTimestamp
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id}/timestamp [get]
func (c *ExamController) Timestamp(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	stamp, err := c.timer.SecureTimestamp(attemptID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	if stamp.Expired {
		// Best effort; the submit preconditions re-check expiry anyway.
		_ = c.sessions.ForceSubmitExpired(attemptID)
	}
	ctx.JSON(http.StatusOK, stamp)
}

// VerifyTimestamp godoc
// @Summary Verify an echoed secure timestamp
// @Tags Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param body body dto.TimestampEchoRequest true "Previously issued timestamp"
// @Success 200 {object} dto.TimestampEchoResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id}/timestamp/verify [post]
func (c *ExamController) VerifyTimestamp(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.TimestampEchoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, err)
		return
	}
	valid := c.timer.ValidateTimestampHash(attemptID, time.Unix(req.ServerTimeUnix, 0), req.Hash)
	if !valid {
		id := attemptID
		userID := ctx.GetUint(middleware.ContextUserID)
		c.audit.Record(model.AuditTimestampTamper, &id, &userID, "echoed timestamp failed verification")
	}
	ctx.JSON(http.StatusOK, dto.TimestampEchoResponse{Valid: valid})
}

// ReportTiming godoc
// @Summary Report client-observed elapsed time
// @Description Advisory only: a claim of less elapsed time than the server observed is recorded as a suspicious-timing event. Never blocks the session.
// @Tags Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param body body dto.TimingReportRequest true "Client elapsed seconds"
// @Success 200 {object} dto.TimingReportResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id}/timing [post]
func (c *ExamController) ReportTiming(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.TimingReportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, err)
		return
	}
	suspicious := c.timer.DetectSuspiciousTimingActivity(attemptID, time.Duration(req.ElapsedSeconds)*time.Second)
	ctx.JSON(http.StatusOK, dto.TimingReportResponse{Suspicious: suspicious})
}

// Progress godoc
// @Summary Attempt progress summary
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptProgressDTO
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id}/progress [get]
func (c *ExamController) Progress(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	progress, err := c.sessions.AttemptProgress(authFrom(ctx), attemptID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, progress)
}

// NextQuestion godoc
// @Summary Next question by sequence order
// @Tags Exams
// @Produce json
// @Security BearerAuth
// @Param exam_id path int true "Exam ID"
// @Param sequence path int true "Current sequence"
// @Success 200 {object} dto.QuestionDTO
// @Failure 404 {object} dto.ErrorResponse "No question past this boundary"
// @Router /exams/{exam_id}/questions/{sequence}/next [get]
func (c *ExamController) NextQuestion(ctx *gin.Context) {
	c.adjacent(ctx, c.sessions.GetNextQuestion)
}

// PreviousQuestion godoc
// @Summary Previous question by sequence order
// @Tags Exams
// @Produce json
// @Security BearerAuth
// @Param exam_id path int true "Exam ID"
// @Param sequence path int true "Current sequence"
// @Success 200 {object} dto.QuestionDTO
// @Failure 404 {object} dto.ErrorResponse "No question before this boundary"
// @Router /exams/{exam_id}/questions/{sequence}/previous [get]
func (c *ExamController) PreviousQuestion(ctx *gin.Context) {
	c.adjacent(ctx, c.sessions.GetPreviousQuestion)
}

func (c *ExamController) adjacent(ctx *gin.Context, lookup func(uint, int) (*dto.QuestionDTO, error)) {
	examID, ok := pathID(ctx, "exam_id")
	if !ok {
		return
	}
	sequence, err := strconv.Atoi(ctx.Param("sequence"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "invalid sequence"})
		return
	}
	question, err := lookup(examID, sequence)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	if question == nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "no adjacent question"})
		return
	}
	ctx.JSON(http.StatusOK, question)
}
