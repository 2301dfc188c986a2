package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hems-edu/examgate/internal/controller"
	"github.com/hems-edu/examgate/internal/dto"
	"github.com/hems-edu/examgate/internal/service"
)

type AdminController struct {
	admin service.AdminExamService
}

func NewAdminController(admin service.AdminExamService) *AdminController {
	return &AdminController{admin: admin}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "invalid " + name})
		return 0, false
	}
	return uint(value), true
}

// Login godoc
// @Summary Admin login
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body dto.AdminLoginRequest true "Admin credentials"
// @Success 200 {object} dto.AdminLoginResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/login [post]
func (c *AdminController) Login(ctx *gin.Context) {
	var req dto.AdminLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, err)
		return
	}
	token, err := c.admin.Login(req.Email, req.Password)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.AdminLoginResponse{Token: token})
}

// CreateExam godoc
// @Summary Create an exam with its questions and choices
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ExamCreateDTO true "Exam definition"
// @Success 201 {object} dto.ExamDTO
// @Failure 400 {object} dto.ErrorResponse "Duplicate sequence or bad answer key"
// @Router /admin/exams [post]
func (c *AdminController) CreateExam(ctx *gin.Context) {
	var req dto.ExamCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, err)
		return
	}
	exam, err := c.admin.CreateExam(req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, exam)
}

// PublishExam godoc
// @Summary Publish an exam
// @Description Publication is monotone: re-publishing is a no-op.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param exam_id path int true "Exam ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/exams/{exam_id}/publish [post]
func (c *AdminController) PublishExam(ctx *gin.Context) {
	examID, ok := pathID(ctx, "exam_id")
	if !ok {
		return
	}
	if err := c.admin.PublishExam(examID); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// CreateSessionCredential godoc
// @Summary Issue a new session credential for an exam
// @Description Rotates the exam's credential: previous credentials are deactivated first.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exam_id path int true "Exam ID"
// @Param body body dto.SessionCredentialCreateDTO true "Credential password and expiry"
// @Success 201 {object} dto.SessionCredentialDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/exams/{exam_id}/credentials [post]
func (c *AdminController) CreateSessionCredential(ctx *gin.Context) {
	examID, ok := pathID(ctx, "exam_id")
	if !ok {
		return
	}
	var req dto.SessionCredentialCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, err)
		return
	}
	cred, err := c.admin.CreateSessionCredential(examID, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, cred)
}

// DeactivateSessionCredential godoc
// @Summary Deactivate a session credential
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param credential_id path int true "Credential ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/credentials/{credential_id} [delete]
func (c *AdminController) DeactivateSessionCredential(ctx *gin.Context) {
	credentialID, ok := pathID(ctx, "credential_id")
	if !ok {
		return
	}
	if err := c.admin.DeactivateSessionCredential(credentialID); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ProvisionStudent godoc
// @Summary Provision a student account
// @Description Creates the user and student rows with the derived initial password and a forced-change flag.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.StudentProvisionDTO true "Student identity"
// @Success 201 {object} dto.StudentDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/students [post]
func (c *AdminController) ProvisionStudent(ctx *gin.Context) {
	var req dto.StudentProvisionDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, err)
		return
	}
	student, err := c.admin.ProvisionStudent(req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, student)
}
