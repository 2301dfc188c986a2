package student

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hems-edu/examgate/internal/controller"
	"github.com/hems-edu/examgate/internal/dto"
	"github.com/hems-edu/examgate/internal/middleware"
	"github.com/hems-edu/examgate/internal/service"
	"github.com/rs/zerolog/log"
)

type AuthController struct {
	credentials service.CredentialService
}

func NewAuthController(credentials service.CredentialService) *AuthController {
	return &AuthController{credentials: credentials}
}

// Phase1Login godoc
// @Summary Phase 1 identity verification
// @Description Verifies the university email against the derived identity password. Succeeds at most once per identity.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body dto.Phase1LoginRequest true "Email and derived password"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Phase 1 already completed or password mismatch"
// @Router /auth/phase1 [post]
func (c *AuthController) Phase1Login(ctx *gin.Context) {
	var req dto.Phase1LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, err)
		return
	}

	user, err := c.credentials.ValidatePhase1Login(req.Email, req.Password)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	if err := c.credentials.CompletePhase1Login(user.ID); err != nil {
		controller.RespondError(ctx, err)
		return
	}

	token, err := c.credentials.CreateLoginSession(user.ID, 1, nil, ctx.ClientIP(), ctx.Request.UserAgent())
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.LoginResponse{Token: token, Phase: 1, MustChangePassword: user.MustChangePassword})
}

// Phase2Login godoc
// @Summary Phase 2 exam-day login
// @Description Verifies the coordinator-issued session password. Requires completed phase 1; refuses a second live session for the same exam credential.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body dto.Phase2LoginRequest true "ID number and session password"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /auth/phase2 [post]
func (c *AuthController) Phase2Login(ctx *gin.Context) {
	var req dto.Phase2LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, err)
		return
	}

	student, cred, err := c.credentials.ValidatePhase2Login(req.IDNumber, req.Password)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}

	token, err := c.credentials.CreateLoginSession(student.UserID, 2, &cred.ID, ctx.ClientIP(), ctx.Request.UserAgent())
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}

	mustChange, err := c.credentials.MustChangeCredential(student.UserID)
	if err != nil {
		log.Warn().Err(err).Uint("userID", student.UserID).Msg("Phase2Login: could not read must-change flag")
	}
	ctx.JSON(http.StatusOK, dto.LoginResponse{Token: token, Phase: 2, MustChangePassword: mustChange})
}

// ChangePassword godoc
// @Summary Replace the provisioned credential
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ChangePasswordRequest true "New password"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/password [post]
func (c *AuthController) ChangePassword(ctx *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, err)
		return
	}
	userID := ctx.GetUint(middleware.ContextUserID)
	if err := c.credentials.ChangeCredential(userID, req.NewPassword); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Logout godoc
// @Summary Invalidate the current login session
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	session := sessionFrom(ctx)
	if session == nil {
		ctx.Status(http.StatusNoContent)
		return
	}
	if err := c.credentials.InvalidateLoginSession(session.Token); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
