package public

import (
	"strings"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/http/handlers/shared"
	"github.com/employer-pool/internal/http/response"
	"github.com/employer-pool/internal/models"
	"github.com/employer-pool/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 操作员登录请求
type LoginRequest struct {
	Email    string                       `json:"email" binding:"required"`
	Password string                       `json:"password" binding:"required"`
	Captcha  shared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// RegisterRequest 企业注册请求，注册人成为企业所有者
type RegisterRequest struct {
	BusinessName  string                       `json:"business_name" binding:"required"`
	Email         string                       `json:"email" binding:"required"`
	DisplayName   string                       `json:"display_name"`
	WalletAddress string                       `json:"wallet_address"`
	Password      string                       `json:"password" binding:"required"`
	Captcha       shared.CaptchaPayloadRequest `json:"captcha_payload"`
}

var authErrorRules = []shared.MappedError{
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.invalid_credentials"},
	{Target: service.ErrEmailExists, Code: response.CodeConflict, Key: "error.email_exists"},
	{Target: service.ErrInvalidWalletAddress, Code: response.CodeBadRequest, Key: "error.invalid_wallet_address"},
	{Target: service.ErrValidation, Code: response.CodeBadRequest, Key: "error.validation"},
}

// Login 操作员登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if !h.verifyCaptcha(c, req.Captcha) {
		return
	}

	operator, token, expiresAt, err := h.AuthService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		shared.RespondMappedError(c, err, authErrorRules, response.CodeInternal, "error.login_failed")
		return
	}
	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"operator":   operator,
	})
}

// Register 注册企业及所有者账号
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if !h.verifyCaptcha(c, req.Captcha) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	business := &models.Business{
		Name:          strings.TrimSpace(req.BusinessName),
		Email:         email,
		WalletAddress: strings.TrimSpace(req.WalletAddress),
	}
	operator := &models.Operator{
		Email:       email,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        constants.OperatorRoleOwner,
	}
	if err := h.AuthService.RegisterBusiness(business, operator, req.Password); err != nil {
		shared.RespondMappedError(c, err, authErrorRules, response.CodeInternal, "error.internal")
		return
	}
	shared.RequestLog(c).Infow("business_registered", "business_id", business.ID, "operator_id", operator.ID)
	response.Success(c, gin.H{
		"business": business,
		"operator": operator,
	})
}
