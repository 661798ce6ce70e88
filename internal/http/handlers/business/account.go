package business

import (
	"errors"
	"strings"

	"github.com/employer-pool/internal/authz"
	"github.com/employer-pool/internal/http/handlers/shared"
	"github.com/employer-pool/internal/http/response"
	"github.com/employer-pool/internal/service"

	"github.com/gin-gonic/gin"
)

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

var accountErrorRules = []shared.MappedError{
	{Target: service.ErrInvalidCredentials, Code: response.CodeBadRequest, Key: "error.invalid_credentials"},
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
}

// GetProfile 当前操作员与企业信息
func (h *Handler) GetProfile(c *gin.Context) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	business, err := h.BusinessRepo.GetByID(session.BusinessID)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "error.record_fetch_failed", err)
		return
	}
	if business == nil {
		shared.RespondError(c, response.CodeNotFound, "error.business_not_found", nil)
		return
	}
	response.Success(c, gin.H{
		"operator_id":      session.OperatorID,
		"role":             session.Role,
		"business":         business,
		"connected_wallet": session.ConnectedWallet,
		"wallet_matches":   session.RequireWalletMatch() == nil,
	})
}

// ChangePassword 修改当前操作员密码
func (h *Handler) ChangePassword(c *gin.Context) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.AuthService.ChangePassword(c.Request.Context(), session.OperatorID, req.OldPassword, req.NewPassword); err != nil {
		shared.RespondMappedError(c, err, accountErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, nil)
}

// ListRoles 角色列表
func (h *Handler) ListRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, roles)
}

// GetRolePolicies 角色权限（含继承）
func (h *Handler) GetRolePolicies(c *gin.Context) {
	role := strings.TrimSpace(c.Param("role"))
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		if errors.Is(err, authz.ErrInvalidRole) {
			shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		shared.RespondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, policies)
}
