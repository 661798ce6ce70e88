package public

import (
	"github.com/employer-pool/internal/http/handlers/shared"
	"github.com/employer-pool/internal/http/response"
	"github.com/employer-pool/internal/service"

	"github.com/gin-gonic/gin"
)

// ConnectWalletRequest 员工通过邀请码绑定钱包
type ConnectWalletRequest struct {
	Code          string `json:"code" binding:"required"`
	WalletAddress string `json:"wallet_address" binding:"required"`
}

var connectErrorRules = []shared.MappedError{
	{Target: service.ErrConnectCodeInvalid, Code: response.CodeNotFound, Key: "error.connect_code_invalid"},
	{Target: service.ErrWorkerConnected, Code: response.CodeConflict, Key: "error.worker_connected"},
	{Target: service.ErrInvalidWalletAddress, Code: response.CodeBadRequest, Key: "error.invalid_wallet_address"},
	{Target: service.ErrValidation, Code: response.CodeBadRequest, Key: "error.validation"},
}

// ConnectWorkerWallet 员工绑定收款钱包
func (h *Handler) ConnectWorkerWallet(c *gin.Context) {
	var req ConnectWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	worker, err := h.WorkerService.ConnectWallet(req.Code, req.WalletAddress)
	if err != nil {
		shared.RespondMappedError(c, err, connectErrorRules, response.CodeInternal, "error.record_save_failed")
		return
	}
	response.Success(c, gin.H{
		"name":           worker.Name,
		"status":         worker.Status,
		"wallet_address": worker.WalletAddress,
		"connected_at":   worker.ConnectedAt,
	})
}
