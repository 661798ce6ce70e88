package business

import (
	"strconv"
	"strings"

	"github.com/employer-pool/internal/http/handlers/shared"
	"github.com/employer-pool/internal/http/response"
	"github.com/employer-pool/internal/repository"
	"github.com/employer-pool/internal/service"

	"github.com/gin-gonic/gin"
)

// WorkerAddRequest 添加员工请求
type WorkerAddRequest struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email" binding:"required"`
	Salary string `json:"salary" binding:"required"`
}

// ContractorInviteRequest 邀请承包商请求
type ContractorInviteRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required"`
	Role          string `json:"role"`
	WalletAddress string `json:"wallet_address"`
	PaymentAmount string `json:"payment_amount" binding:"required"`
}

// ContractorActivateRequest 激活承包商请求
type ContractorActivateRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(id), true
}

// ListWorkers 员工列表
func (h *Handler) ListWorkers(c *gin.Context) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	page, pageSize := shared.PageParams(c)
	workers, total, err := h.WorkerService.List(repository.WorkerListFilter{
		Page:       page,
		PageSize:   pageSize,
		BusinessID: session.BusinessID,
		Status:     strings.TrimSpace(c.Query("status")),
		Search:     strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		shared.RespondPaymentError(c, err, "error.record_fetch_failed")
		return
	}
	response.SuccessWithPage(c, workers, response.BuildPagination(page, pageSize, total))
}

// GetWorker 员工详情
func (h *Handler) GetWorker(c *gin.Context) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	worker, err := h.WorkerService.Get(session.BusinessID, id)
	if err != nil {
		shared.RespondPaymentError(c, err, "error.record_fetch_failed")
		return
	}
	response.Success(c, worker)
}

// AddWorker 添加员工，返回钱包绑定邀请码
func (h *Handler) AddWorker(c *gin.Context) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	var req WorkerAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	worker, err := h.WorkerService.Add(session.BusinessID, service.WorkerAddInput{
		Name:   req.Name,
		Email:  req.Email,
		Salary: req.Salary,
	})
	if err != nil {
		shared.RespondPaymentError(c, err, "error.record_save_failed")
		return
	}
	response.Success(c, gin.H{
		"worker":       worker,
		"connect_code": worker.ConnectCode,
	})
}

// ListContractors 承包商列表
func (h *Handler) ListContractors(c *gin.Context) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	page, pageSize := shared.PageParams(c)
	contractors, total, err := h.ContractorService.List(repository.ContractorListFilter{
		Page:       page,
		PageSize:   pageSize,
		BusinessID: session.BusinessID,
		Status:     strings.TrimSpace(c.Query("status")),
		Search:     strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		shared.RespondPaymentError(c, err, "error.record_fetch_failed")
		return
	}
	response.SuccessWithPage(c, contractors, response.BuildPagination(page, pageSize, total))
}

// GetContractor 承包商详情
func (h *Handler) GetContractor(c *gin.Context) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	contractor, err := h.ContractorService.Get(session.BusinessID, id)
	if err != nil {
		shared.RespondPaymentError(c, err, "error.record_fetch_failed")
		return
	}
	response.Success(c, contractor)
}

// InviteContractor 邀请承包商
func (h *Handler) InviteContractor(c *gin.Context) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	var req ContractorInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	contractor, err := h.ContractorService.Invite(session.BusinessID, service.ContractorInviteInput{
		Name:          req.Name,
		Email:         req.Email,
		Role:          req.Role,
		WalletAddress: req.WalletAddress,
		PaymentAmount: req.PaymentAmount,
	})
	if err != nil {
		shared.RespondPaymentError(c, err, "error.record_save_failed")
		return
	}
	response.Success(c, contractor)
}

// ActivateContractor 绑定钱包并激活承包商
func (h *Handler) ActivateContractor(c *gin.Context) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req ContractorActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	contractor, err := h.ContractorService.Activate(session.BusinessID, id, req.WalletAddress)
	if err != nil {
		shared.RespondPaymentError(c, err, "error.record_save_failed")
		return
	}
	response.Success(c, contractor)
}
