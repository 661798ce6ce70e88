package business

import (
	"strings"
	"time"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/http/handlers/shared"
	"github.com/employer-pool/internal/http/response"
	"github.com/employer-pool/internal/repository"

	"github.com/gin-gonic/gin"
)

// parseDateQuery 支持 RFC3339 与 YYYY-MM-DD
func parseDateQuery(raw string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, true
	}
	return nil, false
}

// ListIntents 支付意图列表
func (h *Handler) ListIntents(c *gin.Context) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	page, pageSize := shared.PageParams(c)
	from, okFrom := parseDateQuery(c.Query("created_from"))
	to, okTo := parseDateQuery(c.Query("created_to"))
	if !okFrom || !okTo {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	intents, total, err := h.PaymentQuery.ListIntents(repository.IntentListFilter{
		Page:        page,
		PageSize:    pageSize,
		BusinessID:  session.BusinessID,
		Flow:        strings.TrimSpace(c.Query("flow")),
		Status:      strings.TrimSpace(c.Query("status")),
		CreatedFrom: from,
		CreatedTo:   to,
		Search:      c.Query("search"),
	})
	if err != nil {
		shared.RespondPaymentError(c, err, "error.intent_fetch_failed")
		return
	}
	response.SuccessWithPage(c, intents, response.BuildPagination(page, pageSize, total))
}

// GetIntent 支付意图详情
func (h *Handler) GetIntent(c *gin.Context) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	intent, err := h.PaymentQuery.GetIntent(session.BusinessID, c.Param("id"))
	if err != nil {
		shared.RespondPaymentError(c, err, "error.intent_fetch_failed")
		return
	}
	response.Success(c, intent)
}

// ListHistory 付款历史
func (h *Handler) ListHistory(c *gin.Context) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	page, pageSize := shared.PageParams(c)
	list, total, err := h.PaymentQuery.ListHistory(repository.HistoryListFilter{
		Page:       page,
		PageSize:   pageSize,
		BusinessID: session.BusinessID,
		Flow:       strings.TrimSpace(c.Query("flow")),
		Category:   strings.TrimSpace(c.Query("category")),
	})
	if err != nil {
		shared.RespondPaymentError(c, err, "error.record_fetch_failed")
		return
	}
	response.SuccessWithPage(c, list, response.BuildPagination(page, pageSize, total))
}

// ListWalletTransactions 资金池流水，direction 取 in / out
func (h *Handler) ListWalletTransactions(c *gin.Context) {
	session, ok := shared.GetSession(c)
	if !ok {
		return
	}
	direction := strings.ToLower(strings.TrimSpace(c.Query("direction")))
	if direction != "" && direction != constants.DirectionIn && direction != constants.DirectionOut {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	page, pageSize := shared.PageParams(c)
	list, total, err := h.PaymentQuery.ListWalletTransactions(repository.HistoryListFilter{
		Page:       page,
		PageSize:   pageSize,
		BusinessID: session.BusinessID,
		Category:   strings.TrimSpace(c.Query("category")),
		Direction:  direction,
	})
	if err != nil {
		shared.RespondPaymentError(c, err, "error.record_fetch_failed")
		return
	}
	response.SuccessWithPage(c, list, response.BuildPagination(page, pageSize, total))
}
