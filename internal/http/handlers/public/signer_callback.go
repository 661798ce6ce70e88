package public

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/employer-pool/internal/http/handlers/shared"
	"github.com/employer-pool/internal/http/response"
	"github.com/employer-pool/internal/i18n"
	"github.com/employer-pool/internal/payment/signer"
	"github.com/employer-pool/internal/service"

	"github.com/gin-gonic/gin"
)

const maxCallbackBodyBytes = 1 << 20

// HandleSignerCallback 处理签名网关异步回调
func (h *Handler) HandleSignerCallback(c *gin.Context) {
	log := shared.RequestLog(c)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBodyBytes))
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.callback_payload_invalid", nil)
		return
	}

	header := c.GetHeader(signer.SignatureHeader)
	if err := signer.VerifyCallback(h.SignerOptions.CallbackSecret, h.SignerOptions.CallbackToleranceSeconds, header, body, time.Now()); err != nil {
		log.Warnw("signer_callback_signature_invalid", "error", err)
		shared.RespondError(c, response.CodeUnauthorized, "error.callback_signature_invalid", nil)
		return
	}

	data, err := signer.ParseCallback(body)
	if err != nil {
		log.Warnw("signer_callback_parse_failed", "error", err)
		shared.RespondError(c, response.CodeBadRequest, "error.callback_payload_invalid", nil)
		return
	}
	var raw map[string]interface{}
	_ = json.Unmarshal(body, &raw)

	result, err := h.PaymentFlow.HandleSignerCallback(c.Request.Context(), service.SignerCallbackInput{
		RequestID:       data.RequestID,
		IntentID:        data.Reference,
		Status:          data.Status,
		TransactionHash: data.TransactionHash,
		Reason:          data.Reason,
		Payload:         raw,
	})
	if err != nil {
		if errors.Is(err, service.ErrCallbackPayloadInvalid) {
			shared.RespondError(c, response.CodeBadRequest, "error.callback_payload_invalid", nil)
			return
		}
		// 非 2xx 让网关重试，重复回调由幂等结算吸收
		log.Errorw("signer_callback_reconcile_failed", "intent_id", data.Reference, "error", err)
		c.JSON(http.StatusServiceUnavailable, response.Response{
			StatusCode: response.CodeInternal,
			Msg:        i18n.T(i18n.ResolveLocale(c), "error.reconcile_persistence"),
		})
		return
	}
	response.Success(c, result)
}
