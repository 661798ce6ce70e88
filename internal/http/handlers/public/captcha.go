package public

import (
	"errors"

	"github.com/employer-pool/internal/http/handlers/shared"
	"github.com/employer-pool/internal/http/response"
	"github.com/employer-pool/internal/service"

	"github.com/gin-gonic/gin"
)

// GetImageCaptcha 获取图片验证码挑战
func (h *Handler) GetImageCaptcha(c *gin.Context) {
	if h.CaptchaService == nil || !h.CaptchaService.Enabled() {
		shared.RespondError(c, response.CodeBadRequest, "error.captcha_config_invalid", nil)
		return
	}

	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		if errors.Is(err, service.ErrCaptchaConfigInvalid) {
			shared.RespondError(c, response.CodeBadRequest, "error.captcha_config_invalid", nil)
			return
		}
		shared.RespondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, gin.H{
		"captcha_id":   challenge.CaptchaID,
		"image_base64": challenge.ImageBase64,
	})
}

var captchaErrorRules = []shared.MappedError{
	{Target: service.ErrCaptchaRequired, Code: response.CodeBadRequest, Key: "error.captcha_required"},
	{Target: service.ErrCaptchaInvalid, Code: response.CodeBadRequest, Key: "error.captcha_invalid"},
	{Target: service.ErrCaptchaConfigInvalid, Code: response.CodeBadRequest, Key: "error.captcha_config_invalid"},
}

// verifyCaptcha 验证码未启用时直接通过
func (h *Handler) verifyCaptcha(c *gin.Context, payload shared.CaptchaPayloadRequest) bool {
	if h.CaptchaService == nil || !h.CaptchaService.Enabled() {
		return true
	}
	if err := h.CaptchaService.Verify(payload.ToServicePayload()); err != nil {
		shared.RespondMappedError(c, err, captchaErrorRules, response.CodeInternal, "error.captcha_verify_failed")
		return false
	}
	return true
}
