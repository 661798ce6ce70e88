package public

import "github.com/employer-pool/internal/provider"

// Handler 公开接口处理器入口
// 说明：登录、注册、员工绑定钱包与签名网关回调，无需操作员令牌。
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
