package business

import "github.com/employer-pool/internal/provider"

// Handler 企业端接口处理器入口
// 说明：所有路由均经过操作员 JWT 与 RBAC 中间件。
type Handler struct {
	*provider.Container
}

// New 创建企业端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
