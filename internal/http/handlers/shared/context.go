package shared

import (
	"github.com/employer-pool/internal/http/response"
	"github.com/employer-pool/internal/service"

	"github.com/gin-gonic/gin"
)

// SessionContextKey 操作员会话在 gin 上下文中的键。
const SessionContextKey = "operator_session"

// GetSession 读取中间件写入的操作员会话，不存在时返回 401。
func GetSession(c *gin.Context) (*service.Session, bool) {
	value, exists := c.Get(SessionContextKey)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return nil, false
	}
	session, ok := value.(*service.Session)
	if !ok || session == nil {
		RespondError(c, response.CodeUnauthorized, "error.session_invalid", nil)
		return nil, false
	}
	return session, true
}
