package service

import "strings"

// Session 操作员会话，由 HTTP 中间件构建后显式传入流程
type Session struct {
	OperatorID       uint
	BusinessID       uint
	Role             string
	RegisteredWallet string
	ConnectedWallet  string
	RequestID        string
}

// RequireWalletMatch 要求当前连接的钱包与企业注册钱包一致（大小写不敏感）
func (s *Session) RequireWalletMatch() error {
	if s == nil || s.OperatorID == 0 || s.BusinessID == 0 {
		return ErrSessionInvalid
	}
	connected := strings.TrimSpace(s.ConnectedWallet)
	if connected == "" {
		return ErrWalletNotConnected
	}
	registered := strings.TrimSpace(s.RegisteredWallet)
	if registered == "" || !strings.EqualFold(connected, registered) {
		return ErrWalletMismatch
	}
	return nil
}
